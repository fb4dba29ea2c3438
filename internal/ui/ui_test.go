package ui

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStage_String(t *testing.T) {
	tests := []struct {
		stage Stage
		name  string
		icon  string
	}{
		{StageReading, "Reading", "READ"},
		{StageAutomata, "Automata", "PA"},
		{StageClustering, "Clustering", "CLUSTER"},
		{StageComplete, "Complete", "DONE"},
		{Stage(42), "Unknown", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.stage.String())
			assert.Equal(t, tt.icon, tt.stage.Icon())
		})
	}
}

func TestNewConfig_AppliesOptions(t *testing.T) {
	// Given: a buffer and options
	buf := &bytes.Buffer{}

	// When: creating config
	cfg := NewConfig(buf, WithForcePlain(true), WithNoColor(true), WithSource("app.log"))

	// Then: all options are applied
	assert.Same(t, buf, cfg.Output)
	assert.True(t, cfg.ForcePlain)
	assert.True(t, cfg.NoColor)
	assert.Equal(t, "app.log", cfg.Source)
}

func TestNewRenderer_NonTTYFallsBackToPlain(t *testing.T) {
	// Given: a buffer, which is not a terminal
	cfg := NewConfig(&bytes.Buffer{})

	// When: creating a renderer
	r := NewRenderer(cfg)

	// Then: the plain renderer is used
	_, ok := r.(*PlainRenderer)
	assert.True(t, ok)
}

func TestIsTTY(t *testing.T) {
	assert.False(t, IsTTY(nil))
	assert.False(t, IsTTY(&bytes.Buffer{}))
}

func TestDetectNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "")
	assert.True(t, DetectNoColor())
}

func TestColorEnabled(t *testing.T) {
	// Given: a buffer and a regular file, neither a terminal
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	// Then: color stays off
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
	assert.False(t, ColorEnabled(f))
	assert.False(t, ColorEnabled(nil))

	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorEnabled(f))
}

func TestDetectCI(t *testing.T) {
	t.Setenv("CI", "true")
	assert.True(t, DetectCI())
}
