package errors

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI(t *testing.T) {
	// Given: a pattern error with details and a hint
	err := New(ErrCodeInvalidPattern, "invalid regular expression", errors.New("missing ]")).
		WithDetail("pattern", "ipv4").
		WithSuggestion("check the pattern file")

	// When: formatting for the terminal
	out := FormatForCLI(err)

	// Then: every piece is present
	assert.Contains(t, out, "Error: invalid regular expression")
	assert.Contains(t, out, "pattern: ipv4")
	assert.Contains(t, out, "Cause: missing ]")
	assert.Contains(t, out, "Hint: check the pattern file")
	assert.Contains(t, out, "Code: ERR_402_INVALID_PATTERN")
}

func TestFormatForCLI_PlainError(t *testing.T) {
	out := FormatForCLI(errors.New("plain"))
	assert.Contains(t, out, "Error: plain")
	assert.Contains(t, out, ErrCodeInternal)
	assert.NotContains(t, out, "Cause:")
	assert.Equal(t, "", FormatForCLI(nil))
}

func TestFormatJSON(t *testing.T) {
	err := New(ErrCodeStoreLocked, "locked", errors.New("busy"))

	data, jerr := FormatJSON(err)
	require.NoError(t, jerr)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, ErrCodeStoreLocked, got["code"])
	assert.Equal(t, "IO", got["category"])
	assert.Equal(t, "busy", got["cause"])
	assert.Equal(t, true, got["retryable"])

	data, jerr = FormatJSON(nil)
	require.NoError(t, jerr)
	assert.Equal(t, "null", string(data))
}

func TestLogAttrs(t *testing.T) {
	err := New(ErrCodeEmptyInput, "no lines", nil).WithDetail("source", "stdin")

	attrs := LogAttrs(err)
	keys := make([]string, 0, len(attrs))
	for _, a := range attrs {
		keys = append(keys, a.Key)
	}
	assert.Equal(t, []string{"error_code", "error", "category", "severity", "detail_source"}, keys)

	plain := LogAttrs(errors.New("x"))
	require.Len(t, plain, 1)
	assert.Equal(t, "error", plain[0].Key)
	assert.Nil(t, LogAttrs(nil))
}
