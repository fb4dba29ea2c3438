package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetStyles_NoColorIsUnstyled(t *testing.T) {
	styles := GetStyles(true)

	assert.Equal(t, "text", styles.Header.Render("text"))
	assert.Equal(t, "text", styles.Active.Render("text"))
}

func TestGetStyles_ColorIsBold(t *testing.T) {
	styles := GetStyles(false)

	assert.True(t, styles.Header.GetBold())
	assert.True(t, styles.Active.GetBold())
}
