package camio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSheet_WriteRead tests that a sheet reproduces the converted frames
func TestSheet_WriteRead(t *testing.T) {
	result, err := NewConverter(testParams()).Convert(strings.NewReader(sampleTake))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSheet(&buf, result))

	text := buf.String()
	assert.Contains(t, text, "camio_version: 2")
	assert.Contains(t, text, "fov_mode: unscaled")
	assert.Contains(t, text, "rotation_mode: matrix")
	assert.Contains(t, text, "position: [-2, -3, 1]")

	sheet, err := ReadSheet(&buf)
	require.NoError(t, err)
	assert.Equal(t, 30.0, sheet.FrameRate)
	assert.Equal(t, 800.0, sheet.Width)
	assert.Equal(t, result.Frames, sheet.Frames())
}

// TestSheet_ReadInvalid tests decoding errors
func TestSheet_ReadInvalid(t *testing.T) {
	_, err := ReadSheet(strings.NewReader("keyframes: [1, 2"))
	assert.Error(t, err)
}
