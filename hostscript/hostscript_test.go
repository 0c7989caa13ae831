package hostscript

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teranos/camio"
)

const take = `advancedfx Cam
version %s
scaleFov none
DATA
0 1 2 3 0 0 0 90
1 4 5 6 0 10 20 90
`

func convert(t *testing.T, version string, mode camio.RotationMode) *camio.Result {
	t.Helper()
	params := camio.DefaultParams()
	params.FrameWidth, params.FrameHeight = 800, 600

	res, err := camio.NewConverter(params).
		WithRotationMode(mode).
		Convert(strings.NewReader(strings.Replace(take, "%s", version, 1)))
	require.NoError(t, err)
	return res
}

func generate(t *testing.T, res *camio.Result, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, res, opts))
	return buf.String()
}

// TestGenerate_MatrixMode tests the single camera layout
func TestGenerate_MatrixMode(t *testing.T) {
	script := generate(t, convert(t, "2", camio.RotationAuto), DefaultOptions())

	assert.Contains(t, script, `app.beginUndoGroup("HLAE CamIO Import");`)
	assert.Contains(t, script, `comp.layers.addCamera("HLAE CamIO Camera", [0, 0]);`)
	assert.Contains(t, script, "AutoOrientType.NO_AUTO_ORIENT")
	assert.Contains(t, script, "var times = [0, 0.03333333333333333];")
	assert.Contains(t, script, "camera.transform.position.setValuesAtTimes(times, [[-2, -3, 1], [-5, -6, 4]]);")
	assert.Contains(t, script, "camera.transform.orientation.setValuesAtTimes(times, [[0, 0, 0], ")
	assert.Contains(t, script, "camera.cameraOption.zoom.setValuesAtTimes(times, [")
	assert.Contains(t, script, "Successfully imported camera with 2 frames.")
	assert.NotContains(t, script, ProxyXZName)
	assert.NotContains(t, script, "comp.width <")
}

// TestGenerate_DirectMode tests the two-null proxy rig
func TestGenerate_DirectMode(t *testing.T) {
	script := generate(t, convert(t, "1", camio.RotationAuto), DefaultOptions())

	assert.Contains(t, script, `xz.name = "HLAE CamIO XZ";`)
	assert.Contains(t, script, `y.name = "HLAE CamIO Y";`)
	assert.Contains(t, script, "camera.parent = xz;")
	assert.Contains(t, script, "xz.parent = y;")
	assert.Contains(t, script, "y.transform.position.setValuesAtTimes(times, [[-2, -3, 1], [-5, -6, 4]]);")
	assert.Contains(t, script, "xz.transform.xRotation.setValuesAtTimes(times, [0, -10]);")
	assert.Contains(t, script, "y.transform.yRotation.setValuesAtTimes(times, [0, -20]);")
	assert.Contains(t, script, "xz.transform.zRotation.setValuesAtTimes(times, [0, 0]);")
	assert.NotContains(t, script, "orientation")
}

// TestGenerate_Options tests camera naming and the width guard
func TestGenerate_Options(t *testing.T) {
	res := convert(t, "2", camio.RotationMatrix)

	script := generate(t, res, Options{CameraName: `Take "B"`, MinCompWidth: 800})
	assert.Contains(t, script, `addCamera("Take \"B\"", [0, 0])`)
	assert.Contains(t, script, "if (comp.width < 800) {")

	script = generate(t, res, Options{})
	assert.Contains(t, script, DefaultCameraName)
	assert.NotContains(t, script, "comp.width <")
}

// TestGenerate_EmptyResult tests a take truncated to nothing
func TestGenerate_EmptyResult(t *testing.T) {
	res := &camio.Result{Mode: camio.RotationMatrix}

	script := generate(t, res, DefaultOptions())
	assert.Contains(t, script, "var times = [];")
	assert.Contains(t, script, "with 0 frames.")
}

// TestGenerate_UnresolvedMode tests that auto mode is rejected
func TestGenerate_UnresolvedMode(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(&buf, &camio.Result{Mode: camio.RotationAuto}, DefaultOptions())
	assert.Error(t, err)
	assert.Zero(t, buf.Len())
}

// TestGenerate_ZeroFOV tests that an infinite zoom is written as a JavaScript literal
func TestGenerate_ZeroFOV(t *testing.T) {
	res, err := camio.NewConverter(camio.DefaultParams()).
		Convert(strings.NewReader("advancedfx Cam\nversion 2\nDATA\n0 1 2 3 10 20 30 0\n"))
	require.NoError(t, err)
	require.True(t, math.IsInf(res.Frames[0].Zoom, 1))

	script := generate(t, res, DefaultOptions())
	assert.Contains(t, script, "camera.cameraOption.zoom.setValuesAtTimes(times, [Infinity]);")
	assert.NotContains(t, script, "+Inf")
}

// TestNumber tests JavaScript literals for special values
func TestNumber(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{1.5, "1.5"},
		{math.Copysign(0, -1), "0"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, number(tc.in))
	}
}
