package camio

import "math"

// DefaultNativeAspect is the aspect ratio unscaled FOVs were recorded for.
const DefaultNativeAspect = 4.0 / 3.0

// UnscaleFOV corrects a 4:3 horizontal FOV (degrees) for a frame whose
// aspect ratio differs from the native one by ratio.
//
// The tangent goes through a degree/radian round trip before atan. Output
// must match reference imports made with this exact sequence.
func UnscaleFOV(fov, ratio float64) float64 {
	f := fov / 2
	f = degToRad(f)
	f = math.Tan(f)
	f = radToDeg(f) * ratio
	f = math.Atan(degToRad(f))
	return radToDeg(f) * 2
}

// ZoomFromFOV converts a horizontal FOV in degrees to the host's zoom value,
// the focal distance in pixels for a frame width pixels wide.
func ZoomFromFOV(fov, width float64) float64 {
	return width / (2 * math.Tan(degToRad(fov/2)))
}
