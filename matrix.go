package camio

import "math"

// Mat3 is a row-major 3x3 rotation matrix.
type Mat3 [3][3]float64

// Identity returns the identity matrix.
func Identity() Mat3 {
	return Mat3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// Mul returns m·o, so m is applied after o.
func (m Mat3) Mul(o Mat3) Mat3 {
	var out Mat3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			for k := 0; k < 3; k++ {
				out[i][j] += m[i][k] * o[k][j]
			}
		}
	}
	return out
}

// RotX rotates about the X axis by angle radians.
func RotX(angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat3{
		{1, 0, 0},
		{0, c, -s},
		{0, s, c},
	}
}

// RotY rotates about the Y axis by angle radians.
func RotY(angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat3{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

// RotZ rotates about the Z axis by angle radians.
func RotZ(angle float64) Mat3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Mat3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

// EngineRotation composes the game camera orientation from degrees, roll
// about X first, then pitch about Y, then heading about Z:
// R = Rz(heading)·Ry(pitch)·Rx(roll).
func EngineRotation(roll, pitch, heading float64) Mat3 {
	r := RotX(degToRad(roll))
	r = RotY(degToRad(pitch)).Mul(r)
	r = RotZ(degToRad(heading)).Mul(r)
	return r
}

// DecomposePHB splits m into the host's pitch-heading-bank order and
// returns the three angles in degrees. There is no gimbal-lock branch: near
// the singularity the angles are whatever atan2 yields.
func (m Mat3) DecomposePHB() (pitch, bank, heading float64) {
	pitch = radToDeg(math.Atan2(-m[2][0], m[0][0]))
	bank = radToDeg(math.Atan2(-m[1][2], m[1][1]))
	r31, r11 := m[2][0], m[0][0]
	heading = radToDeg(math.Atan2(m[1][0], math.Sqrt(r31*r31+r11*r11)))
	return pitch, bank, heading
}

// nearGimbalLock reports whether the heading term's cosine has collapsed,
// which leaves pitch and bank coupled.
func (m Mat3) nearGimbalLock() bool {
	r31, r11 := m[2][0], m[0][0]
	return math.Sqrt(r31*r31+r11*r11) < gimbalEpsilon
}

const gimbalEpsilon = 1e-6

func degToRad(angle float64) float64 {
	return angle * math.Pi / 180
}

func radToDeg(angle float64) float64 {
	return angle * 180 / math.Pi
}
