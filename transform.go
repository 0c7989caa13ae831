package camio

import (
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/teranos/camio/trip"
)

// RotationMode selects how engine angles become host rotations.
type RotationMode int

const (
	// RotationAuto picks the mode from the declared CamIO version.
	RotationAuto RotationMode = iota
	// RotationMatrix composes the engine rotation and decomposes it into a
	// single camera orientation.
	RotationMatrix
	// RotationDirect passes angles through with sign and axis remapping,
	// spread over a two-null proxy rig.
	RotationDirect
)

func (m RotationMode) String() string {
	switch m {
	case RotationAuto:
		return "auto"
	case RotationMatrix:
		return "matrix"
	case RotationDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// ParseRotationMode accepts "auto", "matrix" or "direct".
func ParseRotationMode(s string) (RotationMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return RotationAuto, nil
	case "matrix":
		return RotationMatrix, nil
	case "direct", "proxy":
		return RotationDirect, nil
	default:
		return RotationAuto, fmt.Errorf("unknown rotation mode %q", s)
	}
}

// ModeForVersion returns the rotation layout used by a CamIO version.
// Version 1 files were imported onto the proxy rig; later ones onto a single
// camera orientation.
func ModeForVersion(version int) RotationMode {
	if version <= 1 {
		return RotationDirect
	}
	return RotationMatrix
}

// Resolve turns RotationAuto into a concrete mode for version.
func (m RotationMode) Resolve(version int) RotationMode {
	if m == RotationAuto {
		return ModeForVersion(version)
	}
	return m
}

// Params describes the target composition.
type Params struct {
	FrameRate    float64 // frames per second
	Duration     float64 // seconds; frames at or past it are dropped, 0 keeps none, +Inf keeps all
	FrameWidth   float64 // pixels
	FrameHeight  float64 // pixels
	NativeAspect float64 // aspect ratio unscaled FOVs refer to
}

// DefaultParams targets a 1080p, 30 fps composition with no duration limit.
func DefaultParams() Params {
	return Params{
		FrameRate:    30,
		Duration:     math.Inf(1),
		FrameWidth:   1920,
		FrameHeight:  1080,
		NativeAspect: DefaultNativeAspect,
	}
}

// Validate rejects parameters the transform cannot use. Duration may be 0
// (no frames) or +Inf (every frame); everything else must be positive and
// finite.
func (p Params) Validate() error {
	checks := []struct {
		name  string
		value float64
	}{
		{"frame_rate", p.FrameRate},
		{"duration", p.Duration},
		{"frame_width", p.FrameWidth},
		{"frame_height", p.FrameHeight},
		{"native_aspect", p.NativeAspect},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || c.value < 0 {
			return trip.InvalidParams(c.name, c.value)
		}
		if c.name == "duration" {
			continue
		}
		if c.value == 0 || math.IsInf(c.value, 1) {
			return trip.InvalidParams(c.name, c.value)
		}
	}
	return nil
}

// AspectCorrection is the ratio of the frame's aspect to the native one.
func (p Params) AspectCorrection() float64 {
	return (p.FrameWidth / p.FrameHeight) / p.NativeAspect
}

// OutputFrame is one host keyframe.
type OutputFrame struct {
	Index    int       // source frame index
	Time     float64   // seconds, Index / FrameRate
	Position r3.Vector // host units, Y down
	Rotation r3.Vector // degrees for the host's X, Y and Z rotation fields
	Zoom     float64   // FOV-equivalent zoom for the frame width
}

// ProxyRig splits a direct-mode keyframe across the two null layers. The
// camera sits at the inner null's origin.
type ProxyRig struct {
	Outer OuterNode
	Inner InnerNode
}

// OuterNode carries the translation and the Y rotation.
type OuterNode struct {
	Position  r3.Vector
	YRotation float64
}

// InnerNode is parented to the outer node and carries X and Z rotation.
type InnerNode struct {
	XRotation float64
	ZRotation float64
}

// ProxyRig returns the frame distributed over the proxy rig.
func (f OutputFrame) ProxyRig() ProxyRig {
	return ProxyRig{
		Outer: OuterNode{Position: f.Position, YRotation: f.Rotation.Y},
		Inner: InnerNode{XRotation: f.Rotation.X, ZRotation: f.Rotation.Z},
	}
}

// HostPosition maps engine coordinates (Z up) to host coordinates (Y down,
// Z into the screen).
func HostPosition(f RawFrame) r3.Vector {
	return r3.Vector{X: -f.Y, Y: -f.Z, Z: f.X}
}

// DirectRotation remaps angles without composing a matrix.
func DirectRotation(f RawFrame) r3.Vector {
	return r3.Vector{X: -f.Pitch, Y: -f.Heading, Z: f.Roll}
}

// MatrixRotation composes the engine rotation and decomposes it in host order.
func MatrixRotation(f RawFrame) r3.Vector {
	_, rotation := matrixRotation(f)
	return rotation
}

// matrixRotation also returns the composed matrix for the gimbal check.
func matrixRotation(f RawFrame) (Mat3, r3.Vector) {
	m := EngineRotation(f.Roll, f.Pitch, f.Heading)
	pitch, bank, heading := m.DecomposePHB()
	return m, r3.Vector{X: -pitch, Y: -heading, Z: bank}
}

// Transformer converts raw frames into host keyframes.
//
// A Transformer holds no state between calls; the optional handler only
// receives per-frame warnings.
type Transformer struct {
	params  Params
	mode    RotationMode
	handler *trip.Handler
}

// NewTransformer creates a transformer for a composition.
func NewTransformer(params Params, mode RotationMode) *Transformer {
	return &Transformer{params: params, mode: mode}
}

// WithHandler routes gimbal-lock warnings to h.
func (t *Transformer) WithHandler(h *trip.Handler) *Transformer {
	t.handler = h
	return t
}

// Transform maps every frame whose time lies before the composition's
// duration. Params are assumed valid.
func (t *Transformer) Transform(header Header, frames []RawFrame) []OutputFrame {
	mode := t.mode.Resolve(header.Version)
	ratio := t.params.AspectCorrection()

	out := make([]OutputFrame, 0, len(frames))
	for i, f := range frames {
		at := float64(i) / t.params.FrameRate
		if at >= t.params.Duration {
			break
		}

		var rotation r3.Vector
		if mode == RotationDirect {
			rotation = DirectRotation(f)
		} else {
			var m Mat3
			m, rotation = matrixRotation(f)
			if t.handler != nil && m.nearGimbalLock() {
				t.handler.Record(trip.GimbalLock(i))
			}
		}

		fov := f.FOV
		if header.FOVMode == FOVUnscaled {
			fov = UnscaleFOV(fov, ratio)
		}

		out = append(out, OutputFrame{
			Index:    i,
			Time:     at,
			Position: HostPosition(f),
			Rotation: rotation,
			Zoom:     ZoomFromFOV(fov, t.params.FrameWidth),
		})
	}

	return out
}

// CheckFinite returns a trip.NonFiniteKind error for the first keyframe
// component that is infinite or NaN. A recorded fov of 0 gives an infinite
// zoom, which formats such as JSON cannot carry.
func CheckFinite(frames []OutputFrame) error {
	for _, f := range frames {
		fields := []struct {
			name  string
			value float64
		}{
			{"time", f.Time},
			{"position.x", f.Position.X},
			{"position.y", f.Position.Y},
			{"position.z", f.Position.Z},
			{"rotation.x", f.Rotation.X},
			{"rotation.y", f.Rotation.Y},
			{"rotation.z", f.Rotation.Z},
			{"zoom", f.Zoom},
		}
		for _, c := range fields {
			if math.IsInf(c.value, 0) || math.IsNaN(c.value) {
				return trip.NonFiniteKeyframe(f.Index, c.name, c.value)
			}
		}
	}
	return nil
}
