package camio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// Supervisor checks conversions against stored baseline sheets, so changes
// to the transform can be replayed against known-good imports.
type Supervisor struct {
	baselineDir string
	tolerance   float64 // Absolute difference allowed per component
}

// NewSupervisor creates a validator reading baselines from baselineDir.
func NewSupervisor(baselineDir string) *Supervisor {
	return &Supervisor{
		baselineDir: baselineDir,
		tolerance:   1e-6,
	}
}

// WithTolerance sets the allowed absolute difference.
func (ss *Supervisor) WithTolerance(tolerance float64) *Supervisor {
	ss.tolerance = tolerance
	return ss
}

// Divergence describes the first keyframe component that differs.
type Divergence struct {
	Frame    int
	Field    string
	Baseline float64
	Current  float64
}

func (d *Divergence) Error() string {
	return fmt.Sprintf("keyframe regression detected: frame %d %s is %v, baseline %v",
		d.Frame, d.Field, d.Current, d.Baseline)
}

func (ss *Supervisor) baselinePath(name string) string {
	return filepath.Join(ss.baselineDir, name+".yaml")
}

// ValidateConsistency compares res with the baseline stored under name.
func (ss *Supervisor) ValidateConsistency(name string, res *Result) error {
	file, err := os.Open(ss.baselinePath(name))
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}
	defer file.Close()

	baseline, err := ReadSheet(file)
	if err != nil {
		return fmt.Errorf("failed to load baseline: %w", err)
	}

	if baseline.RotationMode != res.Mode.String() {
		return fmt.Errorf("keyframe regression detected: rotation mode %s, baseline %s",
			res.Mode, baseline.RotationMode)
	}

	return ss.Compare(baseline.Frames(), res.Frames)
}

// Compare returns nil when both sequences match within tolerance, otherwise
// a *Divergence or a count mismatch error.
func (ss *Supervisor) Compare(baseline, current []OutputFrame) error {
	if len(baseline) != len(current) {
		return fmt.Errorf("keyframe regression detected: %d keyframes, baseline has %d",
			len(current), len(baseline))
	}

	for i := range baseline {
		b, c := baseline[i], current[i]
		fields := []struct {
			name string
			b, c float64
		}{
			{"time", b.Time, c.Time},
			{"position.x", b.Position.X, c.Position.X},
			{"position.y", b.Position.Y, c.Position.Y},
			{"position.z", b.Position.Z, c.Position.Z},
			{"rotation.x", b.Rotation.X, c.Rotation.X},
			{"rotation.y", b.Rotation.Y, c.Rotation.Y},
			{"rotation.z", b.Rotation.Z, c.Rotation.Z},
			{"zoom", b.Zoom, c.Zoom},
		}
		for _, f := range fields {
			if math.Abs(f.b-f.c) > ss.tolerance || math.IsNaN(f.c) {
				return &Divergence{Frame: i, Field: f.name, Baseline: f.b, Current: f.c}
			}
		}
	}

	return nil
}

// SetBaseline stores res as the baseline for name.
func (ss *Supervisor) SetBaseline(name string, res *Result) error {
	if err := os.MkdirAll(ss.baselineDir, 0755); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}

	file, err := os.Create(ss.baselinePath(name))
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteSheet(file, res)
}
