package camio

import (
	"fmt"
	"io"

	"github.com/golang/geo/r3"
	"gopkg.in/yaml.v3"
)

// Sheet is a portable dump of a conversion: enough to rebuild the keyframes
// without the source file, and the format baselines are stored in.
type Sheet struct {
	CamIOVersion int        `yaml:"camio_version" json:"camio_version"`
	FOVMode      string     `yaml:"fov_mode" json:"fov_mode"`
	RotationMode string     `yaml:"rotation_mode" json:"rotation_mode"`
	FrameRate    float64    `yaml:"frame_rate" json:"frame_rate"`
	Width        float64    `yaml:"width" json:"width"`
	Height       float64    `yaml:"height" json:"height"`
	Keyframes    []Keyframe `yaml:"keyframes" json:"keyframes"`
}

// Keyframe is one OutputFrame in sheet form.
type Keyframe struct {
	Index    int        `yaml:"index" json:"index"`
	Time     float64    `yaml:"time" json:"time"`
	Position [3]float64 `yaml:"position,flow" json:"position"`
	Rotation [3]float64 `yaml:"rotation,flow" json:"rotation"`
	Zoom     float64    `yaml:"zoom" json:"zoom"`
}

// NewSheet captures a result.
func NewSheet(res *Result) Sheet {
	sheet := Sheet{
		CamIOVersion: res.Header.Version,
		FOVMode:      res.Header.FOVMode.String(),
		RotationMode: res.Mode.String(),
		FrameRate:    res.Params.FrameRate,
		Width:        res.Params.FrameWidth,
		Height:       res.Params.FrameHeight,
		Keyframes:    make([]Keyframe, len(res.Frames)),
	}
	for i, f := range res.Frames {
		sheet.Keyframes[i] = Keyframe{
			Index:    f.Index,
			Time:     f.Time,
			Position: [3]float64{f.Position.X, f.Position.Y, f.Position.Z},
			Rotation: [3]float64{f.Rotation.X, f.Rotation.Y, f.Rotation.Z},
			Zoom:     f.Zoom,
		}
	}
	return sheet
}

// Frames rebuilds the output frames.
func (s Sheet) Frames() []OutputFrame {
	frames := make([]OutputFrame, len(s.Keyframes))
	for i, k := range s.Keyframes {
		frames[i] = OutputFrame{
			Index:    k.Index,
			Time:     k.Time,
			Position: r3.Vector{X: k.Position[0], Y: k.Position[1], Z: k.Position[2]},
			Rotation: r3.Vector{X: k.Rotation[0], Y: k.Rotation[1], Z: k.Rotation[2]},
			Zoom:     k.Zoom,
		}
	}
	return frames
}

// WriteSheet encodes res as YAML.
func WriteSheet(w io.Writer, res *Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewSheet(res)); err != nil {
		return fmt.Errorf("failed to encode keyframe sheet: %w", err)
	}
	return enc.Close()
}

// ReadSheet decodes a YAML sheet.
func ReadSheet(r io.Reader) (Sheet, error) {
	var sheet Sheet
	if err := yaml.NewDecoder(r).Decode(&sheet); err != nil {
		return Sheet{}, fmt.Errorf("failed to decode keyframe sheet: %w", err)
	}
	return sheet, nil
}
