// Package camio converts recorded CamIO camera paths into host camera keyframes.
//
// A CamIO file is written by a game-capture tool: a short header, a DATA line,
// then one line per recorded frame with the engine camera's position, roll,
// pitch, heading and field of view. camio parses that text and maps every
// frame into the compositing host's coordinate frame, rotation order and zoom
// convention. Nothing here talks to the host; adapters such as the hostscript
// package write the resulting keyframes out.
//
// Basic usage:
//
//	params := camio.DefaultParams()
//	params.Duration = 12.5
//
//	frames, err := camio.Convert(file, params)
//	if err != nil {
//		return err
//	}
//
// For files newer than MaxSupportedVersion, ask first and convert again:
//
//	result, err := camio.NewConverter(params).Convert(bytes.NewReader(data))
//	if trip.Is(err, trip.UnsupportedVersionKind) && userAgrees() {
//		result, err = camio.NewConverter(params).
//			AllowNewerVersion(true).
//			Convert(bytes.NewReader(data))
//	}
package camio

import (
	"io"
	"log/slog"

	"github.com/teranos/camio/trip"
)

// Result is everything one conversion run produced.
type Result struct {
	Header   Header
	Mode     RotationMode // resolved, never RotationAuto
	Params   Params
	Frames   []OutputFrame
	Warnings []*trip.Trip // recoverable stumbles, in order
	Dropped  int          // warnings beyond the policy limit
	Summary  string       // one-line warning overview
	Report   string       // every retained warning with its context
}

// Converter runs the parse and transform pipeline with a fixed policy.
//
// Example usage:
//
//	result, err := camio.NewConverter(params).
//		WithRotationMode(camio.RotationMatrix).
//		WithLogger(logger).
//		Convert(r)
type Converter struct {
	params     Params
	mode       RotationMode
	maxVersion int
	allowNewer bool
	policy     *trip.Policy
	logger     *slog.Logger
}

// NewConverter creates a converter that rejects too-new files and picks the
// rotation mode from the file's version.
func NewConverter(params Params) *Converter {
	return &Converter{
		params:     params,
		mode:       RotationAuto,
		maxVersion: MaxSupportedVersion,
		policy:     trip.DefaultPolicy(),
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithRotationMode forces a rotation mode instead of the version default.
func (c *Converter) WithRotationMode(mode RotationMode) *Converter {
	c.mode = mode
	return c
}

// WithMaxVersion lowers or raises the newest version accepted unasked.
func (c *Converter) WithMaxVersion(version int) *Converter {
	c.maxVersion = version
	return c
}

// AllowNewerVersion continues past a too-new declared version. The result
// then carries the unsupported_version stumble as a warning.
func (c *Converter) AllowNewerVersion(allow bool) *Converter {
	c.allowNewer = allow
	return c
}

// WithPolicy sets the warning retention policy.
func (c *Converter) WithPolicy(policy *trip.Policy) *Converter {
	if policy != nil {
		c.policy = policy
	}
	return c
}

// WithLogger sets the logger; the default discards everything.
func (c *Converter) WithLogger(logger *slog.Logger) *Converter {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// MaxVersion returns the newest version accepted without confirmation.
func (c *Converter) MaxVersion() int {
	return c.maxVersion
}

// Convert parses r and transforms its frames. Fatal errors return a nil
// result; an unsupported version returns a recoverable trip.
func (c *Converter) Convert(r io.Reader) (*Result, error) {
	if err := c.params.Validate(); err != nil {
		return nil, err
	}

	handler := trip.NewHandler("camio", c.policy)

	header, raw, err := Parse(r, ReadOptions{MaxVersion: c.maxVersion, AllowNewerVersion: c.allowNewer})
	if err != nil {
		c.logger.Debug("camio parse failed", "error", err)
		return nil, err
	}
	if header.Version > c.maxVersion {
		handler.Record(trip.UnsupportedVersion(header.Version, c.maxVersion))
	}

	mode := c.mode.Resolve(header.Version)
	c.logger.Debug("camio header",
		"version", header.Version,
		"fov_mode", header.FOVMode.String(),
		"rotation_mode", mode.String(),
		"raw_frames", len(raw),
	)

	frames := NewTransformer(c.params, mode).WithHandler(handler).Transform(header, raw)

	c.logger.Info("camio converted",
		"frames", len(frames),
		"truncated", len(raw)-len(frames),
		"warnings", len(handler.GetStumbles())+handler.Dropped(),
	)

	return &Result{
		Header:   header,
		Mode:     mode,
		Params:   c.params,
		Frames:   frames,
		Warnings: handler.GetStumbles(),
		Dropped:  handler.Dropped(),
		Summary:  handler.Summary(),
		Report:   handler.DetailedReport(),
	}, nil
}

// Convert runs a conversion that rejects files newer than MaxSupportedVersion.
func Convert(r io.Reader, params Params) ([]OutputFrame, error) {
	result, err := NewConverter(params).Convert(r)
	if err != nil {
		return nil, err
	}
	return result.Frames, nil
}
