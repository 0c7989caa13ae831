// Package trip provides error handling for camio conversions.
//
// The trip package keeps the stumbling metaphor: a conversion that hits a
// recoverable condition "stumbles" and may continue, while a conversion that
// "falls" must abort with no output.
package trip

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind categorizes what went wrong during a conversion.
type Kind string

const (
	InvalidFormatKind      Kind = "invalid_format"
	UnsupportedVersionKind Kind = "unsupported_version"
	MalformedFrameKind     Kind = "malformed_frame"
	InvalidNumericKind     Kind = "invalid_numeric_field"
	EmptyInputKind         Kind = "empty_input"
	IOFailureKind          Kind = "io_failure"
	InvalidParamsKind      Kind = "invalid_params"
	GimbalLockKind         Kind = "gimbal_lock"
	NonFiniteKind          Kind = "non_finite_keyframe"
)

// Context keys shared by the constructors below.
const (
	KeyLine      = "line"
	KeyFrame     = "frame"
	KeyField     = "field"
	KeyToken     = "token"
	KeyFields    = "fields"
	KeyDeclared  = "declared"
	KeySupported = "supported"
	KeyValue     = "value"
)

// Trip represents a conversion error with rich context.
//
// Error kinds:
//   - "invalid_format": bad magic line, missing version or DATA sentinel
//   - "unsupported_version": file declares a newer CamIO version (recoverable)
//   - "malformed_frame": a data line has too few fields
//   - "invalid_numeric_field": a data field is not a finite number
//   - "empty_input", "io_failure": the stream could not be read
//   - "invalid_params": conversion parameters are unusable
//   - "gimbal_lock": a frame decomposed near the singularity (warning)
//   - "non_finite_keyframe": a keyframe value is infinite, e.g. zoom for fov 0
//
// Example usage:
//
//	_, err := camio.Convert(r, params)
//	if t, ok := trip.As(err); ok && t.CanRecover() {
//	    // ask the user, then convert again with AllowNewerVersion(true)
//	}
type Trip struct {
	Kind     Kind     // Error category for systematic handling
	Message  string   // Human-readable description
	Context  Context  // Additional debugging information
	Severity Severity // How serious this error is
	cause    error
}

// Context provides structured debugging information for trips.
type Context map[string]interface{}

// Severity indicates how serious a trip is and how it should be handled.
type Severity int

const (
	// Stumble indicates a condition the caller may choose to continue past.
	// Examples: a newer declared version, a frame near gimbal lock
	Stumble Severity = iota

	// Fall indicates the conversion must abort with zero output.
	Fall
)

func (s Severity) String() string {
	switch s {
	case Stumble:
		return "stumble"
	case Fall:
		return "fall"
	default:
		return "unknown"
	}
}

// NewFall creates a new trip with Fall severity.
func NewFall(kind Kind, message string, context Context) *Trip {
	return &Trip{
		Kind:     kind,
		Message:  message,
		Context:  context,
		Severity: Fall,
	}
}

// NewStumble creates a new trip with Stumble severity.
func NewStumble(kind Kind, message string, context Context) *Trip {
	return &Trip{
		Kind:     kind,
		Message:  message,
		Context:  context,
		Severity: Stumble,
	}
}

// InvalidFormat reports a file that is not a usable CamIO file.
func InvalidFormat(message string, line int) *Trip {
	return NewFall(InvalidFormatKind, message, Context{KeyLine: line})
}

// UnsupportedVersion reports a declared version above the supported maximum.
func UnsupportedVersion(declared, supported int) *Trip {
	return NewStumble(UnsupportedVersionKind,
		fmt.Sprintf("CamIO file is version %d, supported versions are %d and lower", declared, supported),
		Context{KeyDeclared: declared, KeySupported: supported})
}

// MalformedFrame reports a data line with the wrong number of fields.
func MalformedFrame(line, fields int) *Trip {
	return NewFall(MalformedFrameKind,
		fmt.Sprintf("line %d: expected 8 fields, got %d", line, fields),
		Context{KeyLine: line, KeyFields: fields})
}

// InvalidNumericField reports a data field that is not a finite number.
func InvalidNumericField(frame int, field string, line int, token string) *Trip {
	return NewFall(InvalidNumericKind,
		fmt.Sprintf("frame %d: field %s is not a number: %q", frame, field, token),
		Context{KeyFrame: frame, KeyField: field, KeyLine: line, KeyToken: token})
}

// EmptyInput reports a stream with no content at all.
func EmptyInput() *Trip {
	return NewFall(EmptyInputKind, "input stream is empty", nil)
}

// IOFailure wraps a read error.
func IOFailure(err error) *Trip {
	t := NewFall(IOFailureKind, "could not read input stream: "+err.Error(), nil)
	t.cause = err
	return t
}

// InvalidParams reports an unusable conversion parameter.
func InvalidParams(field string, value float64) *Trip {
	return NewFall(InvalidParamsKind,
		fmt.Sprintf("parameter %s must be a positive number, got %v", field, value),
		Context{KeyField: field, KeyValue: value})
}

// GimbalLock warns that a frame's rotation decomposed near the singularity.
func GimbalLock(frame int) *Trip {
	return NewStumble(GimbalLockKind,
		fmt.Sprintf("frame %d: rotation is near gimbal lock, heading and roll are coupled", frame),
		Context{KeyFrame: frame})
}

// NonFiniteKeyframe reports a keyframe component a finite-only format cannot
// carry.
func NonFiniteKeyframe(frame int, field string, value float64) *Trip {
	return NewFall(NonFiniteKind,
		fmt.Sprintf("frame %d: %s is %v", frame, field, value),
		Context{KeyFrame: frame, KeyField: field, KeyValue: fmt.Sprint(value)})
}

// WithSeverity sets the severity level for this error.
func (t *Trip) WithSeverity(severity Severity) *Trip {
	t.Severity = severity
	return t
}

// Error implements the error interface.
func (t *Trip) Error() string {
	return fmt.Sprintf("[%s:%s] %s", t.Kind, t.Severity, t.Message)
}

// Unwrap returns the underlying cause, if any.
func (t *Trip) Unwrap() error {
	return t.cause
}

// CanRecover returns true if the conversion may continue despite this error.
func (t *Trip) CanRecover() bool {
	return t.Severity == Stumble
}

// IsFall returns true if this error must abort the conversion.
func (t *Trip) IsFall() bool {
	return t.Severity == Fall
}

// GetContext returns a specific context value if it exists.
func (t *Trip) GetContext(key string) (interface{}, bool) {
	if t.Context == nil {
		return nil, false
	}
	val, exists := t.Context[key]
	return val, exists
}

// Int returns an integer context value, or -1 when absent.
func (t *Trip) Int(key string) int {
	if v, ok := t.GetContext(key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	return -1
}

// String returns a string context value, or "" when absent.
func (t *Trip) String(key string) string {
	if v, ok := t.GetContext(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// DetailedString returns a comprehensive error description with context.
func (t *Trip) DetailedString() string {
	var details strings.Builder

	details.WriteString(t.Error())

	if len(t.Context) > 0 {
		keys := make([]string, 0, len(t.Context))
		for key := range t.Context {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		details.WriteString("\n  Context:")
		for _, key := range keys {
			details.WriteString(fmt.Sprintf("\n    %s: %v", key, t.Context[key]))
		}
	}

	return details.String()
}

// As extracts a *Trip from an error chain.
func As(err error) (*Trip, bool) {
	var t *Trip
	if errors.As(err, &t) {
		return t, true
	}
	return nil, false
}

// KindOf returns the kind of the first trip in an error chain.
func KindOf(err error) (Kind, bool) {
	if t, ok := As(err); ok {
		return t.Kind, true
	}
	return "", false
}

// Is reports whether err carries a trip of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// Handler collects warnings raised while a single conversion runs. Falls
// are returned as errors and never reach a handler.
//
// Stumbles are kept in order up to the policy limit; further stumbles are
// counted but not stored so a long gimbal-heavy take cannot flood a report.
type Handler struct {
	component string  // Component name (e.g., "reader", "transformer")
	stumbles  []*Trip // Collected stumbles in chronological order
	dropped   int     // Stumbles beyond the policy limit
	policy    *Policy
}

// Policy defines how many warnings a handler retains.
type Policy struct {
	// MaxStumbles caps the stored stumbles; zero or less keeps them all
	MaxStumbles int
}

// DefaultPolicy returns the default warning policy.
func DefaultPolicy() *Policy {
	return &Policy{MaxStumbles: 100}
}

// NewHandler creates a new warning handler for a specific component.
func NewHandler(component string, policy *Policy) *Handler {
	if policy == nil {
		policy = DefaultPolicy()
	}

	return &Handler{
		component: component,
		stumbles:  make([]*Trip, 0),
		policy:    policy,
	}
}

// Record adds a stumble to the handler's collection.
func (h *Handler) Record(trip *Trip) {
	if h.policy.MaxStumbles > 0 && len(h.stumbles) >= h.policy.MaxStumbles {
		h.dropped++
		return
	}
	h.stumbles = append(h.stumbles, trip)
}

// HasStumbles returns true if any stumbles have been recorded.
func (h *Handler) HasStumbles() bool {
	return len(h.stumbles) > 0 || h.dropped > 0
}

// GetStumbles returns the retained stumbles.
func (h *Handler) GetStumbles() []*Trip {
	return h.stumbles
}

// Dropped returns how many stumbles exceeded the policy limit.
func (h *Handler) Dropped() int {
	return h.dropped
}

// Summary provides a one-line overview of the recorded stumbles.
func (h *Handler) Summary() string {
	stumbles := len(h.stumbles) + h.dropped
	if stumbles == 0 {
		return fmt.Sprintf("[%s] No issues during conversion", h.component)
	}

	return fmt.Sprintf("[%s] %d stumbles", h.component, stumbles)
}

// DetailedReport lists every retained stumble with its context.
func (h *Handler) DetailedReport() string {
	var report strings.Builder

	report.WriteString(fmt.Sprintf("=== %s Component Report ===\n", h.component))
	report.WriteString(h.Summary() + "\n")

	if len(h.stumbles) > 0 {
		report.WriteString("\nStumbles:\n")
		for i, stumble := range h.stumbles {
			report.WriteString(fmt.Sprintf("%d. %s\n", i+1, stumble.DetailedString()))
		}
		if h.dropped > 0 {
			report.WriteString(fmt.Sprintf("... and %d more\n", h.dropped))
		}
	}

	return report.String()
}
