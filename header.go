package camio

// MagicTag is the exact first line of every CamIO file.
const MagicTag = "advancedfx Cam"

// DataSentinel ends the header section.
const DataSentinel = "DATA"

// MaxSupportedVersion is the newest CamIO format version this package reads
// without asking the caller first.
const MaxSupportedVersion = 2

// FOVMode says whether the capture tool already scaled the field of view
// to the game's aspect ratio.
type FOVMode int

const (
	// FOVScaled means the recorded FOV can be used as-is.
	FOVScaled FOVMode = iota
	// FOVUnscaled means the FOV was recorded against a 4:3 frame and must be
	// corrected for the target frame's aspect ratio.
	FOVUnscaled
)

func (m FOVMode) String() string {
	switch m {
	case FOVScaled:
		return "scaled"
	case FOVUnscaled:
		return "unscaled"
	default:
		return "unknown"
	}
}

// Header holds the directives read before the DATA line.
type Header struct {
	Tag      string  // always MagicTag for a parsed file
	Version  int     // declared format version, -1 when absent
	FOVMode  FOVMode // derived from scaleFov
	ScaleFOV string  // raw scaleFov value, "" when absent
}

// directive enumerates the header keys the reader understands.
type directive int

const (
	directiveUnknown directive = iota
	directiveVersion
	directiveScaleFOV
)

func parseDirective(key string) directive {
	switch key {
	case "version":
		return directiveVersion
	case "scaleFov":
		return directiveScaleFOV
	default:
		return directiveUnknown
	}
}

// fovModeFor maps a scaleFov value to a mode. Only the literal "none" turns
// scaling off; every other value (alienSwarm, future names) means scaled.
func fovModeFor(value string) FOVMode {
	if value == "none" {
		return FOVUnscaled
	}
	return FOVScaled
}
