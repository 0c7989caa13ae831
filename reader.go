package camio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/teranos/camio/trip"
)

// frameFields names data columns 1..7; column 0 is the per-line label.
var frameFields = [...]string{"x", "y", "z", "roll", "pitch", "heading", "fov"}

// RawFrame is one DATA line exactly as recorded by the capture tool.
//
// Positions are engine units, angles are degrees. Label is the first column,
// kept verbatim because some tool versions write non-numeric labels there.
type RawFrame struct {
	Label   string
	X       float64
	Y       float64
	Z       float64
	Roll    float64
	Pitch   float64
	Heading float64
	FOV     float64
	Line    int // 1-based source line
}

// ReadOptions controls how strictly the header is checked.
type ReadOptions struct {
	// MaxVersion is the newest declared version accepted without confirmation
	MaxVersion int
	// AllowNewerVersion continues past a too-new version instead of failing
	AllowNewerVersion bool
}

// DefaultReadOptions rejects versions above MaxSupportedVersion.
func DefaultReadOptions() ReadOptions {
	return ReadOptions{MaxVersion: MaxSupportedVersion}
}

// Parse reads a CamIO stream into its header and frame records.
//
// On a declared version above opts.MaxVersion, Parse returns the header it
// read together with a recoverable trip.UnsupportedVersionKind error and no
// frames, unless opts.AllowNewerVersion is set. Every other error is fatal and
// comes with no frames at all.
func Parse(r io.Reader, opts ReadOptions) (Header, []RawFrame, error) {
	lr := &lineReader{br: bufio.NewReader(r)}

	header, err := lr.readHeader()
	if err != nil {
		return Header{}, nil, err
	}

	if header.Version > opts.MaxVersion && !opts.AllowNewerVersion {
		return header, nil, trip.UnsupportedVersion(header.Version, opts.MaxVersion)
	}

	frames, err := lr.readFrames()
	if err != nil {
		return Header{}, nil, err
	}
	return header, frames, nil
}

// lineReader yields lines with their 1-based numbers. A "\r" before the
// newline belongs to the terminator; all other whitespace is content.
type lineReader struct {
	br    *bufio.Reader
	line  int
	bytes int64
}

func (lr *lineReader) next() (string, bool, error) {
	s, err := lr.br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", false, trip.IOFailure(errors.Wrapf(err, "reading line %d", lr.line+1))
	}
	if err == io.EOF && s == "" {
		return "", false, nil
	}
	lr.line++
	lr.bytes += int64(len(s))
	s = strings.TrimSuffix(s, "\n")
	s = strings.TrimSuffix(s, "\r")
	return s, true, nil
}

func (lr *lineReader) readHeader() (Header, error) {
	header := Header{Version: -1, FOVMode: FOVScaled}

	for {
		line, ok, err := lr.next()
		if err != nil {
			return header, err
		}
		if !ok {
			if lr.bytes == 0 {
				return header, trip.EmptyInput()
			}
			return header, trip.InvalidFormat("no "+MagicTag+" line found", lr.line)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line != MagicTag {
			return header, trip.InvalidFormat(fmt.Sprintf("line %d: expected %q, not a CamIO file", lr.line, MagicTag), lr.line)
		}
		header.Tag = line
		break
	}

	for {
		line, ok, err := lr.next()
		if err != nil {
			return header, err
		}
		if !ok {
			return header, trip.InvalidFormat("header is not terminated by "+DataSentinel, lr.line)
		}
		if line == DataSentinel {
			break
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		tokens := strings.Split(line, " ")
		value := ""
		if len(tokens) > 1 {
			value = tokens[1]
		}

		switch parseDirective(tokens[0]) {
		case directiveVersion:
			version, err := strconv.Atoi(value)
			if err != nil || version < 0 {
				return header, trip.InvalidFormat(fmt.Sprintf("line %d: invalid version %q", lr.line, value), lr.line)
			}
			header.Version = version
		case directiveScaleFOV:
			header.ScaleFOV = value
			header.FOVMode = fovModeFor(value)
		}
	}

	if header.Version < 0 {
		return header, trip.InvalidFormat("missing version directive", lr.line)
	}
	return header, nil
}

func (lr *lineReader) readFrames() ([]RawFrame, error) {
	var frames []RawFrame
	blank := 0 // line of the first empty line not yet known to be trailing

	for {
		line, ok, err := lr.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if line == "" {
			if blank == 0 {
				blank = lr.line
			}
			continue
		}
		if blank != 0 {
			return nil, trip.MalformedFrame(blank, 0)
		}

		frame, err := parseFrame(len(frames), lr.line, line)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}

	return frames, nil
}

func parseFrame(index, lineNo int, line string) (RawFrame, error) {
	tokens := strings.Split(line, " ")
	if len(tokens) < len(frameFields)+1 {
		return RawFrame{}, trip.MalformedFrame(lineNo, len(tokens))
	}

	var values [len(frameFields)]float64
	for i, name := range frameFields {
		token := tokens[i+1]
		v, err := strconv.ParseFloat(token, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return RawFrame{}, trip.InvalidNumericField(index, name, lineNo, token)
		}
		values[i] = v
	}

	return RawFrame{
		Label:   tokens[0],
		X:       values[0],
		Y:       values[1],
		Z:       values[2],
		Roll:    values[3],
		Pitch:   values[4],
		Heading: values[5],
		FOV:     values[6],
		Line:    lineNo,
	}, nil
}
