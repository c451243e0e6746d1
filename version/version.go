// Package version implements RubyGems-style version parsing, comparison and
// requirement matching.
//
// Version format: dot-separated segments, each segment alphanumeric.
// Numeric segments compare as integers, alphabetic segments compare
// lexicographically and sort below any numeric segment (so "1.0.a" precedes
// "1.0.0"). Missing trailing segments are treated as zero, which makes
// "1.0" and "1.0.0" equal.
package version

import (
	"strconv"
	"strings"
)

// Segment is one dot-separated component of a version string.
// A segment is either numeric or alphabetic, never mixed ordering:
// mixed segments such as "3a" compare lexicographically.
type Segment struct {
	Number   uint64
	Text     string
	IsNumber bool
}

// zeroSegment pads the shorter version during comparison.
var zeroSegment = Segment{Number: 0, Text: "0", IsNumber: true}

// Version is a parsed, immutable version value.
type Version struct {
	segments []Segment
	original string
}

// MalformedVersionError reports a version string that does not conform to the
// dot-separated alphanumeric grammar.
type MalformedVersionError struct {
	Input   string
	Message string
}

func (e *MalformedVersionError) Error() string {
	return "malformed version " + strconv.Quote(e.Input) + ": " + e.Message
}

// Parse parses a version string into segments.
// Every segment must be non-empty and contain only ASCII letters and digits.
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, &MalformedVersionError{Input: s, Message: "empty version"}
	}

	parts := strings.Split(s, ".")
	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part)
		if err != nil {
			return Version{}, &MalformedVersionError{Input: s, Message: err.Error()}
		}
		segments = append(segments, seg)
	}

	return Version{segments: segments, original: s}, nil
}

// MustParse parses a version string and panics on failure.
// Intended for tests and literals known to be valid.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parseSegment(s string) (Segment, error) {
	if s == "" {
		return Segment{}, errEmptySegment
	}

	allDigits := true
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			allDigits = false
		default:
			return Segment{}, errBadSegmentChar
		}
	}

	if allDigits {
		n, err := strconv.ParseUint(s, 10, 64)
		if err == nil {
			return Segment{Number: n, Text: s, IsNumber: true}, nil
		}
		// Overflow: fall through to lexicographic handling.
	}

	return Segment{Text: s}, nil
}

// String returns the version as originally written.
func (v Version) String() string { return v.original }

// Segments returns the parsed segments. The returned slice must not be
// modified.
func (v Version) Segments() []Segment { return v.segments }

// Compare returns -1, 0 or 1 as v sorts before, equal to or after o.
// Comparison is segment-wise; the shorter version is padded with zeros,
// so "1.0" == "1.0.0".
func (v Version) Compare(o Version) int {
	n := len(v.segments)
	if len(o.segments) > n {
		n = len(o.segments)
	}

	for i := 0; i < n; i++ {
		a, b := zeroSegment, zeroSegment
		if i < len(v.segments) {
			a = v.segments[i]
		}
		if i < len(o.segments) {
			b = o.segments[i]
		}
		if c := compareSegments(a, b); c != 0 {
			return c
		}
	}
	return 0
}

// compareSegments orders alphabetic segments below numeric ones, matching
// RubyGems prerelease ordering ("1.0.a" < "1.0.0").
func compareSegments(a, b Segment) int {
	if a.IsNumber != b.IsNumber {
		if a.IsNumber {
			return 1
		}
		return -1
	}
	if a.IsNumber {
		switch {
		case a.Number < b.Number:
			return -1
		case a.Number > b.Number:
			return 1
		}
		return 0
	}
	return strings.Compare(a.Text, b.Text)
}

// Equal reports whether two versions normalize to the same segment sequence.
func (v Version) Equal(o Version) bool { return v.Compare(o) == 0 }

// Less reports whether v sorts before o.
func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Prerelease reports whether any segment is alphabetic, the RubyGems marker
// for prerelease versions.
func (v Version) Prerelease() bool {
	for _, seg := range v.segments {
		if !seg.IsNumber {
			return true
		}
	}
	return false
}

// Compare compares two version strings, parsing both. Strings that fail to
// parse compare lexicographically so that sorting never errors.
func Compare(a, b string) int {
	va, errA := Parse(a)
	vb, errB := Parse(b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return va.Compare(vb)
}

type segmentError string

func (e segmentError) Error() string { return string(e) }

const (
	errEmptySegment   = segmentError("empty segment")
	errBadSegmentChar = segmentError("segment contains character outside [A-Za-z0-9]")
)
