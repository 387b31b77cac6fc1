package curve

import (
	"errors"
	"fmt"
)

var (
	// ErrParse reports a curve file that does not match the expected table layout.
	ErrParse = errors.New("curve: malformed curve file")

	// ErrPeriodEstimation reports a curve whose dominant period cannot be found.
	ErrPeriodEstimation = errors.New("curve: period estimation failed")

	// ErrInsufficientSamples reports a folded curve with fewer samples than
	// regression neighbours.
	ErrInsufficientSamples = errors.New("curve: insufficient samples for regression")

	// ErrResolution reports a resampling resolution below two grid points.
	ErrResolution = errors.New("curve: resolution must be at least 2")
)

// ParseError describes where a curve file failed to parse.
type ParseError struct {
	Path string
	Line int // 1-based, 0 when the failure is not tied to a line
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("curve: parse %s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("curve: parse %s: %s", e.Path, e.Msg)
}

// Unwrap lets errors.Is match ErrParse.
func (e *ParseError) Unwrap() error { return ErrParse }
