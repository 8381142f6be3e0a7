package fragment

import (
	"errors"
	"fmt"
)

var (
	// ErrMarkerNotFound is returned when a range has no Start or no End marker.
	ErrMarkerNotFound = errors.New("range marker not found")
	// ErrTemplateMalformed is returned when no legal ancestor holds both
	// markers of a range.
	ErrTemplateMalformed = errors.New("template malformed")
)

// RangeError attaches the failing range and pipeline step to an error. The
// cause is one of ErrMarkerNotFound, ErrTemplateMalformed, media.ErrNotFound,
// media.ErrTooLarge or doctree.ErrCopyFailure, matched with errors.Is.
type RangeError struct {
	RangeID string
	Op      string
	Err     error
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range %s: %s: %v", e.RangeID, e.Op, e.Err)
}

func (e *RangeError) Unwrap() error {
	return e.Err
}

func rangeErr(rangeID, op string, err error) error {
	return &RangeError{RangeID: rangeID, Op: op, Err: err}
}
