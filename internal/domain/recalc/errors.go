package recalc

import "errors"

// Sentinel kinds for recalculation errors.
var (
	ErrUnknownEvent  = errors.New("unknown event")
	ErrInvalidGender = errors.New("gender does not name a group of this event")
	// ErrPartialUpdate wraps the joined write failures of one group. The
	// group is left partially updated and converges on the next run.
	ErrPartialUpdate = errors.New("group partially updated")
)
