package trajectory

import "errors"

// ErrInvalidInput is returned when a value cannot enter a WeightSeries.
var ErrInvalidInput = errors.New("invalid input")

// ErrAnchorRequired is returned when an edit would remove the day 0 anchor.
var ErrAnchorRequired = errors.New("day 0 weight is required")

// IsInvalidInput reports whether err was raised by input validation.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrAnchorRequired)
}
