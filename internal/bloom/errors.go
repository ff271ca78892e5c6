package bloom

import "errors"

// ErrInvalidParameters is returned when a filter is configured with
// non-positive sizes or a negative hash count.
var ErrInvalidParameters = errors.New("bloom: invalid filter parameters")
