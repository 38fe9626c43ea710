package models

import "errors"

// ErrMalformedInput is returned when a raw listing or key cannot be turned
// into a model: conflicting type declarations, unparseable paths, unknown tags.
var ErrMalformedInput = errors.New("malformed input")
