package family

import "errors"

var (
	// ErrMalformedSnapshot is returned by Import when the payload cannot be
	// turned into a graph. The tree is left untouched.
	ErrMalformedSnapshot = errors.New("family: malformed snapshot")

	// ErrInvalidDataURL is returned when an attachment payload is not a data URL.
	ErrInvalidDataURL = errors.New("family: invalid data URL")
)
