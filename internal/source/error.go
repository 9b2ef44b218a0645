package source

import "errors"

// Error definitions for the source package.
var (
	ErrUnsupportedScheme = errors.New("unsupported artifact url scheme")
	ErrUnexpectedStatus  = errors.New("unexpected http status")
	ErrTooLarge          = errors.New("artifact exceeds size limit")
	ErrEmpty             = errors.New("artifact is empty")
)
