package backend

import "errors"

// Error definitions for the backend package.
var (
	ErrNotFound          = errors.New("backend not found in registry")
	ErrAlreadyRegistered = errors.New("backend is already registered in the registry")
	ErrShapeMismatch     = errors.New("shape mismatch")
	ErrUnknownOutput     = errors.New("unknown output")
	ErrUnsupportedType   = errors.New("unsupported tensor element type")
)
