package core

import "errors"

// Common errors.
var (
	ErrNotFound        = errors.New("blend not found")
	ErrUnavailable     = errors.New("server persistence unavailable")
	ErrReadOnly        = errors.New("store is in read-only mode")
	ErrProtected       = errors.New("blend is protected")
	ErrInvalidFilename = errors.New("invalid blend filename")
)
