package core

import "errors"

// Error taxonomy for command handling. Handlers match these with errors.Is to
// pick the user-visible reply; anything else is a storage-level failure and is
// surfaced as a generic error, never as "no entitlement".
var (
	ErrNotAuthorized   = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)
