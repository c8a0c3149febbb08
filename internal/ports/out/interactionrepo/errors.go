package interactionrepo

import "errors"

// ErrNotFound indicates no interaction exists for the requested key.
var ErrNotFound = errors.New("interaction not found")
