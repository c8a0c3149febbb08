package searchrepo

import "errors"

var (
	// ErrNotFound indicates no record exists for the (identity, searchId) key.
	ErrNotFound = errors.New("search not found")

	// ErrAlreadyExists indicates a record already exists for the key.
	ErrAlreadyExists = errors.New("search already exists")
)
