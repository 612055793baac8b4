package repository

import "errors"

// Sentinel kinds for storage errors.
var (
	ErrNotFound  = errors.New("record not found")
	ErrNilConfig = errors.New("repository config cannot be nil")
	ErrEmptyKey  = errors.New("empty key")
)
