package service

import "errors"

// Lifecycle errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrMissingDependency = errors.New("service dependency not configured")
)
