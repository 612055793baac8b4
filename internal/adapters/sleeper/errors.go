package sleeper

import "errors"

// Client errors. Every failure the client returns wraps one of these.
var (
	ErrNotFound          = errors.New("sleeper: not found")
	ErrUnexpectedStatus  = errors.New("sleeper: unexpected status")
	ErrMalformedResponse = errors.New("sleeper: malformed response")
	ErrRequestFailed     = errors.New("sleeper: request failed")
)
