package worker

import "errors"

// Sentinel kinds for worker errors.
var (
	ErrTaskPanicked = errors.New("worker task panicked")
)
