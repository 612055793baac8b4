// Package worker runs independent upstream fetches with a bounded number of
// concurrent workers and a per-task timeout.
package worker

import (
	"time"

	"github.com/okian/playerstock/pkg/logger"
)

// Option applies a configuration option to the Pool.
type Option func(*Pool)

// WithName sets the pool name used for logging.
func WithName(name string) Option {
	return func(p *Pool) {
		if name != "" {
			p.name = name
		}
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l logger.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithTaskTimeout bounds each task. Zero disables the per-task deadline.
func WithTaskTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d >= 0 {
			p.taskTimeout = d
		}
	}
}
