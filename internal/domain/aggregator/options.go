package aggregator

import (
	"github.com/okian/playerstock/internal/adapters/worker"
	"github.com/okian/playerstock/pkg/logger"
)

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithPool sets the worker pool used for the per-league roster fan-out.
func WithPool(p *worker.Pool) Option {
	return func(a *Aggregator) {
		if p != nil {
			a.pool = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(a *Aggregator) {
		a.logger = l
	}
}

// WithRunIDGenerator overrides how run ids are minted.
func WithRunIDGenerator(fn func() string) Option {
	return func(a *Aggregator) {
		if fn != nil {
			a.newRunID = fn
		}
	}
}
