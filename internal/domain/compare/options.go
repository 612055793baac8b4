package compare

import (
	"github.com/okian/playerstock/internal/adapters/worker"
	"github.com/okian/playerstock/pkg/logger"
)

// Option configures an Engine.
type Option func(*Engine)

// WithSeasonRange sets the supported seasons. current is used when a request
// names no valid season.
func WithSeasonRange(minSeason, current int) Option {
	return func(e *Engine) {
		if minSeason > 0 && current >= minSeason {
			e.minSeason = minSeason
			e.currentSeason = current
		}
	}
}

// WithPool sets the worker pool for per-season league listings.
func WithPool(p *worker.Pool) Option {
	return func(e *Engine) {
		if p != nil {
			e.pool = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}
