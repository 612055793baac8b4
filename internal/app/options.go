package service

import (
	"time"

	"github.com/okian/playerstock/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithGateway sets the upstream client.
func WithGateway(g Gateway) Option {
	return func(s *Service) {
		s.gateway = g
	}
}

// WithStore sets the persistence layer.
func WithStore(st Store) Option {
	return func(s *Service) {
		s.store = st
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCacheSize caps how many handles keep a cached result. Zero or less
// means unbounded.
func WithCacheSize(n int) Option {
	return func(s *Service) {
		s.cacheSize = n
	}
}

// WithFanoutConcurrency caps concurrent per-league upstream calls.
func WithFanoutConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanoutConcurrency = n
		}
	}
}

// WithLeagueTimeout bounds each per-league upstream call.
func WithLeagueTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.leagueTimeout = d
		}
	}
}

// WithDefaultSeason sets the season used when a request names none.
func WithDefaultSeason(season int) Option {
	return func(s *Service) {
		if season > 0 {
			s.defaultSeason = season
		}
	}
}

// WithSeasonRange sets the seasons accepted by comparisons.
func WithSeasonRange(minSeason, current int) Option {
	return func(s *Service) {
		if minSeason > 0 && current >= minSeason {
			s.minSeason = minSeason
			s.defaultSeason = current
		}
	}
}
