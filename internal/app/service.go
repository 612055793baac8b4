// Package service wires the aggregation engine, the comparison engine and
// the result cache behind the operations the HTTP API exposes.
package service

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/playerstock/internal/adapters/cache"
	"github.com/okian/playerstock/internal/adapters/worker"
	"github.com/okian/playerstock/internal/domain/aggregator"
	"github.com/okian/playerstock/internal/domain/compare"
	"github.com/okian/playerstock/internal/domain/filter"
	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/logger"
)

// Gateway is everything the service needs from the upstream client.
type Gateway interface {
	aggregator.Gateway
	compare.Gateway
}

// Store is everything the service needs from persistence.
type Store interface {
	aggregator.IdentityStore
	aggregator.MembershipStore
	aggregator.Directory
}

// Service implements the API dependencies for the ownership system.
type Service struct {
	mu sync.RWMutex

	// Collaborators
	gateway Gateway
	store   Store

	// Core components
	aggregator *aggregator.Aggregator
	comparer   *compare.Engine
	results    cache.Store
	pool       *worker.Pool
	handles    *keyedMutex

	// Configuration
	cacheSize         int
	fanoutConcurrency int
	leagueTimeout     time.Duration
	defaultSeason     int
	minSeason         int

	// State
	started  bool
	inFlight atomic.Int64

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		fanoutConcurrency: 8,
		leagueTimeout:     10 * time.Second,
		defaultSeason:     compare.DefaultCurrentSeason,
		minSeason:         compare.DefaultMinSeason,
		handles:           newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the engines. It is idempotent.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.gateway == nil || s.store == nil {
		return ErrMissingDependency
	}
	s.logger = logger.OrNop(s.logger)
	s.logger.Info(ctx, "starting ownership service...")

	s.pool = worker.NewPool(s.fanoutConcurrency,
		worker.WithName("league-fanout"),
		worker.WithTaskTimeout(s.leagueTimeout),
		worker.WithLogger(s.logger),
	)
	s.aggregator = aggregator.New(s.gateway, s.store, s.store, s.store,
		aggregator.WithPool(s.pool),
		aggregator.WithLogger(s.logger),
	)
	s.comparer = compare.New(s.gateway,
		compare.WithPool(s.pool),
		compare.WithSeasonRange(s.minSeason, s.defaultSeason),
		compare.WithLogger(s.logger),
	)
	s.results = cache.New(cache.WithMaxSize(s.cacheSize))

	s.started = true
	s.logger.Info(ctx, "ownership service started",
		logger.Int("fanoutConcurrency", s.fanoutConcurrency),
		logger.Duration("leagueTimeout", s.leagueTimeout),
		logger.Int("cacheSize", s.cacheSize),
		logger.Int("defaultSeason", s.defaultSeason),
	)
	return nil
}

// Stop marks the service stopped. Cached results are dropped.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping ownership service...")
	s.results = nil
	s.started = false
	s.logger.Info(context.Background(), "ownership service stopped")
}

func (s *Service) components() (*aggregator.Aggregator, *compare.Engine, cache.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, nil, ErrNotStarted
	}
	return s.aggregator, s.comparer, s.results, nil
}

// RunAggregation runs one aggregation for handle and caches its result.
// Runs for the same handle never interleave. A zero season uses the default.
func (s *Service) RunAggregation(ctx context.Context, handle string, season int, sel filter.Selection) (model.AggregationResult, error) {
	agg, _, results, err := s.components()
	if err != nil {
		return model.AggregationResult{}, err
	}
	if season <= 0 {
		season = s.defaultSeason
	}

	key := cache.AggregationKey(handle)
	unlock := s.handles.Lock(key.Handle)
	defer unlock()

	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	res, err := agg.Aggregate(ctx, aggregator.Request{Handle: handle, Season: season, Selection: sel})
	if err != nil {
		return model.AggregationResult{}, err
	}
	results.Put(ctx, key, res.Cached())
	return res, nil
}

// LookupSinglePlayer answers a player query from handle's cached result
// without touching the upstream. Names match case-insensitively.
func (s *Service) LookupSinglePlayer(ctx context.Context, handle, playerName string) (model.PlayerLookup, error) {
	_, _, results, err := s.components()
	if err != nil {
		return model.PlayerLookup{}, err
	}
	key := cache.AggregationKey(handle)
	name := strings.TrimSpace(playerName)
	switch {
	case key.Handle == "":
		return model.PlayerLookup{}, model.WithSubject("lookup player", model.ErrMissingInput, "username", nil)
	case name == "":
		return model.PlayerLookup{}, model.WithSubject("lookup player", model.ErrMissingInput, "player_name", nil)
	}

	cached, ok := results.Get(ctx, key)
	if !ok {
		return model.PlayerLookup{}, model.WithSubject("lookup player", model.ErrNotFoundInCache, name, nil)
	}
	for _, p := range cached.RankedPlayers {
		if strings.EqualFold(p.DisplayName, name) {
			return model.PlayerLookup{
				Handle:              key.Handle,
				Player:              p,
				MemberLeagueNames:   p.MemberLeagueNames,
				FilterLabel:         cached.FilterLabel,
				EligibleLeagueNames: cached.EligibleLeagueNames,
			}, nil
		}
	}
	return model.PlayerLookup{}, model.WithSubject("lookup player", model.ErrNotFoundInCache, name, nil)
}

// CachedResult returns handle's last result, or an empty one.
func (s *Service) CachedResult(ctx context.Context, handle string) model.CachedResult {
	empty := model.CachedResult{
		RankedPlayers:       []model.AggregatedPlayer{},
		EligibleLeagueIDs:   []string{},
		EligibleLeagueNames: []string{},
	}
	_, _, results, err := s.components()
	if err != nil {
		return empty
	}
	cached, ok := results.Get(ctx, cache.AggregationKey(handle))
	if !ok {
		return empty
	}
	return cached
}

// CompareHandles reports shared league names between two handles.
func (s *Service) CompareHandles(ctx context.Context, handle1, handle2 string, seasons []int) (compare.HandleOverlap, error) {
	_, cmp, _, err := s.components()
	if err != nil {
		return compare.HandleOverlap{}, err
	}
	return cmp.CompareHandles(ctx, handle1, handle2, seasons)
}

// CompareLeagueUsers reports labels shared by several members of a league.
func (s *Service) CompareLeagueUsers(ctx context.Context, leagueID string, seasons []int) (compare.LeagueDuplicates, error) {
	_, cmp, _, err := s.components()
	if err != nil {
		return compare.LeagueDuplicates{}, err
	}
	return cmp.CompareLeagueUsers(ctx, leagueID, seasons)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":           s.started,
		"fanoutConcurrency": s.fanoutConcurrency,
		"leagueTimeoutMs":   s.leagueTimeout.Milliseconds(),
		"cacheSize":         s.cacheSize,
		"defaultSeason":     s.defaultSeason,
		"minSeason":         s.minSeason,
		"inFlight":          s.inFlight.Load(),
	}
	if s.started {
		stats["cachedHandles"] = s.results.Len()
		stats["lockedHandles"] = s.handles.Len()
	}
	if counter, ok := s.store.(interface {
		CountPlayers(context.Context) (int, error)
	}); ok {
		if n, err := counter.CountPlayers(context.Background()); err == nil {
			stats["directoryPlayers"] = n
		}
	}
	return stats
}
