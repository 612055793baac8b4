// Package aggregator builds a user's ranked player ownership list across the
// eligible leagues of a season.
package aggregator

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/playerstock/internal/adapters/worker"
	"github.com/okian/playerstock/internal/domain/filter"
	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/logger"
	"github.com/okian/playerstock/pkg/metrics"
)

// Request is one aggregation run.
type Request struct {
	Handle    string
	Season    int
	Selection filter.Selection
}

// Aggregator runs the resolve, filter, fan-out, tally and rank pipeline.
type Aggregator struct {
	gateway     Gateway
	identities  IdentityStore
	memberships MembershipStore
	directory   Directory
	pool        *worker.Pool
	logger      logger.Logger
	newRunID    func() string
}

// New creates an Aggregator.
func New(gateway Gateway, identities IdentityStore, memberships MembershipStore, directory Directory, opts ...Option) *Aggregator {
	a := &Aggregator{
		gateway:     gateway,
		identities:  identities,
		memberships: memberships,
		directory:   directory,
		newRunID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logger.OrNop(a.logger).Named("aggregator")
	if a.pool == nil {
		a.pool = worker.NewPool(0, worker.WithName("league-fanout"), worker.WithLogger(a.logger))
	}
	return a
}

// rosterFetch is the outcome of one league's roster call.
type rosterFetch struct {
	rosters []model.Roster
	err     error
}

// Aggregate executes one run. Caller errors are returned before any upstream
// call is made.
func (a *Aggregator) Aggregate(ctx context.Context, req Request) (res model.AggregationResult, err error) {
	start := time.Now()
	handle := model.NormalizeHandle(req.Handle)
	runID := a.newRunID()
	log := a.logger.With(logger.String("run_id", runID), logger.String("handle", handle))

	metrics.IncAggregationsInFlight()
	defer func() {
		metrics.DecAggregationsInFlight()
		outcome := metrics.OutcomeSuccess
		switch {
		case err != nil && model.IsCallerError(err):
			outcome = metrics.OutcomeRejected
		case err != nil:
			outcome = metrics.OutcomeFailed
		}
		metrics.RecordAggregationRun(outcome, float64(time.Since(start).Milliseconds()))
	}()

	if handle == "" {
		return model.AggregationResult{}, model.WithSubject("aggregate", model.ErrMissingInput, "username", nil)
	}
	mode, err := req.Selection.Mode()
	if err != nil {
		return model.AggregationResult{}, err
	}

	identity, err := a.gateway.ResolveUser(ctx, handle)
	if err != nil {
		log.Warn(ctx, "user resolution failed", logger.Error(err))
		return model.AggregationResult{}, model.WithSubject("resolve user", model.ErrUnresolvedUser, handle, err)
	}
	identity.Handle = handle
	if err := a.identities.UpsertIdentity(ctx, identity); err != nil {
		return model.AggregationResult{}, fmt.Errorf("record identity: %w", err)
	}

	raw, err := a.gateway.ListLeagues(ctx, identity.OpaqueID, req.Season)
	if err != nil {
		log.Error(ctx, "league listing failed", logger.Int("season", req.Season), logger.Error(err))
		return model.AggregationResult{}, model.WrapKind("list leagues", model.ErrUpstreamUnavailable, err)
	}

	eligible := filter.Apply(raw, mode)
	metrics.RecordEligibleLeagues(len(eligible))
	log.Info(ctx, "eligible leagues selected",
		logger.Int("season", req.Season),
		logger.String("mode", mode.String()),
		logger.Int("listed", len(raw)),
		logger.Int("eligible", len(eligible)),
	)

	fetched := a.fetchRosters(ctx, eligible)
	if err := ctx.Err(); err != nil {
		return model.AggregationResult{}, fmt.Errorf("aggregate %s: %w", handle, err)
	}

	t := newTally()
	var failures []model.LeagueFailure
	for i, league := range eligible {
		f := fetched[i]
		if f.err != nil {
			metrics.RecordLeagueFetchFailure()
			log.Warn(ctx, "league roster fetch failed",
				logger.String("league_id", league.ID),
				logger.String("league_name", league.Name),
				logger.Error(f.err),
			)
			failures = append(failures, model.LeagueFailure{
				LeagueID:   league.ID,
				LeagueName: league.Name,
				Season:     req.Season,
				Reason:     f.err.Error(),
			})
			continue
		}
		players, ok := ownedPlayers(f.rosters, identity.OpaqueID)
		if !ok {
			metrics.RecordRosterAbsence()
			log.Debug(ctx, "no roster for user in league", logger.String("league_id", league.ID))
			continue
		}
		t.addLeague(identity.OpaqueID, league, players)
	}

	if err := a.memberships.ReplaceMemberships(ctx, identity.OpaqueID, t.rows); err != nil {
		return model.AggregationResult{}, fmt.Errorf("store memberships: %w", err)
	}

	ranked := a.rank(ctx, t, len(eligible))

	log.Info(ctx, "aggregation complete",
		logger.Int("players", len(ranked)),
		logger.Int("failed_leagues", len(failures)),
		logger.Duration("elapsed", time.Since(start)),
	)

	return model.AggregationResult{
		RunID:               runID,
		Handle:              handle,
		OpaqueID:            identity.OpaqueID,
		Season:              req.Season,
		FilterLabel:         mode.Label(),
		RankedPlayers:       ranked,
		EligibleLeagueIDs:   filter.IDs(eligible),
		EligibleLeagueNames: filter.Names(eligible),
		FailedLeagues:       failures,
	}, nil
}

// fetchRosters issues one roster call per league on the pool. Results are
// aligned with leagues.
func (a *Aggregator) fetchRosters(ctx context.Context, leagues []model.League) []rosterFetch {
	out := make([]rosterFetch, len(leagues))
	tasks := make([]worker.Task, len(leagues))
	for i, league := range leagues {
		tasks[i] = func(ctx context.Context) error {
			rosters, err := a.gateway.ListRosters(ctx, league.ID)
			out[i].rosters = rosters
			return err
		}
	}
	for i, err := range a.pool.Run(ctx, tasks) {
		out[i].err = err
	}
	return out
}

// ownedPlayers returns the player list of the roster owned by userID. ok is
// false when the user has no roster or it is empty.
func ownedPlayers(rosters []model.Roster, userID string) ([]string, bool) {
	for _, r := range rosters {
		if r.OwnerID == userID {
			return r.PlayerIDs, len(r.PlayerIDs) > 0
		}
	}
	return nil, false
}

// tally keeps the first-seen order of players next to their league counts.
type tally struct {
	order   []string
	counts  map[string]int
	leagues map[string][]string
	rows    []model.RosterMembership
}

func newTally() *tally {
	return &tally{
		counts:  make(map[string]int),
		leagues: make(map[string][]string),
		rows:    []model.RosterMembership{},
	}
}

func (t *tally) addLeague(userID string, league model.League, players []string) {
	seen := make(map[string]struct{}, len(players))
	for _, id := range players {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, known := t.counts[id]; !known {
			t.order = append(t.order, id)
		}
		t.counts[id]++
		t.leagues[id] = append(t.leagues[id], league.Name)
		t.rows = append(t.rows, model.RosterMembership{UserID: userID, LeagueID: league.ID, PlayerID: id})
	}
}

// rank resolves names and orders players by league count, ties by first
// appearance.
func (a *Aggregator) rank(ctx context.Context, t *tally, eligible int) []model.AggregatedPlayer {
	out := make([]model.AggregatedPlayer, 0, len(t.order))
	for _, id := range t.order {
		rec := a.lookup(ctx, id)
		count := t.counts[id]
		out = append(out, model.AggregatedPlayer{
			PlayerID:            id,
			DisplayName:         rec.DisplayName,
			Position:            rec.Position,
			LeagueCount:         count,
			OwnershipPercentage: float64(count) / float64(eligible) * 100,
			MemberLeagueNames:   t.leagues[id],
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LeagueCount > out[j].LeagueCount
	})
	return out
}

func (a *Aggregator) lookup(ctx context.Context, id string) model.PlayerRecord {
	rec, ok, err := a.directory.LookupPlayer(ctx, id)
	if err != nil {
		a.logger.Warn(ctx, "player directory lookup failed", logger.String("player_id", id), logger.Error(err))
	}
	if err != nil || !ok || strings.TrimSpace(rec.DisplayName) == "" {
		metrics.RecordDirectoryMiss()
		return model.PlaceholderPlayer(id)
	}
	if rec.Position == "" {
		rec.Position = model.UnknownPlayerPosition
	}
	return rec
}
