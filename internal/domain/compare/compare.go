// Package compare cross-references league participation between two users
// and among the members of one league.
package compare

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/okian/playerstock/internal/adapters/worker"
	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/logger"
	"github.com/okian/playerstock/pkg/metrics"
)

// Default supported season range.
const (
	DefaultMinSeason     = 2018
	DefaultCurrentSeason = 2025
)

// Comparison kinds used in metrics.
const (
	kindHandles = "handles"
	kindLeague  = "league"
)

// Gateway is the subset of the upstream client the engine calls.
type Gateway interface {
	ResolveUser(ctx context.Context, handle string) (model.UserIdentity, error)
	ListLeagues(ctx context.Context, userID string, season int) ([]model.RawLeague, error)
	ListLeagueUsers(ctx context.Context, leagueID string) ([]model.LeagueUser, error)
}

// HandleOverlap is the result of comparing two handles.
type HandleOverlap struct {
	Handle1           string                `json:"user1"`
	Handle2           string                `json:"user2"`
	Seasons           []int                 `json:"seasons"`
	SharedLeagueNames []string              `json:"common_leagues"`
	SharedCount       int                   `json:"common_count"`
	Total1            int                   `json:"user1_total"`
	Total2            int                   `json:"user2_total"`
	Failures          []model.LeagueFailure `json:"failures,omitempty"`
}

// UserDuplicateCount is how many duplicate labels one user appears in.
type UserDuplicateCount struct {
	DisplayName string `json:"display_name"`
	Count       int    `json:"count"`
}

// LeagueDuplicates is the result of scanning one league's members.
type LeagueDuplicates struct {
	LeagueID        string                `json:"league_id"`
	Seasons         []int                 `json:"seasons"`
	Duplicates      map[string][]string   `json:"duplicates"`
	DuplicateLabels []string              `json:"duplicate_labels"`
	Summary         []UserDuplicateCount  `json:"summary"`
	Failures        []model.LeagueFailure `json:"failures,omitempty"`
}

// Engine runs read-only comparisons against the gateway.
type Engine struct {
	gateway       Gateway
	pool          *worker.Pool
	logger        logger.Logger
	minSeason     int
	currentSeason int
}

// New creates an Engine.
func New(gateway Gateway, opts ...Option) *Engine {
	e := &Engine{
		gateway:       gateway,
		minSeason:     DefaultMinSeason,
		currentSeason: DefaultCurrentSeason,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrNop(e.logger).Named("compare")
	if e.pool == nil {
		e.pool = worker.NewPool(0, worker.WithName("compare-fanout"), worker.WithLogger(e.logger))
	}
	return e
}

// Seasons keeps the requested seasons inside the supported range, in request
// order without repeats. An empty outcome falls back to the current season.
func (e *Engine) Seasons(requested []int) []int {
	out := make([]int, 0, len(requested))
	seen := make(map[int]struct{}, len(requested))
	for _, s := range requested {
		if s < e.minSeason || s > e.currentSeason {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return []int{e.currentSeason}
	}
	return out
}

// CompareHandles reports the league names two handles share across seasons.
// Names, not ids, are compared.
func (e *Engine) CompareHandles(ctx context.Context, handle1, handle2 string, seasons []int) (res HandleOverlap, err error) {
	defer func() { metrics.RecordComparisonRun(kindHandles, outcome(err)) }()

	h1, h2 := model.NormalizeHandle(handle1), model.NormalizeHandle(handle2)
	switch {
	case h1 == "":
		return HandleOverlap{}, model.WithSubject("compare users", model.ErrMissingInput, "user 1", nil)
	case h2 == "":
		return HandleOverlap{}, model.WithSubject("compare users", model.ErrMissingInput, "user 2", nil)
	case h1 == h2:
		return HandleOverlap{}, model.NewKind("compare users", model.ErrSameUserCompared)
	}
	seasons = e.Seasons(seasons)

	ids := make([]model.UserIdentity, 2)
	for i, h := range []string{h1, h2} {
		id, err := e.gateway.ResolveUser(ctx, h)
		if err != nil {
			subject := fmt.Sprintf("user %d: %s", i+1, h)
			return HandleOverlap{}, model.WithSubject("compare users", model.ErrUnresolvedUser, subject, err)
		}
		ids[i] = id
	}

	listings, failures := e.listLeagues(ctx, []string{ids[0].OpaqueID, ids[1].OpaqueID}, seasons)
	if err := ctx.Err(); err != nil {
		return HandleOverlap{}, fmt.Errorf("compare users: %w", err)
	}

	names1 := nameSet(listings[0])
	names2 := nameSet(listings[1])
	shared := make([]string, 0)
	for n := range names1 {
		if _, ok := names2[n]; ok {
			shared = append(shared, n)
		}
	}
	sort.Strings(shared)

	e.logger.Info(ctx, "handles compared",
		logger.String("user1", h1),
		logger.String("user2", h2),
		logger.Int("shared", len(shared)),
		logger.Int("failures", len(failures)),
	)

	return HandleOverlap{
		Handle1:           h1,
		Handle2:           h2,
		Seasons:           seasons,
		SharedLeagueNames: shared,
		SharedCount:       len(shared),
		Total1:            len(names1),
		Total2:            len(names2),
		Failures:          failures,
	}, nil
}

// CompareLeagueUsers finds "{league} ({season})" labels claimed by more than
// one member of leagueID.
func (e *Engine) CompareLeagueUsers(ctx context.Context, leagueID string, seasons []int) (res LeagueDuplicates, err error) {
	defer func() { metrics.RecordComparisonRun(kindLeague, outcome(err)) }()

	leagueID = strings.TrimSpace(leagueID)
	if leagueID == "" {
		return LeagueDuplicates{}, model.WithSubject("compare league", model.ErrMissingInput, "league_id", nil)
	}
	seasons = e.Seasons(seasons)

	users, err := e.gateway.ListLeagueUsers(ctx, leagueID)
	if err != nil {
		return LeagueDuplicates{}, model.WithSubject("list league users", model.ErrUpstreamUnavailable, leagueID, err)
	}
	if len(users) == 0 {
		return LeagueDuplicates{}, model.WithSubject("compare league", model.ErrEmptyLeague, leagueID, nil)
	}

	userIDs := make([]string, len(users))
	for i, u := range users {
		userIDs[i] = u.UserID
	}
	listings, failures := e.listLeagues(ctx, userIDs, seasons)
	if err := ctx.Err(); err != nil {
		return LeagueDuplicates{}, fmt.Errorf("compare league: %w", err)
	}

	var labelOrder []string
	claimants := make(map[string][]string)
	userLabels := make([]map[string]struct{}, len(users))
	for i, u := range users {
		userLabels[i] = make(map[string]struct{})
		for _, l := range listings[i] {
			label := fmt.Sprintf("%s (%d)", l.Name, l.Season)
			if _, dup := userLabels[i][label]; dup {
				continue
			}
			userLabels[i][label] = struct{}{}
			if _, known := claimants[label]; !known {
				labelOrder = append(labelOrder, label)
			}
			claimants[label] = append(claimants[label], u.DisplayName)
		}
	}

	duplicates := make(map[string][]string)
	dupLabels := make([]string, 0)
	for _, label := range labelOrder {
		if names := claimants[label]; len(names) > 1 {
			duplicates[label] = names
			dupLabels = append(dupLabels, label)
		}
	}

	summary := make([]UserDuplicateCount, 0)
	for i, u := range users {
		n := 0
		for label := range userLabels[i] {
			if _, ok := duplicates[label]; ok {
				n++
			}
		}
		if n > 0 {
			summary = append(summary, UserDuplicateCount{DisplayName: u.DisplayName, Count: n})
		}
	}
	sort.SliceStable(summary, func(i, j int) bool { return summary[i].Count > summary[j].Count })

	e.logger.Info(ctx, "league members compared",
		logger.String("league_id", leagueID),
		logger.Int("users", len(users)),
		logger.Int("duplicates", len(dupLabels)),
		logger.Int("failures", len(failures)),
	)

	return LeagueDuplicates{
		LeagueID:        leagueID,
		Seasons:         seasons,
		Duplicates:      duplicates,
		DuplicateLabels: dupLabels,
		Summary:         summary,
		Failures:        failures,
	}, nil
}

// listLeagues fetches every (user, season) league list on the pool. The
// result is indexed by user, seasons concatenated in order. A failed listing
// is recorded and contributes nothing.
func (e *Engine) listLeagues(ctx context.Context, userIDs []string, seasons []int) ([][]model.RawLeague, []model.LeagueFailure) {
	type slot struct {
		user, season int
		leagues      []model.RawLeague
	}
	slots := make([]slot, 0, len(userIDs)*len(seasons))
	for u := range userIDs {
		for s := range seasons {
			slots = append(slots, slot{user: u, season: s})
		}
	}

	tasks := make([]worker.Task, len(slots))
	for i := range slots {
		tasks[i] = func(ctx context.Context) error {
			season := seasons[slots[i].season]
			leagues, err := e.gateway.ListLeagues(ctx, userIDs[slots[i].user], season)
			if err != nil {
				return err
			}
			for j := range leagues {
				if leagues[j].Season == 0 {
					leagues[j].Season = season
				}
			}
			slots[i].leagues = leagues
			return nil
		}
	}
	errs := e.pool.Run(ctx, tasks)

	out := make([][]model.RawLeague, len(userIDs))
	var failures []model.LeagueFailure
	for i, s := range slots {
		if errs[i] != nil {
			season := seasons[s.season]
			e.logger.Warn(ctx, "season league listing failed",
				logger.String("user_id", userIDs[s.user]),
				logger.Int("season", season),
				logger.Error(errs[i]),
			)
			metrics.RecordLeagueFetchFailure()
			failures = append(failures, model.LeagueFailure{
				UserID: userIDs[s.user],
				Season: season,
				Reason: errs[i].Error(),
			})
			continue
		}
		out[s.user] = append(out[s.user], s.leagues...)
	}
	return out, failures
}

func nameSet(leagues []model.RawLeague) map[string]struct{} {
	out := make(map[string]struct{}, len(leagues))
	for _, l := range leagues {
		out[l.Name] = struct{}{}
	}
	return out
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case model.IsCallerError(err):
		return metrics.OutcomeRejected
	default:
		return metrics.OutcomeFailed
	}
}
