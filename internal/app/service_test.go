package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	service "github.com/okian/playerstock/internal/app"
	"github.com/okian/playerstock/internal/domain/filter"
	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type fakeGateway struct {
	mu        sync.Mutex
	users     map[string]string
	leagues   map[string][]model.RawLeague
	rosters   map[string][]model.Roster
	members   map[string][]model.LeagueUser
	delay     time.Duration
	active    atomic.Int32
	maxActive atomic.Int32
	leagueErr error
}

func (g *fakeGateway) ResolveUser(_ context.Context, handle string) (model.UserIdentity, error) {
	id, ok := g.users[handle]
	if !ok {
		return model.UserIdentity{}, errors.New("not found")
	}
	return model.UserIdentity{Handle: handle, OpaqueID: id}, nil
}

func (g *fakeGateway) ListLeagues(_ context.Context, userID string, season int) ([]model.RawLeague, error) {
	n := g.active.Add(1)
	defer g.active.Add(-1)
	for {
		m := g.maxActive.Load()
		if n <= m || g.maxActive.CompareAndSwap(m, n) {
			break
		}
	}
	time.Sleep(g.delay)
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.leagueErr != nil {
		return nil, g.leagueErr
	}
	return g.leagues[fmt.Sprintf("%s/%d", userID, season)], nil
}

func (g *fakeGateway) ListRosters(_ context.Context, leagueID string) ([]model.Roster, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rosters[leagueID], nil
}

func (g *fakeGateway) ListLeagueUsers(_ context.Context, leagueID string) ([]model.LeagueUser, error) {
	return g.members[leagueID], nil
}

type fakeStore struct {
	mu      sync.Mutex
	rows    map[string][]model.RosterMembership
	players map[string]model.PlayerRecord
}

func (s *fakeStore) UpsertIdentity(context.Context, model.UserIdentity) error { return nil }

func (s *fakeStore) ReplaceMemberships(_ context.Context, userID string, rows []model.RosterMembership) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[userID] = rows
	return nil
}

func (s *fakeStore) LookupPlayer(_ context.Context, id string) (model.PlayerRecord, bool, error) {
	p, ok := s.players[id]
	return p, ok, nil
}

func (s *fakeStore) CountPlayers(context.Context) (int, error) { return len(s.players), nil }

func fixtures() (*fakeGateway, *fakeStore) {
	g := &fakeGateway{
		users: map[string]string{"alice": "u1", "bob": "u2"},
		leagues: map[string][]model.RawLeague{
			"u1/2025": {
				{ID: "1", Name: "Dynasty", Status: model.StatusInSeason},
				{ID: "2", Name: "Best Ball", Status: model.StatusInSeason, BestBall: true},
			},
			"u2/2025": {{ID: "1", Name: "Dynasty", Status: model.StatusInSeason}},
		},
		rosters: map[string][]model.Roster{
			"1": {{OwnerID: "u1", PlayerIDs: []string{"4046", "6794"}}, {OwnerID: "u2", PlayerIDs: []string{"4034"}}},
			"2": {{OwnerID: "u1", PlayerIDs: []string{"4046"}}},
		},
		members: map[string][]model.LeagueUser{
			"1": {{UserID: "u1", DisplayName: "Alice"}, {UserID: "u2", DisplayName: "Bob"}},
		},
	}
	s := &fakeStore{
		rows: map[string][]model.RosterMembership{},
		players: map[string]model.PlayerRecord{
			"4046": {ID: "4046", DisplayName: "Patrick Mahomes", Position: "QB"},
			"6794": {ID: "6794", DisplayName: "Justin Jefferson", Position: "WR"},
		},
	}
	return g, s
}

func startedService(g *fakeGateway, s *fakeStore, opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithGateway(g),
		service.WithStore(s),
		service.WithDefaultSeason(2025),
		service.WithFanoutConcurrency(2),
	}, opts...)
	svc := service.New(opts...)
	So(svc.Start(context.Background()), ShouldBeNil)
	return svc
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a service without collaborators", t, func() {
		svc := service.New()

		Convey("Then it refuses to start", func() {
			So(errors.Is(svc.Start(context.Background()), service.ErrMissingDependency), ShouldBeTrue)
		})

		Convey("Then operations report not started", func() {
			_, err := svc.RunAggregation(context.Background(), "alice", 0, filter.Selection{})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
			So(svc.GetStats()["started"], ShouldEqual, false)
		})
	})

	Convey("Given a started service", t, func() {
		g, s := fixtures()
		svc := startedService(g, s)

		Convey("When starting again it is a no-op", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.GetStats()["started"], ShouldEqual, true)
			So(svc.GetStats()["directoryPlayers"], ShouldEqual, 2)
		})

		Convey("When stopped", func() {
			svc.Stop()
			So(svc.GetStats()["started"], ShouldEqual, false)
			svc.Stop()
		})
	})
}

func TestService_RunAggregation(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		g, s := fixtures()
		svc := startedService(g, s)
		defer svc.Stop()

		Convey("When nothing has run for a handle", func() {
			cached := svc.CachedResult(ctx, "alice")

			Convey("Then the cached view is empty rather than an error", func() {
				So(cached.RankedPlayers, ShouldBeEmpty)
				So(cached.RankedPlayers, ShouldNotBeNil)
				So(cached.FilterLabel, ShouldEqual, "")
			})

			Convey("And a player lookup misses", func() {
				_, err := svc.LookupSinglePlayer(ctx, "alice", "Patrick Mahomes")
				So(errors.Is(err, model.ErrNotFoundInCache), ShouldBeTrue)
			})
		})

		Convey("When an aggregation runs with the default season", func() {
			res, err := svc.RunAggregation(ctx, "Alice", 0, filter.Selection{})
			So(err, ShouldBeNil)

			Convey("Then the result ranks players and is cached", func() {
				So(res.Season, ShouldEqual, 2025)
				So(res.RankedPlayers[0].DisplayName, ShouldEqual, "Patrick Mahomes")
				So(res.RankedPlayers[0].PercentageLabel(), ShouldEqual, "100.00%")

				cached := svc.CachedResult(ctx, "alice")
				So(cached.FilterLabel, ShouldEqual, "All Leagues")
				So(cached.EligibleLeagueNames, ShouldResemble, []string{"Dynasty", "Best Ball"})
				So(svc.GetStats()["cachedHandles"], ShouldEqual, int64(1))
			})

			Convey("And single players are served from the cache", func() {
				got, err := svc.LookupSinglePlayer(ctx, "ALICE", "justin jefferson")
				So(err, ShouldBeNil)
				So(got.Player.PlayerID, ShouldEqual, "6794")
				So(got.MemberLeagueNames, ShouldResemble, []string{"Dynasty"})
				So(got.FilterLabel, ShouldEqual, "All Leagues")

				_, err = svc.LookupSinglePlayer(ctx, "alice", "Josh Allen")
				So(errors.Is(err, model.ErrNotFoundInCache), ShouldBeTrue)
			})

			Convey("And other handles do not see it", func() {
				So(svc.CachedResult(ctx, "bob").RankedPlayers, ShouldBeEmpty)
			})

			Convey("And a filtered rerun overwrites the cache", func() {
				_, err := svc.RunAggregation(ctx, "alice", 2025, filter.Selection{OnlyBestBall: true})
				So(err, ShouldBeNil)
				cached := svc.CachedResult(ctx, "alice")
				So(cached.FilterLabel, ShouldEqual, "Only Best Ball Leagues")
				So(cached.RankedPlayers, ShouldHaveLength, 1)
			})

			Convey("And a failed rerun keeps the previous cache", func() {
				g.mu.Lock()
				g.leagueErr = errors.New("unexpected status: 500")
				g.mu.Unlock()
				_, err := svc.RunAggregation(ctx, "alice", 2025, filter.Selection{})
				So(errors.Is(err, model.ErrUpstreamUnavailable), ShouldBeTrue)
				So(svc.CachedResult(ctx, "alice").RankedPlayers, ShouldHaveLength, 2)
			})
		})

		Convey("When the lookup input is blank", func() {
			_, err := svc.LookupSinglePlayer(ctx, "alice", " ")
			So(errors.Is(err, model.ErrMissingInput), ShouldBeTrue)
		})
	})
}

func TestService_PerHandleSerialisation(t *testing.T) {
	Convey("Given concurrent runs for the same handle", t, func() {
		g, s := fixtures()
		g.delay = 20 * time.Millisecond
		svc := startedService(g, s)
		defer svc.Stop()

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = svc.RunAggregation(context.Background(), "alice", 2025, filter.Selection{})
			}()
		}
		wg.Wait()

		Convey("Then they never overlap", func() {
			So(g.maxActive.Load(), ShouldEqual, 1)
			So(svc.GetStats()["lockedHandles"], ShouldEqual, 0)
			So(svc.GetStats()["inFlight"], ShouldEqual, int64(0))
		})
	})
}

func TestService_Compare(t *testing.T) {
	ctx := context.Background()

	Convey("Given a started service", t, func() {
		g, s := fixtures()
		svc := startedService(g, s)
		defer svc.Stop()

		Convey("When comparing two handles", func() {
			res, err := svc.CompareHandles(ctx, "alice", "bob", []int{2025})
			So(err, ShouldBeNil)
			So(res.SharedLeagueNames, ShouldResemble, []string{"Dynasty"})
			So(res.Total1, ShouldEqual, 2)
		})

		Convey("When comparing a league's members", func() {
			res, err := svc.CompareLeagueUsers(ctx, "1", []int{2025})
			So(err, ShouldBeNil)
			So(res.Duplicates["Dynasty (2025)"], ShouldResemble, []string{"Alice", "Bob"})
		})
	})
}
