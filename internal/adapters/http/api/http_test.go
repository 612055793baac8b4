package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/playerstock/internal/adapters/http/api"
	"github.com/okian/playerstock/internal/domain/compare"
	"github.com/okian/playerstock/internal/domain/filter"
	"github.com/okian/playerstock/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type mockDependencies struct {
	aggErr     error
	lookupErr  error
	compareErr error
	lastSel    filter.Selection
	lastSeason int
	cached     map[string]model.CachedResult
}

func (m *mockDependencies) RunAggregation(_ context.Context, handle string, season int, sel filter.Selection) (model.AggregationResult, error) {
	m.lastSel, m.lastSeason = sel, season
	if m.aggErr != nil {
		return model.AggregationResult{}, m.aggErr
	}
	return model.AggregationResult{
		Handle:      handle,
		Season:      season,
		FilterLabel: "All Leagues",
		RankedPlayers: []model.AggregatedPlayer{
			{PlayerID: "4046", DisplayName: "Patrick Mahomes", Position: "QB", LeagueCount: 2, OwnershipPercentage: 100, MemberLeagueNames: []string{"A", "B"}},
		},
		EligibleLeagueNames: []string{"A", "B"},
	}, nil
}

func (m *mockDependencies) LookupSinglePlayer(_ context.Context, handle, name string) (model.PlayerLookup, error) {
	if m.lookupErr != nil {
		return model.PlayerLookup{}, m.lookupErr
	}
	return model.PlayerLookup{Handle: handle, Player: model.AggregatedPlayer{DisplayName: name}}, nil
}

func (m *mockDependencies) CachedResult(_ context.Context, handle string) model.CachedResult {
	if c, ok := m.cached[handle]; ok {
		return c
	}
	return model.CachedResult{RankedPlayers: []model.AggregatedPlayer{}}
}

func (m *mockDependencies) CompareHandles(_ context.Context, h1, h2 string, seasons []int) (compare.HandleOverlap, error) {
	if m.compareErr != nil {
		return compare.HandleOverlap{}, m.compareErr
	}
	return compare.HandleOverlap{Handle1: h1, Handle2: h2, Seasons: seasons, SharedLeagueNames: []string{"Dynasty"}, SharedCount: 1}, nil
}

func (m *mockDependencies) CompareLeagueUsers(_ context.Context, leagueID string, seasons []int) (compare.LeagueDuplicates, error) {
	if m.compareErr != nil {
		return compare.LeagueDuplicates{}, m.compareErr
	}
	return compare.LeagueDuplicates{
		LeagueID:   leagueID,
		Seasons:    seasons,
		Duplicates: map[string][]string{"Dynasty (2024)": {"Alice", "Bob"}},
	}, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

func newMux(deps *mockDependencies) *http.ServeMux {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}})
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	return body.Code
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("Then health serves Prometheus metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "playerstock_")
		})

		Convey("Then stats are served as JSON", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("Then wrong methods are rejected", func() {
			So(do(mux, http.MethodGet, "/aggregate", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("Then unknown paths are 404", func() {
			So(do(mux, http.MethodGet, "/unknown", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAggregateEndpoint(t *testing.T) {
	Convey("Given the aggregate endpoint", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When posting a valid request", func() {
			w := do(mux, http.MethodPost, "/aggregate", `{"username":"alice","season":2024,"only_bestball":true}`)

			Convey("Then the ranked result is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.lastSeason, ShouldEqual, 2024)
				So(deps.lastSel, ShouldResemble, filter.Selection{OnlyBestBall: true})
				var res model.AggregationResult
				So(json.Unmarshal(w.Body.Bytes(), &res), ShouldBeNil)
				So(res.RankedPlayers[0].DisplayName, ShouldEqual, "Patrick Mahomes")
			})
		})

		Convey("When the body is malformed", func() {
			w := do(mux, http.MethodPost, "/aggregate", `{"username":`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(errorCode(w), ShouldEqual, "bad_request")
		})

		Convey("When the service reports each error kind", func() {
			cases := []struct {
				err    error
				status int
				code   string
			}{
				{model.NewKind("filter", model.ErrConflictingFilter), http.StatusBadRequest, "bad_request"},
				{model.WithSubject("aggregate", model.ErrMissingInput, "username", nil), http.StatusBadRequest, "bad_request"},
				{model.WithSubject("resolve", model.ErrUnresolvedUser, "ghost", errors.New("404")), http.StatusNotFound, "not_found"},
				{model.WrapKind("list leagues", model.ErrUpstreamUnavailable, errors.New("503")), http.StatusBadGateway, "upstream_unavailable"},
				{errors.New("disk full"), http.StatusInternalServerError, "internal_error"},
			}
			for _, c := range cases {
				deps.aggErr = c.err
				w := do(mux, http.MethodPost, "/aggregate", `{"username":"alice"}`)
				So(w.Code, ShouldEqual, c.status)
				So(errorCode(w), ShouldEqual, c.code)
			}
		})

		Convey("When the conflict is reported the message is verbatim", func() {
			deps.aggErr = model.NewKind("filter", model.ErrConflictingFilter)
			w := do(mux, http.MethodPost, "/aggregate", `{"username":"alice","only_bestball":true,"exclude_bestball":true}`)
			So(w.Body.String(), ShouldContainSubstring, "please select only one best ball filter option")
		})
	})
}

func TestPlayersEndpoints(t *testing.T) {
	Convey("Given the player endpoints", t, func() {
		deps := &mockDependencies{cached: map[string]model.CachedResult{
			"alice": {FilterLabel: "All Leagues", RankedPlayers: []model.AggregatedPlayer{{PlayerID: "4046"}}},
		}}
		mux := newMux(deps)

		Convey("When searching a cached player", func() {
			w := do(mux, http.MethodPost, "/players/search", `{"username":"alice","player_name":"Patrick Mahomes"}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "Patrick Mahomes")
		})

		Convey("When the player is not in the cache", func() {
			deps.lookupErr = model.WithSubject("lookup player", model.ErrNotFoundInCache, "Josh Allen", nil)
			w := do(mux, http.MethodPost, "/players/search", `{"username":"alice","player_name":"Josh Allen"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When reading a cached result", func() {
			w := do(mux, http.MethodGet, "/cache/alice", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"filter_label":"All Leagues"`)
		})

		Convey("When reading a handle with no run", func() {
			w := do(mux, http.MethodGet, "/cache/bob", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"players":[]`)
		})

		Convey("When the cache path has no handle", func() {
			So(do(mux, http.MethodGet, "/cache/", "").Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestCompareEndpoints(t *testing.T) {
	Convey("Given the compare endpoints", t, func() {
		deps := &mockDependencies{}
		mux := newMux(deps)

		Convey("When comparing users", func() {
			w := do(mux, http.MethodPost, "/compare/users", `{"user1":"alice","user2":"bob","seasons":[2024]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"common_leagues":["Dynasty"]`)
		})

		Convey("When comparing a handle to itself", func() {
			deps.compareErr = model.NewKind("compare users", model.ErrSameUserCompared)
			w := do(mux, http.MethodPost, "/compare/users", `{"user1":"alice","user2":"alice"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When comparing league members", func() {
			w := do(mux, http.MethodPost, "/compare/league", `{"league_id":"L1","seasons":[2024]}`)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"Dynasty (2024)":["Alice","Bob"]`)
		})

		Convey("When the league is empty", func() {
			deps.compareErr = model.WithSubject("compare league", model.ErrEmptyLeague, "L2", nil)
			w := do(mux, http.MethodPost, "/compare/league", `{"league_id":"L2"}`)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("When the body carries unknown fields", func() {
			w := do(mux, http.MethodPost, "/compare/league", `{"league":"L1"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}
