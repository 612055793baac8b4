// Package sleeper is a read-only client for the Sleeper fantasy API. It
// implements the gateway the aggregation and comparison engines consume.
package sleeper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/logger"
	"github.com/okian/playerstock/pkg/metrics"
	"golang.org/x/time/rate"
)

const (
	defaultBaseURL = "https://api.sleeper.app/v1"
	defaultTimeout = 10 * time.Second
	defaultSport   = "nfl"
	userAgent      = "playerstock/1.0"
)

// Client talks to the Sleeper API. Requests are rate limited and never
// retried; a failed call is reported to the caller as is.
type Client struct {
	baseURL    string
	sport      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     logger.Logger
}

// NewClient creates a client with sane defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		sport:      defaultSport,
		httpClient: &http.Client{Timeout: defaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logger.OrNop(c.logger).Named("sleeper")
	return c
}

// ResolveUser maps a handle to the upstream opaque user id.
func (c *Client) ResolveUser(ctx context.Context, handle string) (model.UserIdentity, error) {
	var u *userResponse
	if err := c.get(ctx, "user", &u, "user", handle); err != nil {
		return model.UserIdentity{}, fmt.Errorf("resolve user %q: %w", handle, err)
	}
	if u == nil || u.UserID == "" {
		return model.UserIdentity{}, fmt.Errorf("resolve user %q: %w", handle, ErrNotFound)
	}
	return model.UserIdentity{Handle: handle, OpaqueID: u.UserID}, nil
}

// ListLeagues returns the leagues a user belongs to for a season, in feed order.
func (c *Client) ListLeagues(ctx context.Context, userID string, season int) ([]model.RawLeague, error) {
	var raw []leagueResponse
	if err := c.get(ctx, "leagues", &raw, "user", userID, "leagues", c.sport, strconv.Itoa(season)); err != nil {
		return nil, fmt.Errorf("list leagues for %s/%d: %w", userID, season, err)
	}
	out := make([]model.RawLeague, 0, len(raw))
	for _, l := range raw {
		s := parseSeason(l.Season)
		if s == 0 {
			s = season
		}
		out = append(out, model.RawLeague{
			ID:       l.LeagueID,
			Name:     l.Name,
			Status:   l.Status,
			Season:   s,
			BestBall: bool(l.Settings.BestBall),
		})
	}
	return out, nil
}

// ListRosters returns every roster of a league.
func (c *Client) ListRosters(ctx context.Context, leagueID string) ([]model.Roster, error) {
	var raw []rosterResponse
	if err := c.get(ctx, "rosters", &raw, "league", leagueID, "rosters"); err != nil {
		return nil, fmt.Errorf("list rosters for league %s: %w", leagueID, err)
	}
	out := make([]model.Roster, 0, len(raw))
	for _, r := range raw {
		out = append(out, model.Roster{OwnerID: r.OwnerID, PlayerIDs: r.Players})
	}
	return out, nil
}

// ListLeagueUsers returns the participants of a league.
func (c *Client) ListLeagueUsers(ctx context.Context, leagueID string) ([]model.LeagueUser, error) {
	var raw []leagueUserResponse
	if err := c.get(ctx, "league_users", &raw, "league", leagueID, "users"); err != nil {
		return nil, fmt.Errorf("list users for league %s: %w", leagueID, err)
	}
	out := make([]model.LeagueUser, 0, len(raw))
	for _, u := range raw {
		out = append(out, model.LeagueUser{UserID: u.UserID, DisplayName: u.DisplayName})
	}
	return out, nil
}

// ListPlayers downloads the bulk player feed for the configured sport. The
// result is ordered by player id.
func (c *Client) ListPlayers(ctx context.Context) ([]PlayerEntry, error) {
	var raw map[string]PlayerEntry
	if err := c.get(ctx, "players", &raw, "players", c.sport); err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	out := make([]PlayerEntry, 0, len(raw))
	for id, p := range raw {
		if p.PlayerID == "" {
			p.PlayerID = id
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out, nil
}

// get issues one GET against the path built from segments and decodes the
// JSON body into result.
func (c *Client) get(ctx context.Context, endpoint string, result any, segments ...string) (err error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.RecordUpstreamRequest(endpoint, status, float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordErrorByComponent("sleeper", endpoint)
			c.logger.Debug(ctx, "upstream request failed",
				logger.String("endpoint", endpoint),
				logger.Error(err),
			)
		}
	}()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %w", ErrRequestFailed, err)
	}

	u, err := url.JoinPath(c.baseURL, segments...)
	if err != nil {
		return fmt.Errorf("%w: build url: %w", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %w", ErrRequestFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	status = strconv.Itoa(resp.StatusCode)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	return nil
}
