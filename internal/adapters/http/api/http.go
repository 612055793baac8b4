// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/okian/playerstock/internal/domain/compare"
	"github.com/okian/playerstock/internal/domain/filter"
	"github.com/okian/playerstock/internal/domain/model"
)

// maxBodyBytes caps request bodies; every request is a small JSON object.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	RunAggregation(ctx context.Context, handle string, season int, sel filter.Selection) (model.AggregationResult, error)
	LookupSinglePlayer(ctx context.Context, handle, playerName string) (model.PlayerLookup, error)
	CachedResult(ctx context.Context, handle string) model.CachedResult
	CompareHandles(ctx context.Context, handle1, handle2 string, seasons []int) (compare.HandleOverlap, error)
	CompareLeagueUsers(ctx context.Context, leagueID string, seasons []int) (compare.LeagueDuplicates, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	aggregateHandler *AggregateHandler
	playersHandler   *PlayersHandler
	compareHandler   *CompareHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(statsProvider),
		aggregateHandler: NewAggregateHandler(deps),
		playersHandler:   NewPlayersHandler(deps),
		compareHandler:   NewCompareHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/aggregate", MetricsMiddleware(s.aggregateHandler.HandleAggregate, "aggregate"))
	mux.HandleFunc("/players/search", MetricsMiddleware(s.playersHandler.HandleSearch, "players_search"))
	mux.HandleFunc("/cache/", MetricsMiddleware(s.playersHandler.HandleCached, "cache"))
	mux.HandleFunc("/compare/users", MetricsMiddleware(s.compareHandler.HandleCompareUsers, "compare_users"))
	mux.HandleFunc("/compare/league", MetricsMiddleware(s.compareHandler.HandleCompareLeague, "compare_league"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError maps a service error onto a status code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case model.IsCallerError(err), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, model.ErrUnresolvedUser),
		errors.Is(err, model.ErrNotFoundInCache),
		errors.Is(err, model.ErrEmptyLeague):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, model.ErrUpstreamUnavailable):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// decodeJSON reads a single JSON object from r into v.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

// requireMethod writes 405 and returns false when r does not use method.
func requireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	return false
}
