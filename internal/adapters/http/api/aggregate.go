package api

import (
	"net/http"

	"github.com/okian/playerstock/internal/domain/filter"
)

// aggregateRequest is the body of POST /aggregate.
type aggregateRequest struct {
	Username        string `json:"username"`
	Season          int    `json:"season"`
	OnlyBestBall    bool   `json:"only_bestball"`
	ExcludeBestBall bool   `json:"exclude_bestball"`
}

// AggregateHandler handles aggregation runs.
type AggregateHandler struct {
	deps Dependencies
}

// NewAggregateHandler creates a new aggregate handler.
func NewAggregateHandler(deps Dependencies) *AggregateHandler {
	return &AggregateHandler{deps: deps}
}

// HandleAggregate handles POST /aggregate requests.
func (h *AggregateHandler) HandleAggregate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req aggregateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.RunAggregation(r.Context(), req.Username, req.Season, filter.Selection{
		OnlyBestBall:    req.OnlyBestBall,
		ExcludeBestBall: req.ExcludeBestBall,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
