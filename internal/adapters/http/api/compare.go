package api

import (
	"net/http"
)

type compareUsersRequest struct {
	User1   string `json:"user1"`
	User2   string `json:"user2"`
	Seasons []int  `json:"seasons"`
}

type compareLeagueRequest struct {
	LeagueID string `json:"league_id"`
	Seasons  []int  `json:"seasons"`
}

// CompareHandler handles the comparison endpoints.
type CompareHandler struct {
	deps Dependencies
}

// NewCompareHandler creates a new compare handler.
func NewCompareHandler(deps Dependencies) *CompareHandler {
	return &CompareHandler{deps: deps}
}

// HandleCompareUsers handles POST /compare/users requests.
func (h *CompareHandler) HandleCompareUsers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req compareUsersRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.CompareHandles(r.Context(), req.User1, req.User2, req.Seasons)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCompareLeague handles POST /compare/league requests.
func (h *CompareHandler) HandleCompareLeague(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req compareLeagueRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.CompareLeagueUsers(r.Context(), req.LeagueID, req.Seasons)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
