package api

import (
	"net/http"
	"strings"
)

// searchRequest is the body of POST /players/search.
type searchRequest struct {
	Username   string `json:"username"`
	PlayerName string `json:"player_name"`
}

// PlayersHandler serves reads against cached results.
type PlayersHandler struct {
	deps Dependencies
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps Dependencies) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleSearch handles POST /players/search requests.
func (h *PlayersHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.LookupSinglePlayer(r.Context(), req.Username, req.PlayerName)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleCached handles GET /cache/{username} requests. A handle with no run
// yields an empty result, not an error.
func (h *PlayersHandler) HandleCached(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	handle := strings.TrimPrefix(r.URL.Path, "/cache/")
	if strings.TrimSpace(handle) == "" || strings.Contains(handle, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.CachedResult(r.Context(), handle))
}
