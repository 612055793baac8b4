package model

// AggregationResult is the outcome of one roster aggregation run.
type AggregationResult struct {
	RunID               string             `json:"run_id"`
	Handle              string             `json:"username"`
	OpaqueID            string             `json:"user_id"`
	Season              int                `json:"season"`
	FilterLabel         string             `json:"filter_label"`
	RankedPlayers       []AggregatedPlayer `json:"players"`
	EligibleLeagueIDs   []string           `json:"league_ids"`
	EligibleLeagueNames []string           `json:"all_leagues"`
	FailedLeagues       []LeagueFailure    `json:"failed_leagues,omitempty"`
}

// CachedResult is what the result cache keeps for a handle between runs.
type CachedResult struct {
	RankedPlayers       []AggregatedPlayer `json:"players"`
	FilterLabel         string             `json:"filter_label"`
	EligibleLeagueIDs   []string           `json:"league_ids"`
	EligibleLeagueNames []string           `json:"all_leagues"`
}

// Cached returns the cacheable view of the result.
func (r AggregationResult) Cached() CachedResult {
	return CachedResult{
		RankedPlayers:       r.RankedPlayers,
		FilterLabel:         r.FilterLabel,
		EligibleLeagueIDs:   r.EligibleLeagueIDs,
		EligibleLeagueNames: r.EligibleLeagueNames,
	}
}

// PlayerLookup answers a single-player query against a cached result.
type PlayerLookup struct {
	Handle              string           `json:"username"`
	Player              AggregatedPlayer `json:"player"`
	MemberLeagueNames   []string         `json:"leagues"`
	FilterLabel         string           `json:"filter_label"`
	EligibleLeagueNames []string         `json:"all_leagues"`
}
