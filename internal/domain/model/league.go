// Package model contains domain models passed between layers.
package model

import "strings"

// StatusInSeason is the upstream league status of an active league.
const StatusInSeason = "in_season"

// UserIdentity maps a public handle to the upstream opaque id.
type UserIdentity struct {
	Handle   string
	OpaqueID string
}

// RawLeague is a league as listed by the upstream for one user and season.
type RawLeague struct {
	ID       string
	Name     string
	Status   string // e.g. "pre_draft", "drafting", "in_season", "complete"
	Season   int
	BestBall bool
}

// League is a league that survived the league filter for a run.
type League struct {
	ID       string
	Name     string
	Status   string
	BestBall bool
}

// Roster is one team's roster inside a league.
type Roster struct {
	OwnerID   string
	PlayerIDs []string
}

// LeagueUser is a participant of a league.
type LeagueUser struct {
	UserID      string
	DisplayName string
}

// RosterMembership records that a user rosters a player in a league.
type RosterMembership struct {
	UserID   string
	LeagueID string
	PlayerID string
}

// LeagueFailure describes a per-league (or per-season) fetch that failed and
// was excluded from a run's contribution.
type LeagueFailure struct {
	LeagueID   string `json:"league_id,omitempty"`
	LeagueName string `json:"league_name,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	Season     int    `json:"season,omitempty"`
	Reason     string `json:"reason"`
}

// NormalizeHandle returns the key form of a user handle.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimSpace(handle))
}
