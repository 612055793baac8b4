package sleeper

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type userResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

type leagueResponse struct {
	LeagueID string         `json:"league_id"`
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Season   string         `json:"season"`
	Settings leagueSettings `json:"settings"`
}

type leagueSettings struct {
	BestBall flag `json:"best_ball"`
}

type rosterResponse struct {
	RosterID int      `json:"roster_id"`
	OwnerID  string   `json:"owner_id"`
	Players  []string `json:"players"`
}

type leagueUserResponse struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// PlayerEntry is one record of the bulk player feed.
type PlayerEntry struct {
	PlayerID  string `json:"player_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	FullName  string `json:"full_name"`
	Position  string `json:"position"`
}

// flag decodes the upstream's best_ball setting, which arrives as 0/1, a
// boolean, or is missing.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "null", "":
		*f = false
		return nil
	case "true":
		*f = true
		return nil
	case "false":
		*f = false
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("best_ball: %w", err)
	}
	v, err := n.Float64()
	if err != nil {
		return fmt.Errorf("best_ball: %w", err)
	}
	*f = v != 0
	return nil
}

func parseSeason(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
