package model

import "fmt"

// Placeholders used when the player directory has no entry for an id.
const (
	UnknownPlayerName     = "Unknown Player"
	UnknownPlayerPosition = "Unknown Position"
)

// PlayerRecord is a player directory entry.
type PlayerRecord struct {
	ID          string
	DisplayName string
	Position    string
}

// PlaceholderPlayer returns the record used for a directory miss.
func PlaceholderPlayer(id string) PlayerRecord {
	return PlayerRecord{ID: id, DisplayName: UnknownPlayerName, Position: UnknownPlayerPosition}
}

// AggregatedPlayer is one row of the ranked ownership list.
type AggregatedPlayer struct {
	PlayerID            string   `json:"player_id"`
	DisplayName         string   `json:"name"`
	Position            string   `json:"position"`
	LeagueCount         int      `json:"league_count"`
	OwnershipPercentage float64  `json:"ownership_percentage"`
	MemberLeagueNames   []string `json:"leagues"`
}

// PercentageLabel renders the ownership percentage with two decimals.
func (p AggregatedPlayer) PercentageLabel() string {
	return fmt.Sprintf("%.2f%%", p.OwnershipPercentage)
}
