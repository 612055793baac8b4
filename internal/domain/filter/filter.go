// Package filter classifies a season's leagues into the eligible set for a run.
package filter

import (
	"github.com/okian/playerstock/internal/domain/model"
)

// Mode selects how best-ball leagues are treated.
type Mode int

// Supported modes.
const (
	ModeAll Mode = iota
	ModeOnlyBestBall
	ModeExcludeBestBall
)

// Label returns the human-readable description of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeOnlyBestBall:
		return "Only Best Ball Leagues"
	case ModeExcludeBestBall:
		return "Excluding Best Ball Leagues"
	default:
		return "All Leagues"
	}
}

func (m Mode) String() string {
	switch m {
	case ModeOnlyBestBall:
		return "only_best_ball"
	case ModeExcludeBestBall:
		return "exclude_best_ball"
	default:
		return "all"
	}
}

// Selection is the pair of best-ball toggles a caller submits.
type Selection struct {
	OnlyBestBall    bool `json:"only_bestball"`
	ExcludeBestBall bool `json:"exclude_bestball"`
}

// Mode resolves the toggles. Both set is a caller error.
func (s Selection) Mode() (Mode, error) {
	switch {
	case s.OnlyBestBall && s.ExcludeBestBall:
		return ModeAll, model.NewKind("filter", model.ErrConflictingFilter)
	case s.OnlyBestBall:
		return ModeOnlyBestBall, nil
	case s.ExcludeBestBall:
		return ModeExcludeBestBall, nil
	default:
		return ModeAll, nil
	}
}

// Eligible reports whether a single league passes the filter.
func Eligible(l model.RawLeague, mode Mode) bool {
	if l.Status != model.StatusInSeason {
		return false
	}
	switch mode {
	case ModeOnlyBestBall:
		return l.BestBall
	case ModeExcludeBestBall:
		return !l.BestBall
	default:
		return true
	}
}

// Apply returns the eligible leagues in feed order.
func Apply(leagues []model.RawLeague, mode Mode) []model.League {
	out := make([]model.League, 0, len(leagues))
	for _, l := range leagues {
		if !Eligible(l, mode) {
			continue
		}
		out = append(out, model.League{
			ID:       l.ID,
			Name:     l.Name,
			Status:   l.Status,
			BestBall: l.BestBall,
		})
	}
	return out
}

// Names returns the league names in order.
func Names(leagues []model.League) []string {
	out := make([]string, len(leagues))
	for i, l := range leagues {
		out[i] = l.Name
	}
	return out
}

// IDs returns the league ids in order.
func IDs(leagues []model.League) []string {
	out := make([]string, len(leagues))
	for i, l := range leagues {
		out[i] = l.ID
	}
	return out
}
