package aggregator

import (
	"context"

	"github.com/okian/playerstock/internal/domain/model"
)

// Gateway is the subset of the upstream client the aggregator calls.
type Gateway interface {
	ResolveUser(ctx context.Context, handle string) (model.UserIdentity, error)
	ListLeagues(ctx context.Context, userID string, season int) ([]model.RawLeague, error)
	ListRosters(ctx context.Context, leagueID string) ([]model.Roster, error)
}

// IdentityStore persists handle to opaque id mappings.
type IdentityStore interface {
	UpsertIdentity(ctx context.Context, id model.UserIdentity) error
}

// MembershipStore atomically replaces a user's roster membership rows.
type MembershipStore interface {
	ReplaceMemberships(ctx context.Context, userID string, rows []model.RosterMembership) error
}

// Directory maps player ids to display records. A miss returns ok=false.
type Directory interface {
	LookupPlayer(ctx context.Context, id string) (model.PlayerRecord, bool, error)
}
