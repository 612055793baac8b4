package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/okian/playerstock/internal/domain/model"
	"github.com/okian/playerstock/pkg/metrics"
)

// UpsertIdentity records the handle to opaque id mapping, overwriting any
// earlier id for the same handle.
func (db *DB) UpsertIdentity(ctx context.Context, id model.UserIdentity) error {
	handle := model.NormalizeHandle(id.Handle)
	if handle == "" || id.OpaqueID == "" {
		return fmt.Errorf("upsert identity: %w", ErrEmptyKey)
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO user_searches (username, user_id, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(username) DO UPDATE SET
			user_id = excluded.user_id,
			updated_at = excluded.updated_at`,
		handle, id.OpaqueID)
	if err != nil {
		return fmt.Errorf("upsert identity %q: %w", handle, err)
	}
	return nil
}

// GetIdentity returns the stored mapping for handle or ErrNotFound.
func (db *DB) GetIdentity(ctx context.Context, handle string) (model.UserIdentity, error) {
	handle = model.NormalizeHandle(handle)
	var opaque string
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id FROM user_searches WHERE username = ?`, handle).Scan(&opaque)
	if errors.Is(err, sql.ErrNoRows) {
		return model.UserIdentity{}, ErrNotFound
	}
	if err != nil {
		return model.UserIdentity{}, fmt.Errorf("get identity %q: %w", handle, err)
	}
	return model.UserIdentity{Handle: handle, OpaqueID: opaque}, nil
}

// ReplaceMemberships deletes every membership row of userID and inserts rows
// in one transaction. Duplicate (league, player) rows collapse to one.
func (db *DB) ReplaceMemberships(ctx context.Context, userID string, rows []model.RosterMembership) error {
	if userID == "" {
		return fmt.Errorf("replace memberships: %w", ErrEmptyKey)
	}
	inserted := 0
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM player_league_associations WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("delete memberships: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO player_league_associations (user_id, league_id, player_id)
			VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare membership insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, r := range rows {
			res, err := stmt.ExecContext(ctx, userID, r.LeagueID, r.PlayerID)
			if err != nil {
				return fmt.Errorf("insert membership %s/%s: %w", r.LeagueID, r.PlayerID, err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		metrics.RecordErrorByComponent("repository", "replace_memberships")
		return fmt.Errorf("replace memberships for %s: %w", userID, err)
	}
	metrics.RecordMembershipRows(inserted)
	return nil
}

// ListMemberships returns the stored rows of userID in insertion order.
func (db *DB) ListMemberships(ctx context.Context, userID string) ([]model.RosterMembership, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT user_id, league_id, player_id
		FROM player_league_associations
		WHERE user_id = ?
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list memberships for %s: %w", userID, err)
	}
	defer func() { _ = rows.Close() }()

	out := []model.RosterMembership{}
	for rows.Next() {
		var m model.RosterMembership
		if err := rows.Scan(&m.UserID, &m.LeagueID, &m.PlayerID); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CountMemberships returns how many leagues of userID contain playerID. An
// empty playerID counts every row of the user.
func (db *DB) CountMemberships(ctx context.Context, userID, playerID string) (int, error) {
	var (
		n   int
		err error
	)
	if playerID == "" {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM player_league_associations WHERE user_id = ?`,
			userID).Scan(&n)
	} else {
		err = db.conn.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM player_league_associations WHERE user_id = ? AND player_id = ?`,
			userID, playerID).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count memberships for %s: %w", userID, err)
	}
	return n, nil
}

// LookupPlayer returns the directory record for id. The boolean is false on
// a miss; err is reserved for storage failures.
func (db *DB) LookupPlayer(ctx context.Context, id string) (model.PlayerRecord, bool, error) {
	var p model.PlayerRecord
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, position FROM players WHERE id = ?`, id).
		Scan(&p.ID, &p.DisplayName, &p.Position)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlayerRecord{}, false, nil
	}
	if err != nil {
		return model.PlayerRecord{}, false, fmt.Errorf("lookup player %s: %w", id, err)
	}
	return p, true, nil
}

// UpsertPlayers writes directory records in one transaction and returns the
// number written.
func (db *DB) UpsertPlayers(ctx context.Context, players []model.PlayerRecord) (int, error) {
	written := 0
	err := db.WithTransaction(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO players (id, name, position) VALUES (?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				name = excluded.name,
				position = excluded.position`)
		if err != nil {
			return fmt.Errorf("prepare player upsert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, p := range players {
			if p.ID == "" {
				return fmt.Errorf("upsert player: %w", ErrEmptyKey)
			}
			if _, err := stmt.ExecContext(ctx, p.ID, p.DisplayName, p.Position); err != nil {
				return fmt.Errorf("upsert player %s: %w", p.ID, err)
			}
			written++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return written, nil
}

// CountPlayers returns the directory size.
func (db *DB) CountPlayers(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM players`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count players: %w", err)
	}
	return n, nil
}
