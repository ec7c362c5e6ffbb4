package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hearthapi/hearth/internal/model"
)

// GetAccessTokenForUser returns the (at most one) token owned by a user.
func (s *Store) GetAccessTokenForUser(ctx context.Context, userID int64) (*model.AccessToken, error) {
	var t model.AccessToken
	err := s.db.GetContext(ctx, &t,
		s.rebind("SELECT * FROM access_tokens WHERE user_id = ?"), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get access token: %w", err)
	}
	return &t, nil
}

// UpsertAccessToken writes a token for its user, replacing any existing
// row in place. The one-token-per-user invariant is enforced by the
// unique constraint on user_id; the conflict clause makes renewal an
// atomic single-statement replace.
func (s *Store) UpsertAccessToken(ctx context.Context, t *model.AccessToken) error {
	var q string
	if s.driver == DriverMySQL {
		q = `INSERT INTO access_tokens (user_id, token, expires) VALUES (?, ?, ?)
			ON DUPLICATE KEY UPDATE token = VALUES(token), expires = VALUES(expires)`
	} else {
		q = `INSERT INTO access_tokens (user_id, token, expires) VALUES (?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET token = excluded.token, expires = excluded.expires`
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(q), t.UserID, t.Token, t.Expires); err != nil {
		return fmt.Errorf("upsert access token: %w", err)
	}

	stored, err := s.GetAccessTokenForUser(ctx, t.UserID)
	if err != nil {
		return fmt.Errorf("reload access token: %w", err)
	}
	t.ID = stored.ID
	return nil
}

// ListAccessTokens returns every token record, order unspecified.
func (s *Store) ListAccessTokens(ctx context.Context) ([]model.AccessToken, error) {
	var tokens []model.AccessToken
	if err := s.db.SelectContext(ctx, &tokens, "SELECT * FROM access_tokens"); err != nil {
		return nil, fmt.Errorf("list access tokens: %w", err)
	}
	return tokens, nil
}

// DeleteAccessTokenIfExpired deletes the token only if it is still expired
// as of cutoff, so a renewal that happened after the caller's snapshot
// wins the race. Returns true when a row was deleted.
func (s *Store) DeleteAccessTokenIfExpired(ctx context.Context, id, cutoff int64) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM access_tokens WHERE id = ? AND expires <= ?"), id, cutoff)
	if err != nil {
		return false, fmt.Errorf("delete access token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete access token rows affected: %w", err)
	}
	return n > 0, nil
}
