package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hearthapi/hearth/internal/model"
)

// insert runs an INSERT and returns the generated id, papering over the
// LastInsertId / RETURNING split between the drivers.
func (s *Store) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.driver == DriverPostgres {
		var id int64
		err := s.db.QueryRowxContext(ctx, s.rebind(query+" RETURNING id"), args...).Scan(&id)
		return id, err
	}
	result, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// NormalizeEmail lowercases and trims a user identifier. Every lookup and
// write goes through this so the unique email column stays case-normalized.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts a new user. The ID, CreatedAt, and UpdatedAt fields
// on u are populated after a successful insert.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	now := time.Now().UTC()
	u.Email = NormalizeEmail(u.Email)
	u.CreatedAt = now
	u.UpdatedAt = now

	id, err := s.insert(ctx,
		`INSERT INTO users (email, password_hash, api_key, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		u.Email, u.PasswordHash, u.APIKey, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

// GetUserByEmail returns the user with the given (case-insensitive) email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := s.db.GetContext(ctx, &u,
		s.rebind("SELECT * FROM users WHERE email = ?"), NormalizeEmail(email))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

// GetUserByToken resolves an access token value to its owning user. Both
// the user and the token record are returned so callers can check expiry.
func (s *Store) GetUserByToken(ctx context.Context, token string) (*model.User, *model.AccessToken, error) {
	var row struct {
		model.User
		TokenID      int64  `db:"token_id"`
		TokenValue   string `db:"token_value"`
		TokenExpires int64  `db:"token_expires"`
	}
	const q = `SELECT u.*, t.id AS token_id, t.token AS token_value, t.expires AS token_expires
		FROM users u
		INNER JOIN access_tokens t ON t.user_id = u.id
		WHERE t.token = ?`
	if err := s.db.GetContext(ctx, &row, s.rebind(q), token); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("get user by token: %w", err)
	}

	u := row.User
	t := model.AccessToken{
		ID:      row.TokenID,
		UserID:  u.ID,
		Token:   row.TokenValue,
		Expires: row.TokenExpires,
	}
	return &u, &t, nil
}

// UpdateUserPassword replaces a user's password hash.
func (s *Store) UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error {
	return s.updateUserColumn(ctx, id, "password_hash", passwordHash)
}

// UpdateUserAPIKey replaces a user's API key.
func (s *Store) UpdateUserAPIKey(ctx context.Context, id int64, apiKey string) error {
	return s.updateUserColumn(ctx, id, "api_key", apiKey)
}

func (s *Store) updateUserColumn(ctx context.Context, id int64, column, value string) error {
	q := fmt.Sprintf("UPDATE users SET %s = ?, updated_at = ? WHERE id = ?", column)
	result, err := s.db.ExecContext(ctx, s.rebind(q), value, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update user %s: %w", column, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user %s rows affected: %w", column, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser removes a user by email. The access token and posts rows are
// cascade deleted by the foreign key constraints.
func (s *Store) DeleteUser(ctx context.Context, email string) error {
	result, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM users WHERE email = ?"), NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete user rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all users ordered by email.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	var users []model.User
	if err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY email"); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
