package store

import (
	"fmt"
	"strings"
)

// dialect holds the few DDL fragments that differ between the supported
// databases.
type dialect struct {
	serialPK  string
	timestamp string
}

func (s *Store) dialect() dialect {
	switch s.driver {
	case DriverMySQL:
		return dialect{serialPK: "BIGINT AUTO_INCREMENT PRIMARY KEY", timestamp: "DATETIME"}
	case DriverPostgres:
		return dialect{serialPK: "BIGSERIAL PRIMARY KEY", timestamp: "TIMESTAMPTZ"}
	default:
		return dialect{serialPK: "INTEGER PRIMARY KEY AUTOINCREMENT", timestamp: "DATETIME"}
	}
}

func (s *Store) migrate() error {
	d := s.dialect()

	migrations := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
			id %s,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			api_key VARCHAR(64) NOT NULL,
			created_at %s NOT NULL,
			updated_at %s NOT NULL
		)`, d.serialPK, d.timestamp, d.timestamp),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS access_tokens (
			id %s,
			user_id BIGINT UNIQUE NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token VARCHAR(512) UNIQUE NOT NULL,
			expires BIGINT NOT NULL
		)`, d.serialPK),

		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS posts (
			id %s,
			author_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			content TEXT NOT NULL,
			created_at %s NOT NULL,
			updated_at %s
		)`, d.serialPK, d.timestamp, d.timestamp),

		s.indexDDL("idx_access_tokens_expires", "access_tokens", "expires"),
		s.indexDDL("idx_posts_author_id", "posts", "author_id"),
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			// MySQL has no IF NOT EXISTS for indexes; treat a duplicate
			// index as a no-op so migrations stay idempotent.
			if strings.Contains(err.Error(), "Duplicate key name") {
				continue
			}
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

func (s *Store) indexDDL(name, table, column string) string {
	if s.driver == DriverMySQL {
		return fmt.Sprintf("CREATE INDEX %s ON %s(%s)", name, table, column)
	}
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", name, table, column)
}
