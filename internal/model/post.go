package model

import "time"

// Post is a user-authored content record. Only the author may update or
// delete it.
type Post struct {
	ID        int64      `json:"id" db:"id"`
	AuthorID  int64      `json:"-" db:"author_id"`
	Author    string     `json:"author" db:"author"` // author email, joined on read
	Content   string     `json:"content" db:"content"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}
