package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hearthapi/hearth/internal/model"
)

// PostQuery narrows and pages a posts listing. Filter matches content or
// author email with a substring search; Content and Author are exact-field
// searches (substring on content, exact on the normalized author email).
type PostQuery struct {
	Filter  string
	Content string
	Author  string
	Limit   int
	Offset  int
}

const postColumns = `p.id, p.author_id, p.content, p.created_at, p.updated_at, u.email AS author`

func (q PostQuery) where() (string, []interface{}) {
	clause := ""
	var args []interface{}

	add := func(cond string, vals ...interface{}) {
		if clause == "" {
			clause = " WHERE " + cond
		} else {
			clause += " AND " + cond
		}
		args = append(args, vals...)
	}

	if q.Filter != "" {
		needle := "%" + q.Filter + "%"
		add("(p.content LIKE ? OR u.email LIKE ?)", needle, needle)
	}
	if q.Content != "" {
		add("p.content LIKE ?", "%"+q.Content+"%")
	}
	if q.Author != "" {
		add("u.email = ?", NormalizeEmail(q.Author))
	}
	return clause, args
}

// CountPosts returns the number of posts matching the query's filters.
func (s *Store) CountPosts(ctx context.Context, q PostQuery) (int, error) {
	where, args := q.where()
	var count int
	query := "SELECT COUNT(p.id) FROM posts p INNER JOIN users u ON u.id = p.author_id" + where
	if err := s.db.GetContext(ctx, &count, s.rebind(query), args...); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return count, nil
}

// ListPosts returns the matching page of posts ordered by id ascending.
func (s *Store) ListPosts(ctx context.Context, q PostQuery) ([]model.Post, error) {
	where, args := q.where()
	query := "SELECT " + postColumns +
		" FROM posts p INNER JOIN users u ON u.id = p.author_id" + where +
		" ORDER BY p.id ASC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	var posts []model.Post
	if err := s.db.SelectContext(ctx, &posts, s.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// GetPost returns a single post with its author email.
func (s *Store) GetPost(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post
	query := "SELECT " + postColumns +
		" FROM posts p INNER JOIN users u ON u.id = p.author_id WHERE p.id = ?"
	if err := s.db.GetContext(ctx, &p, s.rebind(query), id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &p, nil
}

// CreatePost inserts a new post. ID and CreatedAt are populated on p.
func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	p.CreatedAt = time.Now().UTC()

	id, err := s.insert(ctx,
		"INSERT INTO posts (author_id, content, created_at) VALUES (?, ?, ?)",
		p.AuthorID, p.Content, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	p.ID = id
	return nil
}

// UpdatePost replaces a post's content and stamps updated_at.
func (s *Store) UpdatePost(ctx context.Context, p *model.Post) error {
	now := time.Now().UTC()
	p.UpdatedAt = &now

	result, err := s.db.ExecContext(ctx,
		s.rebind("UPDATE posts SET content = ?, updated_at = ? WHERE id = ?"),
		p.Content, now, p.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update post rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM posts WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete post rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
