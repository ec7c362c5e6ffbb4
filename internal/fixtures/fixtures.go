// Package fixtures loads seed data from a YAML file into the store,
// mainly for development environments and end-to-end testing.
package fixtures

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

// File is the top-level fixture document.
type File struct {
	Users []UserFixture `yaml:"users"`
	Posts []PostFixture `yaml:"posts"`
}

// UserFixture declares a user to seed. Ref names the user for posts to
// point at; it defaults to the email.
type UserFixture struct {
	Ref      string `yaml:"ref"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// PostFixture declares a post to seed. Author is the ref (or email) of a
// user declared in the same file.
type PostFixture struct {
	Content string `yaml:"content"`
	Author  string `yaml:"author"`
}

// Result reports what a Load created.
type Result struct {
	Users int
	Posts int
}

// Load reads the fixture file at path and inserts its users and posts.
// Each user gets a bcrypt-hashed password and a fresh API key. Loading is
// not idempotent: rerunning against a store that already holds one of the
// emails fails on the unique constraint.
func Load(ctx context.Context, s *store.Store, path string) (Result, error) {
	var res Result

	raw, err := os.ReadFile(path)
	if err != nil {
		return res, fmt.Errorf("read fixtures: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return res, fmt.Errorf("parse fixtures: %w", err)
	}

	byRef := make(map[string]*model.User, len(f.Users))
	for i, uf := range f.Users {
		if uf.Email == "" {
			return res, fmt.Errorf("fixtures: user %d has no email", i)
		}
		if uf.Password == "" {
			return res, fmt.Errorf("fixtures: user %q has no password", uf.Email)
		}

		hash, err := auth.HashPassword(uf.Password)
		if err != nil {
			return res, fmt.Errorf("fixtures: hash password for %q: %w", uf.Email, err)
		}
		apiKey, err := auth.GenerateAPIKey()
		if err != nil {
			return res, fmt.Errorf("fixtures: generate api key for %q: %w", uf.Email, err)
		}

		u := &model.User{
			Email:        store.NormalizeEmail(uf.Email),
			PasswordHash: hash,
			APIKey:       apiKey,
		}
		if err := s.CreateUser(ctx, u); err != nil {
			return res, fmt.Errorf("fixtures: create user %q: %w", uf.Email, err)
		}
		res.Users++

		ref := uf.Ref
		if ref == "" {
			ref = uf.Email
		}
		byRef[ref] = u
	}

	for i, pf := range f.Posts {
		author, ok := byRef[pf.Author]
		if !ok {
			return res, fmt.Errorf("fixtures: post %d references unknown author %q", i, pf.Author)
		}
		p := &model.Post{
			AuthorID: author.ID,
			Content:  pf.Content,
		}
		if err := s.CreatePost(ctx, p); err != nil {
			return res, fmt.Errorf("fixtures: create post %d: %w", i, err)
		}
		res.Posts++
	}

	return res, nil
}
