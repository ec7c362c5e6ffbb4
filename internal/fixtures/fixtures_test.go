package fixtures

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/store"
)

func writeFixtureFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture file: %v", err)
	}
	return path
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(store.DriverSQLite, "")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadSeedsUsersAndPosts(t *testing.T) {
	s := newTestStore(t)
	path := writeFixtureFile(t, `
users:
  - ref: alice
    email: Alice@Example.com
    password: wonderland
  - email: bob@example.com
    password: sekrit123
posts:
  - content: down the rabbit hole
    author: alice
  - content: hello from bob
    author: bob@example.com
`)

	res, err := Load(context.Background(), s, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.Users != 2 || res.Posts != 2 {
		t.Errorf("got %+v, want 2 users and 2 posts", res)
	}

	ctx := context.Background()
	u, err := s.GetUserByEmail(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if !auth.VerifyPassword(u.PasswordHash, "wonderland") {
		t.Error("seeded password does not verify")
	}
	if len(u.APIKey) != 32 {
		t.Errorf("got api key %q, want 32 hex chars", u.APIKey)
	}

	n, err := s.CountPosts(ctx, store.PostQuery{Author: "alice@example.com"})
	if err != nil {
		t.Fatalf("CountPosts: %v", err)
	}
	if n != 1 {
		t.Errorf("got %d posts for alice, want 1", n)
	}
}

func TestLoadRejectsUnknownAuthor(t *testing.T) {
	s := newTestStore(t)
	path := writeFixtureFile(t, `
users:
  - email: alice@example.com
    password: wonderland
posts:
  - content: orphaned
    author: nobody
`)

	if _, err := Load(context.Background(), s, path); err == nil {
		t.Error("expected error for unknown author ref")
	}
}

func TestLoadRejectsIncompleteUser(t *testing.T) {
	s := newTestStore(t)

	for name, doc := range map[string]string{
		"missing email":    "users:\n  - password: x\n",
		"missing password": "users:\n  - email: a@b.c\n",
	} {
		path := writeFixtureFile(t, doc)
		if _, err := Load(context.Background(), s, path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStore(t)
	if _, err := Load(context.Background(), s, "/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
