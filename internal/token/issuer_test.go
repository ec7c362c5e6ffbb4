package token

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

// fakeIssuerStore keeps one token per user in memory.
type fakeIssuerStore struct {
	mu      sync.Mutex
	tokens  map[int64]*model.AccessToken
	upserts int
	getErr  error
}

func newFakeIssuerStore() *fakeIssuerStore {
	return &fakeIssuerStore{tokens: make(map[int64]*model.AccessToken)}
}

func (f *fakeIssuerStore) GetAccessTokenForUser(_ context.Context, userID int64) (*model.AccessToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	t, ok := f.tokens[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeIssuerStore) UpsertAccessToken(_ context.Context, t *model.AccessToken) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if t.ID == 0 {
		t.ID = int64(len(f.tokens) + 1)
	}
	cp := *t
	f.tokens[t.UserID] = &cp
	return nil
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestIssueMintsToken(t *testing.T) {
	fs := newFakeIssuerStore()
	iss := NewIssuerWithClock(fs, time.Hour, fixedClock(1000))

	tok, err := iss.IssueOrRenew(context.Background(), 1)
	if err != nil {
		t.Fatalf("IssueOrRenew: %v", err)
	}
	if tok.UserID != 1 {
		t.Errorf("got user %d, want 1", tok.UserID)
	}
	if tok.Expires != 1000+3600 {
		t.Errorf("got expires %d, want %d", tok.Expires, 1000+3600)
	}
	// 128 random bytes base64-encode to 172 characters.
	if len(tok.Token) != 172 {
		t.Errorf("got token length %d, want 172", len(tok.Token))
	}
}

func TestIssueReturnsLiveTokenUnchanged(t *testing.T) {
	fs := newFakeIssuerStore()
	iss := NewIssuerWithClock(fs, time.Hour, fixedClock(1000))
	ctx := context.Background()

	first, err := iss.IssueOrRenew(ctx, 1)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := iss.IssueOrRenew(ctx, 1)
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if second.Token != first.Token || second.Expires != first.Expires {
		t.Error("live token was replaced on renewal")
	}
	if fs.upserts != 1 {
		t.Errorf("got %d upserts, want 1", fs.upserts)
	}
}

func TestIssueReplacesExpiredToken(t *testing.T) {
	fs := newFakeIssuerStore()
	ctx := context.Background()

	iss := NewIssuerWithClock(fs, time.Hour, fixedClock(1000))
	first, err := iss.IssueOrRenew(ctx, 1)
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}

	// At the expiry instant the token is no longer live and is rotated.
	late := NewIssuerWithClock(fs, time.Hour, fixedClock(first.Expires))
	second, err := late.IssueOrRenew(ctx, 1)
	if err != nil {
		t.Fatalf("renewal: %v", err)
	}
	if second.Token == first.Token {
		t.Error("expired token value was reused")
	}
	if second.Expires != first.Expires+3600 {
		t.Errorf("got expires %d, want %d", second.Expires, first.Expires+3600)
	}
	if second.ID != first.ID {
		t.Errorf("renewal changed the row identity: %d -> %d", first.ID, second.ID)
	}
}

func TestIssueDistinctUsersGetDistinctTokens(t *testing.T) {
	fs := newFakeIssuerStore()
	iss := NewIssuerWithClock(fs, time.Hour, fixedClock(1000))
	ctx := context.Background()

	a, _ := iss.IssueOrRenew(ctx, 1)
	b, _ := iss.IssueOrRenew(ctx, 2)
	if a.Token == b.Token {
		t.Error("two users share a token value")
	}
}

func TestIssueConcurrentCallsCollapse(t *testing.T) {
	fs := newFakeIssuerStore()
	iss := NewIssuerWithClock(fs, time.Hour, fixedClock(1000))
	ctx := context.Background()

	const n = 16
	tokens := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := iss.IssueOrRenew(ctx, 1)
			if err != nil {
				t.Errorf("IssueOrRenew: %v", err)
				return
			}
			tokens[i] = tok.Token
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if tokens[i] != tokens[0] {
			t.Fatal("concurrent logins observed different tokens")
		}
	}
}

func TestIssueStoreErrorSurfaces(t *testing.T) {
	fs := newFakeIssuerStore()
	fs.getErr = errors.New("disk gone")
	iss := NewIssuerWithClock(fs, time.Hour, fixedClock(1000))

	if _, err := iss.IssueOrRenew(context.Background(), 1); !errors.Is(err, fs.getErr) {
		t.Errorf("got %v, want wrapped store error", err)
	}
	if fs.upserts != 0 {
		t.Errorf("issuer wrote despite load failure: %d upserts", fs.upserts)
	}
}
