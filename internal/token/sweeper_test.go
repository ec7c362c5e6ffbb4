package token

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hearthapi/hearth/internal/model"
)

// fakeSweeperStore serves a fixed token list and records deletions.
// renewed overrides the expiry the conditional delete sees, standing in
// for a token renewed between the listing snapshot and the delete.
type fakeSweeperStore struct {
	tokens  []model.AccessToken
	renewed map[int64]int64
	listErr error
	failIDs map[int64]error
	deleted []int64
}

func (f *fakeSweeperStore) ListAccessTokens(_ context.Context) ([]model.AccessToken, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.tokens, nil
}

func (f *fakeSweeperStore) DeleteAccessTokenIfExpired(_ context.Context, id, cutoff int64) (bool, error) {
	if err, ok := f.failIDs[id]; ok {
		return false, err
	}
	for _, t := range f.tokens {
		if t.ID != id {
			continue
		}
		if exp, ok := f.renewed[id]; ok {
			t.Expires = exp
		}
		if t.ExpiredAt(cutoff) {
			f.deleted = append(f.deleted, id)
			return true, nil
		}
	}
	return false, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSweepRemovesOnlyExpired(t *testing.T) {
	fs := &fakeSweeperStore{
		tokens: []model.AccessToken{
			{ID: 1, UserID: 1, Expires: 500},  // expired
			{ID: 2, UserID: 2, Expires: 1000}, // expires at the cutoff instant
			{ID: 3, UserID: 3, Expires: 1500}, // live
		},
	}
	sw := NewSweeper(fs, discardLogger())

	res := sw.Sweep(context.Background(), 1000)
	if res.Scanned != 3 {
		t.Errorf("got scanned %d, want 3", res.Scanned)
	}
	if res.Removed != 2 {
		t.Errorf("got removed %d, want 2", res.Removed)
	}
	if res.Failed != 0 {
		t.Errorf("got failed %d, want 0", res.Failed)
	}
	if len(fs.deleted) != 2 || fs.deleted[0] != 1 || fs.deleted[1] != 2 {
		t.Errorf("deleted %v, want [1 2]", fs.deleted)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	fs := &fakeSweeperStore{
		tokens: []model.AccessToken{{ID: 1, UserID: 1, Expires: 100}},
	}
	sw := NewSweeper(fs, discardLogger())
	ctx := context.Background()

	first := sw.Sweep(ctx, 1000)
	if first.Removed != 1 {
		t.Fatalf("first sweep removed %d, want 1", first.Removed)
	}

	// Simulate the row being gone on the second pass.
	fs.tokens = nil
	second := sw.Sweep(ctx, 1000)
	if second.Removed != 0 || second.Failed != 0 {
		t.Errorf("second sweep removed %d failed %d, want 0/0", second.Removed, second.Failed)
	}
}

func TestSweepContinuesPastDeleteFailures(t *testing.T) {
	boom := errors.New("lock timeout")
	fs := &fakeSweeperStore{
		tokens: []model.AccessToken{
			{ID: 1, UserID: 1, Expires: 100},
			{ID: 2, UserID: 2, Expires: 100},
			{ID: 3, UserID: 3, Expires: 100},
		},
		failIDs: map[int64]error{2: boom},
	}
	sw := NewSweeper(fs, discardLogger())

	res := sw.Sweep(context.Background(), 1000)
	if res.Removed != 2 {
		t.Errorf("got removed %d, want 2", res.Removed)
	}
	if res.Failed != 1 {
		t.Errorf("got failed %d, want 1", res.Failed)
	}
}

func TestSweepListFailure(t *testing.T) {
	fs := &fakeSweeperStore{listErr: errors.New("connection refused")}
	sw := NewSweeper(fs, discardLogger())

	res := sw.Sweep(context.Background(), 1000)
	if res.Scanned != 0 || res.Removed != 0 || res.Failed != 1 {
		t.Errorf("got %+v, want only one failure", res)
	}
}

func TestSweepSkipsTokenRenewedAfterSnapshot(t *testing.T) {
	// The listing snapshot says expired, but the token is renewed before
	// the conditional delete runs. It must survive and not count as
	// removed.
	fs := &fakeSweeperStore{
		tokens:  []model.AccessToken{{ID: 1, UserID: 1, Expires: 500}},
		renewed: map[int64]int64{1: 2000},
	}
	sw := NewSweeper(fs, discardLogger())

	res := sw.Sweep(context.Background(), 1000)
	if res.Removed != 0 {
		t.Errorf("renewed token counted as removed")
	}
	if res.Failed != 0 {
		t.Errorf("renewed token counted as failed")
	}
	if len(fs.deleted) != 0 {
		t.Errorf("renewed token was deleted: %v", fs.deleted)
	}
}
