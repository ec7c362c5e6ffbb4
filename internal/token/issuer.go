package token

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

// DefaultTTL is the sliding validity window applied at issuance and
// renewal.
const DefaultTTL = 2 * time.Hour

// tokenBytes of cryptographically secure randomness go into each token
// value before base64 encoding.
const tokenBytes = 128

// IssuerStore is the persistence surface the issuer needs.
type IssuerStore interface {
	GetAccessTokenForUser(ctx context.Context, userID int64) (*model.AccessToken, error)
	UpsertAccessToken(ctx context.Context, t *model.AccessToken) error
}

// Issuer creates and renews access tokens with a sliding validity window.
// A still-valid token is returned unchanged; an expired or missing one is
// replaced with a fresh random value expiring TTL from now.
type Issuer struct {
	store IssuerStore
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group
}

// NewIssuer creates an Issuer. A non-positive ttl falls back to
// DefaultTTL.
func NewIssuer(s IssuerStore, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{store: s, ttl: ttl, now: time.Now}
}

// NewIssuerWithClock creates an Issuer with an injected clock for tests.
func NewIssuerWithClock(s IssuerStore, ttl time.Duration, now func() time.Time) *Issuer {
	i := NewIssuer(s, ttl)
	i.now = now
	return i
}

// IssueOrRenew returns the user's live token, minting or replacing it if
// none is valid. Concurrent calls for the same user collapse into one
// check-then-write, so simultaneous logins observe a single token.
// Store failures surface after a single attempt; there is no retry.
func (i *Issuer) IssueOrRenew(ctx context.Context, userID int64) (*model.AccessToken, error) {
	v, err, _ := i.group.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		return i.issueOrRenew(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.AccessToken), nil
}

func (i *Issuer) issueOrRenew(ctx context.Context, userID int64) (*model.AccessToken, error) {
	now := i.now().Unix()

	existing, err := i.store.GetAccessTokenForUser(ctx, userID)
	switch {
	case err == nil:
		if existing.Expires > now {
			return existing, nil
		}
	case errors.Is(err, store.ErrNotFound):
		existing = &model.AccessToken{UserID: userID}
	default:
		return nil, fmt.Errorf("load access token: %w", err)
	}

	value, err := generateToken()
	if err != nil {
		return nil, err
	}

	existing.Token = value
	existing.Expires = now + int64(i.ttl.Seconds())
	if err := i.store.UpsertAccessToken(ctx, existing); err != nil {
		return nil, fmt.Errorf("persist access token: %w", err)
	}
	return existing, nil
}

func generateToken() (string, error) {
	bytes := make([]byte, tokenBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return base64.StdEncoding.EncodeToString(bytes), nil
}
