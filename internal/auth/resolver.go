package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

// CredentialStore is the lookup surface the resolver needs from the
// persistence layer.
type CredentialStore interface {
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByToken(ctx context.Context, token string) (*model.User, *model.AccessToken, error)
}

// Resolver authenticates parsed credentials against the store. It is
// stateless per request and never mutates the store.
type Resolver struct {
	store CredentialStore
	now   func() time.Time
}

// NewResolver creates a Resolver using the real clock.
func NewResolver(s CredentialStore) *Resolver {
	return &Resolver{store: s, now: time.Now}
}

// NewResolverWithClock creates a Resolver with an injected clock, for
// expiry tests.
func NewResolverWithClock(s CredentialStore, now func() time.Time) *Resolver {
	return &Resolver{store: s, now: now}
}

// Resolve authenticates the credential and returns the owning user.
// Failures are always one of the sentinel errors in this package; store
// errors other than a missing row are wrapped and reported as-is for
// logging, never shown to clients.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (*model.User, error) {
	switch c := cred.(type) {
	case BasicCredential:
		return r.resolveBasic(ctx, c)
	case BearerCredential:
		return r.resolveBearer(ctx, c)
	default:
		return nil, ErrMalformedAuthorization
	}
}

func (r *Resolver) resolveBasic(ctx context.Context, c BasicCredential) (*model.User, error) {
	if c.User == "" || c.Pass == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := r.store.GetUserByEmail(ctx, c.User)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("resolve basic credentials: %w", err)
	}

	if !VerifyPassword(user.PasswordHash, c.Pass) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (r *Resolver) resolveBearer(ctx context.Context, c BearerCredential) (*model.User, error) {
	user, token, err := r.store.GetUserByToken(ctx, c.Token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("resolve bearer token: %w", err)
	}

	// Expiry is also enforced here, not only by the sweeper, so an
	// expired-but-not-yet-swept token cannot authenticate.
	if token.ExpiredAt(r.now().Unix()) {
		return nil, ErrInvalidToken
	}
	return user, nil
}
