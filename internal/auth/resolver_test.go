package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

// fakeCredentialStore serves a single user with one token.
type fakeCredentialStore struct {
	user  *model.User
	token *model.AccessToken
	err   error
}

func (f *fakeCredentialStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil && f.user.Email == email {
		return f.user, nil
	}
	return nil, store.ErrNotFound
}

func (f *fakeCredentialStore) GetUserByToken(_ context.Context, token string) (*model.User, *model.AccessToken, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if f.token != nil && f.token.Token == token {
		return f.user, f.token, nil
	}
	return nil, nil, store.ErrNotFound
}

func fixedClock(unix int64) func() time.Time {
	return func() time.Time { return time.Unix(unix, 0) }
}

func TestResolveBasic(t *testing.T) {
	hash, err := HashPassword("secret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	fs := &fakeCredentialStore{
		user: &model.User{ID: 1, Email: "alice@example.com", PasswordHash: hash},
	}
	r := NewResolver(fs)
	ctx := context.Background()

	u, err := r.Resolve(ctx, BasicCredential{User: "alice@example.com", Pass: "secret"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if u.ID != 1 {
		t.Errorf("got user %d, want 1", u.ID)
	}

	cases := []struct {
		name string
		cred BasicCredential
	}{
		{"wrong password", BasicCredential{User: "alice@example.com", Pass: "nope"}},
		{"unknown user", BasicCredential{User: "mallory@example.com", Pass: "secret"}},
		{"empty user", BasicCredential{User: "", Pass: "secret"}},
		{"empty password", BasicCredential{User: "alice@example.com", Pass: ""}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Resolve(ctx, tt.cred); !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("got %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestResolveBearer(t *testing.T) {
	fs := &fakeCredentialStore{
		user:  &model.User{ID: 1, Email: "alice@example.com"},
		token: &model.AccessToken{ID: 7, UserID: 1, Token: "tok", Expires: 1000},
	}
	ctx := context.Background()

	// One second before expiry the token still authenticates.
	r := NewResolverWithClock(fs, fixedClock(999))
	u, err := r.Resolve(ctx, BearerCredential{Token: "tok"})
	if err != nil {
		t.Fatalf("Resolve before expiry: %v", err)
	}
	if u.ID != 1 {
		t.Errorf("got user %d, want 1", u.ID)
	}

	// At the expiry instant it does not.
	r = NewResolverWithClock(fs, fixedClock(1000))
	if _, err := r.Resolve(ctx, BearerCredential{Token: "tok"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("at expiry: got %v, want ErrInvalidToken", err)
	}

	// Unknown token values never authenticate.
	r = NewResolverWithClock(fs, fixedClock(0))
	if _, err := r.Resolve(ctx, BearerCredential{Token: "other"}); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("unknown token: got %v, want ErrInvalidToken", err)
	}
}

func TestResolveStoreErrorIsNotMasked(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(&fakeCredentialStore{err: boom})
	ctx := context.Background()

	_, err := r.Resolve(ctx, BasicCredential{User: "a@b.c", Pass: "x"})
	if !errors.Is(err, boom) {
		t.Errorf("basic: got %v, want wrapped store error", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Error("store failure collapsed into a credential failure")
	}

	_, err = r.Resolve(ctx, BearerCredential{Token: "tok"})
	if !errors.Is(err, boom) {
		t.Errorf("bearer: got %v, want wrapped store error", err)
	}
}
