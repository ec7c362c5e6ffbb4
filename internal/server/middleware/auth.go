package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/model"
)

type contextKeyAuth string

// AuthUserKey is the context key for the authenticated user.
const AuthUserKey contextKeyAuth = "auth_user"

// Authenticate returns an HTTP middleware that parses the Authorization
// header (basic or bearer scheme) and resolves it to a user. On success
// the user is attached to the request context; on failure the request is
// terminated with a 401 and the resolver's fixed user-facing reason.
func Authenticate(resolver *auth.Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cred, err := ParseRequestCredential(r)
			if err != nil {
				writeUnauthenticated(w, auth.Reason(err))
				return
			}

			user, err := resolver.Resolve(r.Context(), cred)
			if err != nil {
				writeUnauthenticated(w, auth.Reason(err))
				return
			}

			ctx := context.WithValue(r.Context(), AuthUserKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ParseRequestCredential classifies the request's Authorization header,
// feeding the transport-decoded Basic credentials into the parse step.
func ParseRequestCredential(r *http.Request) (auth.Credential, error) {
	basicUser, basicPass, _ := r.BasicAuth()
	return auth.ParseAuthorization(r.Header.Get("Authorization"), basicUser, basicPass)
}

// CurrentUser extracts the authenticated user from the context. Returns
// nil for unauthenticated requests.
func CurrentUser(ctx context.Context) *model.User {
	if u, ok := ctx.Value(AuthUserKey).(*model.User); ok {
		return u
	}
	return nil
}

func writeUnauthenticated(w http.ResponseWriter, reason string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(model.Failed(reason))
}
