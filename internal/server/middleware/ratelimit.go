package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/limiter"
	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/store"
)

// AnonymousIdentity is the shared bucket for requests that carry no
// identifiable credentials.
const AnonymousIdentity = "anon"

// IdentityKey derives the rate-limit identity from a request. The
// admission check and the response-header annotation both go through this
// one function, so the headers always describe the bucket that was
// actually charged. Authentication has not run yet at admission time, so
// the key is derived from the presented credentials, not a verified
// principal: basic credentials key by the claimed email, bearer
// credentials by a digest of the token, everything else shares the
// anonymous bucket.
func IdentityKey(r *http.Request) string {
	cred, err := ParseRequestCredential(r)
	if err != nil {
		return AnonymousIdentity
	}
	switch c := cred.(type) {
	case auth.BasicCredential:
		if c.User == "" {
			return AnonymousIdentity
		}
		return "user:" + store.NormalizeEmail(c.User)
	case auth.BearerCredential:
		digest := sha256.Sum256([]byte(c.Token))
		return "token:" + hex.EncodeToString(digest[:8])
	default:
		return AnonymousIdentity
	}
}

// RateLimit returns the HTTP middleware enforcing admission control. Per
// request it charges one unit to the caller's bucket before anything else
// runs; a rejected request is short-circuited with a 429 carrying the
// X-RateLimit-* headers of that same decision. For admitted requests a
// zero-cost peek recomputes the headers immediately before the first byte
// of the response, whatever the downstream outcome was.
//
// A ledger failure admits the request with a logged warning: this API
// prefers serving over strict limiting when the limiter backend is down.
func RateLimit(ledger limiter.Ledger, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityKey(r)

			decision, err := ledger.Take(r.Context(), identity, 1)
			if err != nil {
				logger.Warn("rate limit ledger unavailable, admitting request",
					"identity", identity, "error", err)
				next.ServeHTTP(w, r)
				return
			}

			if !decision.Accepted {
				setRateHeaders(w.Header(), decision)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(model.Failed("Rate Limit exceeded!"))
				return
			}

			aw := &annotatedWriter{
				ResponseWriter: w,
				annotate: func(h http.Header) {
					peek, err := ledger.Take(r.Context(), identity, 0)
					if err != nil {
						logger.Warn("rate limit peek failed",
							"identity", identity, "error", err)
						return
					}
					setRateHeaders(h, peek)
				},
			}
			next.ServeHTTP(aw, r)
			aw.ensureAnnotated()
		})
	}
}

func setRateHeaders(h http.Header, d limiter.Decision) {
	h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
	h.Set("X-RateLimit-RetryAfter", d.RetryAfter.Format(limiter.RetryAfterLayout))
	h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
}

// annotatedWriter defers the rate-header annotation until the response is
// about to be written, so the peek reflects every consuming take that
// happened during the request.
type annotatedWriter struct {
	http.ResponseWriter
	annotate  func(http.Header)
	annotated bool
}

func (w *annotatedWriter) ensureAnnotated() {
	if w.annotated {
		return
	}
	w.annotated = true
	w.annotate(w.Header())
}

func (w *annotatedWriter) WriteHeader(code int) {
	w.ensureAnnotated()
	w.ResponseWriter.WriteHeader(code)
}

func (w *annotatedWriter) Write(b []byte) (int, error) {
	w.ensureAnnotated()
	return w.ResponseWriter.Write(b)
}

// Unwrap returns the underlying ResponseWriter, required for interface
// assertions through middleware chains.
func (w *annotatedWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
