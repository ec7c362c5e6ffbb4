package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/model"
	"github.com/hearthapi/hearth/internal/server/middleware"
	"github.com/hearthapi/hearth/internal/token"
)

// LoginHandler authenticates credentials and hands out access tokens.
// The login route authenticates in the handler itself rather than behind
// the auth middleware: credential failures here are masked with a single
// fixed reason, while header-shape failures keep their parse reasons.
type LoginHandler struct {
	resolver *auth.Resolver
	issuer   *token.Issuer
	logger   *slog.Logger
}

// NewLoginHandler creates a LoginHandler.
func NewLoginHandler(resolver *auth.Resolver, issuer *token.Issuer, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{resolver: resolver, issuer: issuer, logger: logger}
}

// Login verifies the presented credentials and returns the caller's
// access token, minting or renewing it as needed.
// POST /api/login
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	cred, err := middleware.ParseRequestCredential(r)
	if err != nil {
		writeFailure(w, http.StatusUnauthorized, auth.Reason(err))
		return
	}

	user, err := h.resolver.Resolve(r.Context(), cred)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrInvalidToken) {
			writeFailure(w, http.StatusUnauthorized, "Invalid username or password!")
			return
		}
		h.logger.Error("login: credential resolution failed", "error", err)
		writeFailure(w, http.StatusInternalServerError, "Login failed!")
		return
	}

	t, err := h.issuer.IssueOrRenew(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("login: token issuance failed", "user", user.Email, "error", err)
		writeFailure(w, http.StatusInternalServerError, "Login failed!")
		return
	}

	writeJSON(w, http.StatusOK, model.Success(map[string]string{
		"access_token": t.Token,
	}))
}
