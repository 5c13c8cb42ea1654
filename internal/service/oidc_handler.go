package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmynk/scrtch/internal/auth"
	"github.com/mmynk/scrtch/pkg/api"
)

// OIDCHandler serves the browser side of federated sign-in.
type OIDCHandler struct {
	federated  *auth.FederatedAuthenticator
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewOIDCHandler creates the federated sign-in handlers.
func NewOIDCHandler(federated *auth.FederatedAuthenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *OIDCHandler {
	return &OIDCHandler{federated: federated, jwtManager: jwtManager, logger: logger}
}

// Login redirects to the identity provider.
func (h *OIDCHandler) Login(w http.ResponseWriter, r *http.Request) {
	url, err := h.federated.Begin(w)
	if err != nil {
		if errors.Is(err, auth.ErrOIDCNotConfigured) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("Failed to begin federated sign-in", "error", err)
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// Callback finishes sign-in and answers with the same JSON body as the
// Login RPC.
func (h *OIDCHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if msg := r.URL.Query().Get("error"); msg != "" {
		h.logger.Warn("Provider refused sign-in", "error", msg)
		http.Error(w, msg, http.StatusUnauthorized)
		return
	}

	user, err := h.federated.Complete(w, r)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrOIDCNotConfigured):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, auth.ErrInvalidState):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Warn("Federated sign-in failed", "error", err)
			http.Error(w, "sign-in failed", http.StatusUnauthorized)
		}
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		h.logger.Error("Failed to generate token", "user_id", user.ID, "error", err)
		http.Error(w, "sign-in failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("User signed in with OIDC", "user_id", user.ID, "email", user.Email)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	json.NewEncoder(w).Encode(api.AuthResponse{
		User:      toAPIUser(user),
		Token:     token,
		ExpiresAt: api.NewTimestamp(time.Now().Add(h.jwtManager.TokenDuration())),
	})
}
