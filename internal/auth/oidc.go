package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gorilla/securecookie"
	"golang.org/x/oauth2"

	"github.com/mmynk/scrtch/internal/models"
)

const stateCookie = "scrtch_oidc_state"

var (
	ErrOIDCNotConfigured = errors.New("federated sign-in is not configured")
	ErrInvalidState      = errors.New("sign-in state mismatch")
)

// OIDCConfig holds the federated provider settings.
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// CookieSecret signs the short-lived state cookie.
	CookieSecret []byte
}

// FederatedUserStorage is the user persistence needed to provision
// federated accounts.
type FederatedUserStorage interface {
	UserStorage
	GetUserByOIDCSubject(ctx context.Context, subject string) (*models.User, error)
	SetUserOIDCSubject(ctx context.Context, userID, subject string) error
}

// FederatedAuthenticator runs the OIDC authorization code flow and maps the
// provider identity onto a local user.
type FederatedAuthenticator struct {
	oauthConfig  *oauth2.Config
	verifier     *oidc.IDTokenVerifier
	secureCookie *securecookie.SecureCookie
	users        FederatedUserStorage
	logger       *slog.Logger
}

// NewFederatedAuthenticator discovers the provider at cfg.Issuer. With no
// issuer configured it returns an authenticator whose flow methods fail
// with ErrOIDCNotConfigured.
func NewFederatedAuthenticator(ctx context.Context, cfg OIDCConfig, users FederatedUserStorage, logger *slog.Logger) (*FederatedAuthenticator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &FederatedAuthenticator{
		secureCookie: securecookie.New(cfg.CookieSecret, nil),
		users:        users,
		logger:       logger,
	}
	a.secureCookie.MaxAge(int((10 * time.Minute).Seconds()))

	if cfg.Issuer == "" {
		logger.Warn("OIDC not configured, federated sign-in disabled")
		return a, nil
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	a.oauthConfig = &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Endpoint:     provider.Endpoint(),
		Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
	}
	a.verifier = provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return a, nil
}

// Configured reports whether a provider was discovered.
func (a *FederatedAuthenticator) Configured() bool {
	return a.oauthConfig != nil
}

// Begin stores a fresh state in a signed cookie and returns the provider
// URL to redirect to.
func (a *FederatedAuthenticator) Begin(w http.ResponseWriter) (string, error) {
	if !a.Configured() {
		return "", ErrOIDCNotConfigured
	}
	state, err := a.setState(w)
	if err != nil {
		return "", err
	}
	return a.oauthConfig.AuthCodeURL(state), nil
}

// Complete checks the callback state, exchanges the code and returns the
// local user for the provider identity.
func (a *FederatedAuthenticator) Complete(w http.ResponseWriter, r *http.Request) (*models.User, error) {
	if !a.Configured() {
		return nil, ErrOIDCNotConfigured
	}
	if err := a.checkState(w, r); err != nil {
		return nil, err
	}

	ctx := r.Context()
	token, err := a.oauthConfig.Exchange(ctx, r.URL.Query().Get("code"))
	if err != nil {
		return nil, fmt.Errorf("failed to exchange code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, errors.New("no id_token in response")
	}

	idToken, err := a.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id token: %w", err)
	}

	var claims struct {
		Subject           string `json:"sub"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		PreferredUsername string `json:"preferred_username"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	displayName := claims.Name
	if displayName == "" {
		displayName = claims.PreferredUsername
	}
	return a.Provision(ctx, claims.Subject, claims.Email, displayName)
}

// Provision returns the user linked to subject. An existing account with the
// same email is linked to the subject; otherwise a new federated-only
// account is created.
func (a *FederatedAuthenticator) Provision(ctx context.Context, subject, email, displayName string) (*models.User, error) {
	if subject == "" {
		return nil, errors.New("provider returned no subject")
	}

	user, err := a.users.GetUserByOIDCSubject(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}

	email, err = NormalizeEmail(email)
	if err != nil {
		return nil, err
	}

	user, err = a.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if err := a.users.SetUserOIDCSubject(ctx, user.ID, subject); err != nil {
			return nil, err
		}
		user.OIDCSubject = subject
		a.logger.Info("Linked federated identity", "user_id", user.ID)
		return user, nil
	}

	if displayName == "" {
		displayName = email
	}
	user = models.NewUser(email, displayName, "")
	user.OIDCSubject = subject
	if err := a.users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	a.logger.Info("Provisioned federated user", "user_id", user.ID)
	return user, nil
}

func (a *FederatedAuthenticator) setState(w http.ResponseWriter) (string, error) {
	state := base64.RawURLEncoding.EncodeToString(securecookie.GenerateRandomKey(32))

	value, err := a.secureCookie.Encode(stateCookie, state)
	if err != nil {
		return "", fmt.Errorf("failed to encode state cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    value,
		Path:     "/auth/oidc",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return state, nil
}

// checkState compares the callback state with the cookie and clears it.
func (a *FederatedAuthenticator) checkState(w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(stateCookie)
	if err != nil {
		return ErrInvalidState
	}

	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    "",
		Path:     "/auth/oidc",
		HttpOnly: true,
		MaxAge:   -1,
	})

	var want string
	if err := a.secureCookie.Decode(stateCookie, cookie.Value, &want); err != nil {
		return ErrInvalidState
	}
	if got := r.URL.Query().Get("state"); got == "" || got != want {
		return ErrInvalidState
	}
	return nil
}
