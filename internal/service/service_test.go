package service

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/scrtch/internal/auth"
	"github.com/mmynk/scrtch/internal/ledger"
	"github.com/mmynk/scrtch/internal/makemode"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/models"
	"github.com/mmynk/scrtch/internal/profile"
	"github.com/mmynk/scrtch/internal/recipes"
	"github.com/mmynk/scrtch/internal/storage/sqlite"
	"github.com/mmynk/scrtch/pkg/api/apiconnect"
)

// testEnv is a full service stack behind an httptest server.
type testEnv struct {
	store    *sqlite.SQLiteStore
	repo     *recipes.Repository
	jwt      *auth.JWTManager
	recipes  apiconnect.RecipeServiceClient
	saved    apiconnect.SavedServiceClient
	makeMode apiconnect.MakeModeServiceClient
	auth     apiconnect.AuthServiceClient
	profile  apiconnect.ProfileServiceClient
}

func setupTestServer(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	repo, err := recipes.New(store, recipes.WithLogger(logger))
	require.NoError(t, err)

	book := ledger.New(store, ledger.WithLogger(logger))
	sessions := makemode.NewManager(makemode.WithManagerLogger(logger))
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)
	passwords := auth.NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)

	optional := connect.WithInterceptors(middleware.NewLoggingInterceptor(logger), middleware.OptionalAuth(jwtManager))
	required := connect.WithInterceptors(middleware.NewLoggingInterceptor(logger), middleware.RequireAuth(jwtManager))

	mux := http.NewServeMux()
	mux.Handle(apiconnect.NewRecipeServiceHandler(NewRecipeService(repo, book, recipes.ListenConfig{}, logger), optional))
	mux.Handle(apiconnect.NewSavedServiceHandler(NewSavedService(book, repo, logger), required))
	mux.Handle(apiconnect.NewMakeModeServiceHandler(NewMakeModeService(sessions, repo, logger), optional))
	mux.Handle(apiconnect.NewAuthServiceHandler(NewAuthService(passwords, jwtManager, store, repo, logger), optional))
	mux.Handle(apiconnect.NewProfileServiceHandler(NewProfileService(profile.New(store)), required))

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		server.Close()
		sessions.Close()
		repo.Close()
		store.Close()
	})

	return &testEnv{
		store:    store,
		repo:     repo,
		jwt:      jwtManager,
		recipes:  apiconnect.NewRecipeServiceClient(http.DefaultClient, server.URL),
		saved:    apiconnect.NewSavedServiceClient(http.DefaultClient, server.URL),
		makeMode: apiconnect.NewMakeModeServiceClient(http.DefaultClient, server.URL),
		auth:     apiconnect.NewAuthServiceClient(http.DefaultClient, server.URL),
		profile:  apiconnect.NewProfileServiceClient(http.DefaultClient, server.URL),
	}
}

// token signs a session for a user that need not exist in the store.
func (e *testEnv) token(t *testing.T, uid string) string {
	t.Helper()
	token, err := e.jwt.Generate(&models.User{ID: uid, Email: uid + "@example.com"})
	require.NoError(t, err)
	return token
}

func as[T any](token string, msg *T) *connect.Request[T] {
	req := connect.NewRequest(msg)
	if token != "" {
		req.Header().Set("Authorization", "Bearer "+token)
	}
	return req
}

func assertCode(t *testing.T, err error, code connect.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, connect.CodeOf(err), "error: %v", err)
}

func withUser(uid string) context.Context {
	return middleware.WithUser(context.Background(), uid, uid+"@example.com")
}
