// Package server assembles the HTTP surface: Connect services, federated
// sign-in routes, health and metrics endpoints, and the single-page app.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/scrtch/internal/auth"
	"github.com/mmynk/scrtch/internal/ledger"
	"github.com/mmynk/scrtch/internal/makemode"
	"github.com/mmynk/scrtch/internal/middleware"
	"github.com/mmynk/scrtch/internal/profile"
	"github.com/mmynk/scrtch/internal/recipes"
	"github.com/mmynk/scrtch/internal/service"
	"github.com/mmynk/scrtch/pkg/api/apiconnect"
)

// rpcPrefix is the path prefix shared by every Connect procedure.
const rpcPrefix = "/scrtch.v1."

// Deps are the components the server routes to.
type Deps struct {
	Recipes   *recipes.Repository
	Ledger    *ledger.Ledger
	Sessions  *makemode.Manager
	Profiles  *profile.Service
	JWT       *auth.JWTManager
	Passwords auth.Authenticator
	Users     service.UserLookup
	Federated *auth.FederatedAuthenticator
	Logger    *slog.Logger

	// Listen decides which recipe subscriptions a caller's listing opens.
	Listen recipes.ListenConfig

	// StaticPath is the built single-page app. Empty disables it.
	StaticPath string
}

// Server is the HTTP front of the service.
type Server struct {
	router *chi.Mux
	logger *slog.Logger
}

// New builds the router.
func New(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	logging := middleware.NewLoggingInterceptor(logger)
	metrics := middleware.MetricsInterceptor{}
	optional := connect.WithInterceptors(logging, metrics, middleware.OptionalAuth(d.JWT))
	required := connect.WithInterceptors(logging, metrics, middleware.RequireAuth(d.JWT))

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(corsMiddleware)

	mount := func(path string, h http.Handler) {
		router.Handle(path+"*", h)
	}
	mount(apiconnect.NewRecipeServiceHandler(
		service.NewRecipeService(d.Recipes, d.Ledger, d.Listen, logger), optional))
	mount(apiconnect.NewSavedServiceHandler(
		service.NewSavedService(d.Ledger, d.Recipes, logger), required))
	mount(apiconnect.NewMakeModeServiceHandler(
		service.NewMakeModeService(d.Sessions, d.Recipes, logger), optional))
	mount(apiconnect.NewAuthServiceHandler(
		service.NewAuthService(d.Passwords, d.JWT, d.Users, d.Recipes, logger), optional))
	mount(apiconnect.NewProfileServiceHandler(
		service.NewProfileService(d.Profiles), required))

	if d.Federated != nil {
		oidc := service.NewOIDCHandler(d.Federated, d.JWT, logger)
		router.Get("/auth/oidc/login", oidc.Login)
		router.Get("/auth/oidc/callback", oidc.Callback)
	}

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	if d.StaticPath != "" {
		router.NotFound(requestLogger(logger)(spaHandler(d.StaticPath)).ServeHTTP)
	}

	return &Server{router: router, logger: logger}
}

// Handler returns the root handler, serving HTTP/2 without TLS (h2c) so
// that Connect streams work behind plain-text proxies.
func (s *Server) Handler() http.Handler {
	return h2c.NewHandler(s.router, &http2.Server{})
}

// ListenAndServe serves on addr until ctx ends, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Connect server starting", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// spaHandler serves files under dir, falling back to index.html so client
// side routes resolve. Unknown RPC paths stay 404.
func spaHandler(dir string) http.HandlerFunc {
	staticDir, err := filepath.Abs(dir)
	if err != nil {
		staticDir = dir
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, rpcPrefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}

		filePath := filepath.Join(staticDir, filepath.Clean("/"+urlPath))
		if info, err := os.Stat(filePath); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	}
}

// requestLogger logs plain HTTP requests. RPCs are logged by the Connect
// interceptor instead.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", chimiddleware.GetReqID(r.Context()),
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
