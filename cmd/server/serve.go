package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/mmynk/scrtch/internal/auth"
	"github.com/mmynk/scrtch/internal/config"
	"github.com/mmynk/scrtch/internal/ledger"
	"github.com/mmynk/scrtch/internal/makemode"
	"github.com/mmynk/scrtch/internal/profile"
	"github.com/mmynk/scrtch/internal/recipes"
	"github.com/mmynk/scrtch/internal/server"
	"github.com/mmynk/scrtch/internal/storage/sqlite"
	"github.com/mmynk/scrtch/pkg/logging"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	store, err := sqlite.New(cfg.DBPath, sqlite.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	logger.Info("Storage initialized", "database", cfg.DBPath)

	repo, err := recipes.New(store,
		recipes.WithLogger(logger),
		recipes.WithOwnerIdleTimeout(cfg.Listen.OwnerIdleTimeout.Duration),
	)
	if err != nil {
		return fmt.Errorf("failed to load seed recipes: %w", err)
	}
	defer repo.Close()
	go repo.Run(ctx)
	logger.Info("Recipe repository ready", "recipes", repo.Len())

	sessions := makemode.NewManager(
		makemode.WithIdleTimeout(cfg.Make.IdleTimeout.Duration),
		makemode.WithSessionOptions(makemode.WithTickInterval(cfg.Make.TickInterval.Duration)),
		makemode.WithManagerLogger(logger),
	)
	defer sessions.Close()
	go sessions.Run(ctx)

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL.Duration)

	var federated *auth.FederatedAuthenticator
	if cfg.OIDC.Issuer != "" {
		federated, err = auth.NewFederatedAuthenticator(ctx, auth.OIDCConfig{
			Issuer:       cfg.OIDC.Issuer,
			ClientID:     cfg.OIDC.ClientID,
			ClientSecret: cfg.OIDC.ClientSecret,
			RedirectURL:  cfg.OIDC.RedirectURL,
			CookieSecret: []byte(cfg.OIDC.CookieSecret),
		}, store, logger)
		if err != nil {
			return err
		}
		logger.Info("Federated sign-in enabled", "issuer", cfg.OIDC.Issuer)
	}

	srv := server.New(server.Deps{
		Recipes:    repo,
		Ledger:     ledger.New(store, ledger.WithLogger(logger)),
		Sessions:   sessions,
		Profiles:   profile.New(store),
		JWT:        jwtManager,
		Passwords:  auth.NewPasswordAuthenticator(store),
		Users:      store,
		Federated:  federated,
		Logger:     logger,
		Listen:     recipes.ListenConfig{PublicOnly: cfg.Listen.PublicOnly},
		StaticPath: cfg.StaticPath,
	})
	if cfg.StaticPath != "" {
		logger.Info("Serving static files", "path", cfg.StaticPath)
	}

	return srv.ListenAndServe(ctx, cfg.Addr)
}

func newConfigCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			cfg.Auth.JWTSecret = redact(cfg.Auth.JWTSecret)
			cfg.OIDC.ClientSecret = redact(cfg.OIDC.ClientSecret)
			cfg.OIDC.CookieSecret = redact(cfg.OIDC.CookieSecret)
			return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
		},
	}
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "********"
}
