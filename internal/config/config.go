// Package config loads server settings from defaults, an optional TOML file
// and environment variables, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full server configuration.
type Config struct {
	Addr       string `toml:"addr"`
	DBPath     string `toml:"db_path"`
	StaticPath string `toml:"static_path"`

	Log    LogConfig    `toml:"log"`
	Auth   AuthConfig   `toml:"auth"`
	OIDC   OIDCConfig   `toml:"oidc"`
	Make   MakeConfig   `toml:"make_mode"`
	Listen ListenConfig `toml:"listen"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret string   `toml:"jwt_secret"`
	TokenTTL  Duration `toml:"token_ttl"`
}

// OIDCConfig holds federated sign-in settings. An empty issuer disables it.
type OIDCConfig struct {
	Issuer       string `toml:"issuer"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURL  string `toml:"redirect_url"`
	CookieSecret string `toml:"cookie_secret"`
}

// MakeConfig holds Make Mode session settings.
type MakeConfig struct {
	IdleTimeout  Duration `toml:"idle_timeout"`
	TickInterval Duration `toml:"tick_interval"`
}

// ListenConfig controls the recipe repository's live subscriptions.
type ListenConfig struct {
	// PublicOnly skips per-user subscriptions.
	PublicOnly bool `toml:"public_only"`

	// OwnerIdleTimeout stops a user's subscription after this long without a
	// listing. Zero disables the sweep.
	OwnerIdleTimeout Duration `toml:"owner_idle_timeout"`
}

// Duration is a time.Duration that decodes from strings like "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Addr:       ":8080",
		DBPath:     "./data/scrtch.db",
		StaticPath: "./web/dist",
		Log:        LogConfig{Level: "info", Format: "text"},
		Auth:       AuthConfig{TokenTTL: Duration{24 * time.Hour}},
		Make: MakeConfig{
			IdleTimeout:  Duration{2 * time.Hour},
			TickInterval: Duration{time.Second},
		},
		Listen: ListenConfig{OwnerIdleTimeout: Duration{30 * time.Minute}},
	}
}

// Load reads path (optional) over the defaults, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("unknown config keys in %s: %v", path, undecoded)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL.Duration <= 0 {
		return errors.New("token TTL must be positive")
	}
	if c.OIDC.Issuer != "" {
		if c.OIDC.ClientID == "" || c.OIDC.RedirectURL == "" {
			return errors.New("OIDC issuer set without client id or redirect url")
		}
		if n := len(c.OIDC.CookieSecret); n < 32 {
			return fmt.Errorf("COOKIE_SECRET must be at least 32 bytes, got %d", n)
		}
	}
	if c.Make.TickInterval.Duration <= 0 {
		return errors.New("make mode tick interval must be positive")
	}
	if c.Listen.OwnerIdleTimeout.Duration < 0 {
		return errors.New("owner idle timeout must not be negative")
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Addr = getEnv("SCRTCH_ADDR", c.Addr)
	c.DBPath = getEnv("DB_PATH", c.DBPath)
	c.StaticPath = getEnv("STATIC_PATH", c.StaticPath)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)
	c.OIDC.Issuer = getEnv("OIDC_ISSUER", c.OIDC.Issuer)
	c.OIDC.ClientID = getEnv("OIDC_CLIENT_ID", c.OIDC.ClientID)
	c.OIDC.ClientSecret = getEnv("OIDC_CLIENT_SECRET", c.OIDC.ClientSecret)
	c.OIDC.RedirectURL = getEnv("OIDC_REDIRECT_URL", c.OIDC.RedirectURL)
	c.OIDC.CookieSecret = getEnv("COOKIE_SECRET", c.OIDC.CookieSecret)

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = Duration{d}
	}
	if v := os.Getenv("LISTEN_PUBLIC_ONLY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LISTEN_PUBLIC_ONLY: %w", err)
		}
		c.Listen.PublicOnly = b
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
