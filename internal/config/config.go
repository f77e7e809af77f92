package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

// Config captures runtime configuration values used by the cancellation service.
type Config struct {
	// ServerAddress is the host:port pair the HTTP server listens on. Defaults to ":18111".
	ServerAddress string

	// DatabaseURL is the Postgres DSN holding members, member subscriptions and options.
	DatabaseURL string

	// SessionSecret is the HMAC key used to sign and verify member session tokens.
	SessionSecret string

	// StripeAPIBase is the Stripe REST endpoint. Defaults to "https://api.stripe.com/v1".
	StripeAPIBase string

	// DeactivateWithoutFreeTier marks the member account inactive after a
	// cancellation when no free tier level is configured.
	DeactivateWithoutFreeTier bool

	// DBMaxOpenConns and DBMaxIdleConns size the database pool. Defaults to 10 and 5.
	DBMaxOpenConns int
	DBMaxIdleConns int
}

const (
	defaultServerAddress = ":18111"
	defaultStripeAPIBase = "https://api.stripe.com/v1"
	defaultMaxOpenConns  = 10
	defaultMaxIdleConns  = 5

	envServerAddress             = "BACKEND_ADDR"
	envDatabaseURL               = "DATABASE_URL"
	envSessionSecret             = "SESSION_SECRET"
	envStripeAPIBase             = "STRIPE_API_BASE"
	envDeactivateWithoutFreeTier = "DEACTIVATE_WITHOUT_FREE_TIER"
	envDBMaxOpenConns            = "DB_MAX_OPEN_CONNS"
	envDBMaxIdleConns            = "DB_MAX_IDLE_CONNS"
)

// Load reads configuration from environment variables, applies defaults, and returns
// a Config structure. Required values return an error when missing.
func Load() (Config, error) {
	cfg := Config{
		ServerAddress: firstNonEmpty(os.Getenv(envServerAddress), defaultServerAddress),
		DatabaseURL:   strings.TrimSpace(os.Getenv(envDatabaseURL)),
		SessionSecret: os.Getenv(envSessionSecret),
		StripeAPIBase: strings.TrimRight(firstNonEmpty(os.Getenv(envStripeAPIBase), defaultStripeAPIBase), "/"),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("%s is required", envDatabaseURL)
	}
	if cfg.SessionSecret == "" {
		return Config{}, fmt.Errorf("%s is required", envSessionSecret)
	}

	if raw := strings.TrimSpace(os.Getenv(envDeactivateWithoutFreeTier)); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", envDeactivateWithoutFreeTier, err)
		}
		cfg.DeactivateWithoutFreeTier = v
	}

	var err error
	if cfg.DBMaxOpenConns, err = positiveInt(envDBMaxOpenConns, defaultMaxOpenConns); err != nil {
		return Config{}, err
	}
	if cfg.DBMaxIdleConns, err = positiveInt(envDBMaxIdleConns, defaultMaxIdleConns); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DatabaseTarget describes DatabaseURL for logs without credentials.
func (c Config) DatabaseTarget() string {
	if u, err := url.Parse(c.DatabaseURL); err == nil && u.Scheme != "" {
		return fmt.Sprintf("host=%s db=%s", u.Hostname(), strings.TrimPrefix(u.Path, "/"))
	}

	// key=value form
	var host, db string
	for _, field := range strings.Fields(c.DatabaseURL) {
		key, value, _ := strings.Cut(field, "=")
		switch key {
		case "host":
			host = value
		case "dbname":
			db = value
		}
	}
	return fmt.Sprintf("host=%s db=%s", host, db)
}

func positiveInt(env string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(env))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", env, raw)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
