// Package config collects every process-wide setting into one explicit
// struct constructed at startup. Business logic never reads the
// environment directly; it receives the relevant values through
// constructors.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const envPrefix = "SPLITMINT_"

// Defaults applied when the corresponding variable is unset.
const (
	DefaultAddr       = ":8080"
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds all runtime settings for the API process.
type Config struct {
	Addr  string
	PGDSN string

	// Token signing. The two secrets must differ so a leaked access
	// secret cannot forge refresh tokens and vice versa.
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration

	GoogleClientID string

	RazorpayKeyID     string
	RazorpayKeySecret string

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	AllowedOrigins []string

	// CookieSecure marks session cookies Secure; disable only for local
	// plain-HTTP development.
	CookieSecure bool

	RateLimitPerSecond int
	RateLimitBurst     int

	MigrateOnStart bool
}

// Load reads the SPLITMINT_* environment and validates required settings.
func Load() (Config, error) {
	cfg := Config{
		Addr:               getenv("ADDR", DefaultAddr),
		PGDSN:              getenv("PG_DSN", ""),
		AccessSecret:       getenv("JWT_SECRET", ""),
		RefreshSecret:      getenv("REFRESH_SECRET", ""),
		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		RazorpayKeyID:      getenv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:  getenv("RAZORPAY_KEY_SECRET", ""),
		SMTPHost:           getenv("SMTP_HOST", "smtp.gmail.com"),
		SMTPUsername:       getenv("GOOGLE_EMAIL", ""),
		SMTPPassword:       normalizeAppPassword(getenv("GOOGLE_APP_PASSWORD", "")),
		RateLimitPerSecond: 50,
		RateLimitBurst:     100,
	}
	cfg.MailFrom = getenv("MAIL_FROM", cfg.SMTPUsername)

	var err error
	if cfg.AccessTTL, err = getduration("ACCESS_TTL", DefaultAccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTTL, err = getduration("REFRESH_TTL", DefaultRefreshTTL); err != nil {
		return Config{}, err
	}
	if cfg.SMTPPort, err = getint("SMTP_PORT", 587); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitPerSecond, err = getint("RATE_LIMIT_PER_SECOND", cfg.RateLimitPerSecond); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getint("RATE_LIMIT_BURST", cfg.RateLimitBurst); err != nil {
		return Config{}, err
	}
	cfg.MigrateOnStart = getenv("MIGRATE_ON_START", "") == "true"
	cfg.CookieSecure = getenv("COOKIE_SECURE", "true") == "true"

	if origins := getenv("CLIENT_URLS", getenv("CLIENT_URL", "")); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			o = strings.TrimSuffix(strings.TrimSpace(o), "/")
			if o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return Config{}, errors.New("config: JWT_SECRET and REFRESH_SECRET are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return Config{}, errors.New("config: JWT_SECRET and REFRESH_SECRET must differ")
	}
	return cfg, nil
}

// MailConfigured reports whether the SMTP collaborator has credentials.
func (c Config) MailConfigured() bool {
	return c.SMTPUsername != "" && c.SMTPPassword != ""
}

// PaymentsConfigured reports whether the payment provider has credentials.
func (c Config) PaymentsConfigured() bool {
	return c.RazorpayKeyID != "" && c.RazorpayKeySecret != ""
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(envPrefix + key))
	if v == "" {
		return def
	}
	return v
}

func getduration(key string, def time.Duration) (time.Duration, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s%s: %w", envPrefix, key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("config: %s%s must be positive", envPrefix, key)
	}
	return d, nil
}

func getint(key string, def int) (int, error) {
	raw := getenv(key, "")
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("config: parse %s%s: %w", envPrefix, key, err)
	}
	return v, nil
}

// Gmail app passwords are often pasted with spaces; normalize them.
func normalizeAppPassword(v string) string {
	return strings.ReplaceAll(v, " ", "")
}
