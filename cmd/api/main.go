// Command api runs the Splitmint HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	_ "github.com/jackc/pgx/v5/stdlib"

	"splitmint.org/internal/auth"
	"splitmint.org/internal/config"
	"splitmint.org/internal/credits"
	"splitmint.org/internal/groups"
	"splitmint.org/internal/httpapi"
	"splitmint.org/internal/identity"
	"splitmint.org/internal/mail"
	"splitmint.org/internal/obs"
	"splitmint.org/internal/payments"
	"splitmint.org/internal/store/pg"
	"splitmint.org/migrations"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := run(); err != nil {
		obs.LogRequest(map[string]any{"level": "fatal", "msg": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	obs.Init()
	obs.InitBuildInfo(version, commit)

	db, err := sql.Open("pgx", cfg.PGDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if cfg.MigrateOnStart {
		goose.SetBaseFS(migrations.FS)
		if err := goose.SetDialect("postgres"); err != nil {
			return err
		}
		if err := goose.Up(db, "."); err != nil {
			return err
		}
	}

	tokens, err := auth.NewTokenService(cfg.AccessSecret, cfg.RefreshSecret,
		auth.WithAccessTTL(cfg.AccessTTL),
		auth.WithRefreshTTL(cfg.RefreshTTL),
	)
	if err != nil {
		return err
	}

	users := pg.NewUsers(db)

	var sessionOpts []auth.ServiceOption
	if cfg.GoogleClientID != "" {
		verifier, err := identity.NewGoogleVerifier(cfg.GoogleClientID)
		if err != nil {
			return err
		}
		sessionOpts = append(sessionOpts, auth.WithIdentityVerifier(verifier))
	}
	if cfg.MailConfigured() {
		sessionOpts = append(sessionOpts, auth.WithMailer(mail.NewSMTP(
			cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom,
		)))
	}
	sessions, err := auth.NewService(users, tokens, sessionOpts...)
	if err != nil {
		return err
	}

	var creditOpts []credits.Option
	if cfg.PaymentsConfigured() {
		provider, err := payments.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		if err != nil {
			return err
		}
		creditOpts = append(creditOpts, credits.WithProvider(provider))
	}
	ledger := credits.New(users, creditOpts...)

	groupSvc, err := groups.NewService(pg.NewGroups(db), ledger)
	if err != nil {
		return err
	}

	api := httpapi.New(httpapi.Options{
		Sessions:           sessions,
		Credits:            ledger,
		Groups:             groupSvc,
		Ready:              db.PingContext,
		Version:            version,
		AllowedOrigins:     cfg.AllowedOrigins,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
		CookieSecure:       cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		obs.LogRequest(map[string]any{"level": "info", "msg": "listening", "addr": cfg.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		obs.LogRequest(map[string]any{"level": "info", "msg": "shutting down", "signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
