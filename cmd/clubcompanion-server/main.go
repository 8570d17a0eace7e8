package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/notepid/club_companion/internal/account"
	"github.com/notepid/club_companion/internal/avatar"
	"github.com/notepid/club_companion/internal/club"
	"github.com/notepid/club_companion/internal/config"
	"github.com/notepid/club_companion/internal/db"
	"github.com/notepid/club_companion/internal/httpserver"
	"github.com/notepid/club_companion/internal/logging"
	"github.com/notepid/club_companion/internal/message"
	"github.com/notepid/club_companion/internal/security"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	seed := flag.Bool("seed", false, "create the sample clubs before serving")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// The server logs to stdout unless a file is configured.
	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg, *seed, log); err != nil {
		log.Error().Err(err).Msg("server stopped")
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config, seed bool, log zerolog.Logger) error {
	if err := os.MkdirAll(cfg.Paths.Data, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if cfg.Database.Driver == db.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0o755); err != nil {
			return fmt.Errorf("create database directory: %w", err)
		}
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	defer database.Close()
	log.Info().Str("driver", cfg.Database.Driver).Msg("database opened")

	accounts := account.NewRepo(database, account.NewHasher(cfg.Auth.BcryptCost))
	clubs := club.NewRepo(database)
	messages := message.NewRepo(database, accounts)

	avatars, err := avatar.NewStore(cfg.Paths.Uploads, log)
	if err != nil {
		return err
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = security.RandomSecret()
		log.Warn().Msg("auth.jwt_secret is not set; using a random secret, tokens will not survive a restart")
	}
	tokens := security.NewTokenService(secret, cfg.Auth.TokenTTL)

	if seed {
		n, err := club.Seed(context.Background(), accounts)
		if err != nil {
			return fmt.Errorf("seed clubs: %w", err)
		}
		log.Info().Int("created", n).Str("password", club.SeedPassword).Msg("sample clubs seeded")
	}

	srv := httpserver.New(httpserver.Options{
		Accounts:    accounts,
		Clubs:       clubs,
		Messages:    messages,
		Avatars:     avatars,
		Tokens:      tokens,
		Log:         log,
		CORSOrigins: cfg.Server.CORSOrigins,
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", httpServer.Addr).Msg("api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("shutdown complete")
	return nil
}
