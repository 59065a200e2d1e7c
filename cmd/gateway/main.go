package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mind-engage/mindengage-admin/internal/adminapi"
	api "github.com/mind-engage/mindengage-admin/internal/api/http"
	auth "github.com/mind-engage/mindengage-admin/internal/auth/middleware"
	"github.com/mind-engage/mindengage-admin/internal/config"
	"github.com/mind-engage/mindengage-admin/internal/platform/logger"
	"github.com/mind-engage/mindengage-admin/internal/validation"
	"github.com/mind-engage/mindengage-admin/internal/wizard"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "gateway:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	// --- Upstream admin API ---
	client, err := adminapi.New(adminapi.Config{
		BaseURL: cfg.UpstreamBaseURL,
		Timeout: cfg.UpstreamTimeout,
	}, log)
	if err != nil {
		return err
	}

	// --- Auth (gateway JWT; local admin for offline/dev) ---
	if cfg.Mode == config.ModeOnline && cfg.AuthHMACSecret == "dev-secret-change-me" {
		log.Warn("AUTH_HMAC_SECRET is the development default")
	}
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.SessionTTL)

	// --- Router ---
	handler := api.NewRouter(api.Deps{
		API:  client,
		Auth: authSvc,
		Local: auth.LocalAdmin{
			Enabled:  cfg.EnableLocalAuth,
			User:     cfg.AdminUser,
			PassHash: cfg.AdminPassHash,
		},
		Wizards:     wizard.NewInMemoryStore(),
		Validator:   validation.New(),
		Log:         log,
		CORSOrigins: cfg.CORSOrigins(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "upstream", cfg.UpstreamBaseURL, "local_auth", cfg.EnableLocalAuth)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
