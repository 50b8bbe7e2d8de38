// Package webhookservice boots the webhook relay HTTP server.
package webhookservice

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/quinnmay/mem0hook/internal/api"
	"github.com/quinnmay/mem0hook/internal/config"
	"github.com/quinnmay/mem0hook/internal/health"
	"github.com/quinnmay/mem0hook/internal/logger"
	"github.com/quinnmay/mem0hook/internal/mem0"
	"github.com/quinnmay/mem0hook/internal/normalize"
	"github.com/quinnmay/mem0hook/internal/services"
	"github.com/rs/zerolog"
)

// Run starts the relay and blocks until shutdown or a server error.
func Run() error {
	log := logger.New("mem0-webhook")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load configuration")
		return err
	}

	log.Info().
		Int("http_port", cfg.HTTPPort).
		Str("mem0_base_url", cfg.Mem0BaseURL).
		Str("default_user_id", cfg.DefaultUserID).
		Bool("signature_enabled", cfg.WebhookSecret != "").
		Msg("Webhook relay starting")

	ctx, stop := newServerContext()
	defer stop()

	store := mem0.New(cfg.Mem0BaseURL, cfg.Mem0APIKey, cfg.UpstreamTimeout())
	svc := services.NewWebhookService(normalize.New(cfg.DefaultUserID), store, log)

	checker := health.NewStoreHealthChecker(store, log, cfg.UpstreamTimeout())
	go checker.Start(ctx, cfg.HealthInterval())

	router := api.NewRouter(svc, checker, cfg.WebhookSecret, log)
	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

