package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/scuciatto/paperballspoker/internal/config"
	"github.com/scuciatto/paperballspoker/internal/handlers"
	"github.com/scuciatto/paperballspoker/internal/observability"
	"github.com/scuciatto/paperballspoker/internal/security"
	"github.com/scuciatto/paperballspoker/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	registry := services.NewRegistry()
	hub := services.NewHub(registry, metrics)
	origins := security.NewOriginValidator(cfg.AllowedOrigins)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	srv := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: handlers.NewRouter(registry, hub, metrics, origins),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("planning poker server listening on %s", cfg.BindAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	log.Printf("server stopped")
}
