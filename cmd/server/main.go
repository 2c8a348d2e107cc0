package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/croneya/pokersync/internal/adapters/http"
	"github.com/croneya/pokersync/internal/adapters/ws"
	"github.com/croneya/pokersync/internal/app"
	"github.com/croneya/pokersync/internal/config"
	"github.com/croneya/pokersync/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	var st store.Store
	if cfg.DBPath != "" {
		st, err = store.OpenSQLite(cfg.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open room store")
		}
	} else {
		st = store.NewMemory()
		log.Info().Msg("no db_path configured, using in-memory room store")
	}
	defer st.Close()

	registry := app.NewRegistry()
	hub := app.NewHub(registry)
	coordinator := app.NewCoordinator(st, hub, cfg.StoreTimeout)
	controller := ws.NewController(coordinator, registry, hub, cfg)

	r := router.SetupRouter(ctx, cfg, controller)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("pokersync server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
