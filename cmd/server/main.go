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

	router "github.com/dkeye/Banter/internal/adapters/http"
	"github.com/dkeye/Banter/internal/app"
	"github.com/dkeye/Banter/internal/app/orch"
	"github.com/dkeye/Banter/internal/config"
	"github.com/dkeye/Banter/internal/store"
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

	msgStore, err := store.Open(cfg.DataDir, cfg.IndexDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open message store")
	}
	defer func() {
		if err := msgStore.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close message store")
		}
	}()

	files, err := store.NewDiskFiles(cfg.UploadsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare uploads dir")
	}

	registry := app.NewRegistry()
	rooms := app.NewRooms()
	dispatch := app.NewDispatcher(registry, rooms, app.DropPolicy{})
	o := orch.New(registry, rooms, dispatch, msgStore, cfg.StoreTimeout)

	r := router.SetupRouter(ctx, cfg, o, files)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Banter server started")
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
