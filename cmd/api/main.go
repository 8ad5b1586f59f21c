package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/pageza/fridge2fork/backend/config"
	"github.com/pageza/fridge2fork/backend/internal/logging"
	"github.com/pageza/fridge2fork/backend/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		bootLog := logging.New(config.GetEnvironment(), "info")
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger := logging.New(cfg.Environment, cfg.LogLevel)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), cfg, logger, quit); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("server stopped")
}

// run serves until the server fails or a signal arrives on quit, then
// shuts down within twice the model timeout.
func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger, quit <-chan os.Signal) error {
	srv, err := server.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return err
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("received signal")
	}

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*cfg.ModelTimeout+5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
