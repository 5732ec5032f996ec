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

	"github.com/charmbracelet/log"

	"geosync/internal/config"
	"geosync/internal/coordinator"
	"geosync/internal/registry"
	"geosync/internal/relay"
	"geosync/internal/server"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the components together and manages the server lifecycle. Keeping
// the logic out of main means every defer runs before the process exits.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.LogLevel)

	reg := registry.New()
	coord := coordinator.New(reg, logger.WithPrefix("coordinator"))
	gateway := relay.NewGateway(coord, cfg.SendBufferSize, logger.WithPrefix("relay"))

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.New(gateway, coord, logger.WithPrefix("http")),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newLogger(levelName string) *log.Logger {
	logger := log.New(os.Stdout)
	logger.SetReportTimestamp(true)
	logger.SetTimeFormat(time.DateTime)

	level, err := log.ParseLevel(levelName)
	if err != nil {
		level = log.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}
