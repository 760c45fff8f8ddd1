// Command pharmacy-devserver serves the pharmacy admin API locally: JWT login
// and an in-memory product catalog.
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

	"github.com/common-nighthawk/go-figure"
	"go.uber.org/zap"

	"github.com/octabyte/pharmacy-session/config"
	"github.com/octabyte/pharmacy-session/interfaces/http/echo/devserver"
	"github.com/octabyte/pharmacy-session/otel"
	"github.com/octabyte/pharmacy-session/otel/metrics"
	"github.com/octabyte/pharmacy-session/utils/logger"
)

const shutdownTimeout = 5 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "devserver: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTelemetry, err := otel.Init(context.Background(), cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.LogWarn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	if err := metrics.Init(cfg.AppName); err != nil {
		logger.LogWarnf("metrics disabled: %v", err)
	}

	displayAppName(cfg.AppName)

	dev := devserver.New(devserver.Config{
		Secret:      []byte(cfg.DevServer.Secret),
		TokenTTL:    cfg.DevServer.TokenTTL,
		ServiceName: cfg.AppName,
	})
	server := &http.Server{
		Addr:              cfg.DevServer.Addr,
		Handler:           dev.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- listenAndServe(server) }()

	select {
	case err := <-errCh:
		return err
	case <-waitForStopSignal():
	}
	return shutdown(server)
}

func listenAndServe(server *http.Server) error {
	logger.LogInfo("devserver listening", zap.String("addr", server.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.ListenAndServe: %w", err)
	}
	return nil
}

func waitForStopSignal() <-chan os.Signal {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	return stop
}

func shutdown(server *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	logger.LogInfo("devserver stopped")
	return nil
}

func displayAppName(name string) {
	figure.NewFigure(name, "cybermedium", true).Print()
	fmt.Println()
}
