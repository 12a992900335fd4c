package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/akeren/lingo-site/config"
	"github.com/akeren/lingo-site/domain"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/utils"
)

const defaultShutdownTimeout = 30 * time.Second

func main() {
	logger := log.NewLoggerWithJSONOutput()

	autoMigrate := slices.ContainsFunc(os.Args[1:], func(arg string) bool {
		arg = strings.ToLower(arg)
		return arg == "--auto-migrate" || arg == "-m"
	})

	appConfig, err := config.LoadApplicationConfiguration(logger, autoMigrate)
	if err != nil {
		logger.Error("Failed to load application configuration", "error", err.Error())
		os.Exit(1)
	}

	domain.SetupCoreDomain(appConfig)
	logger.Info("Lingo site server initialized", "auto_migrate", autoMigrate)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- appConfig.RouterService.RunHTTPServer()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", "error", err)
			appConfig.Cleanup()
			os.Exit(1)
		}
	case <-ctx.Done():
		stop()
		logger.Info("Shutdown signal received, draining connections")

		timeout := utils.GetEnvDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := appConfig.RouterService.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("HTTP server shutdown error", "error", err)
		}
	}

	appConfig.Cleanup()
	logger.Info("Graceful shutdown completed")
}
