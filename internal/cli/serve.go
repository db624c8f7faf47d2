package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/astro-web3/dashboard-gate/internal/config"
	httptransport "github.com/astro-web3/dashboard-gate/internal/transport/http"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"github.com/astro-web3/dashboard-gate/pkg/otel"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var serveWatch bool

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload guard rules when the config file changes")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	srv, err := httptransport.NewServer(cfg, version)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if serveWatch {
		watchErr := config.Watch(ctx, configPath, func(next *config.Config) {
			if reloadErr := srv.ReloadRules(next.Auth.Rules); reloadErr != nil {
				logger.ErrorContext(ctx, "guard rules reload failed", slog.String("error", reloadErr.Error()))
				return
			}
			logger.InfoContext(ctx, "guard rules reloaded", slog.Int("rules", len(next.Auth.Rules)))
		}, func(decodeErr error) {
			logger.WarnContext(ctx, "ignoring invalid config revision", slog.String("error", decodeErr.Error()))
		})
		if watchErr != nil {
			logger.WarnContext(ctx, "config hot-reload disabled", slog.String("error", watchErr.Error()))
		}
	}

	serverErrChan := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "starting HTTP server",
			slog.String("addr", cfg.Server.Addr),
			slog.String("mode", cfg.Server.Mode),
			slog.String("version", version),
		)
		if listenErr := srv.ListenAndServe(); listenErr != nil &&
			!errors.Is(listenErr, http.ErrServerClosed) {
			serverErrChan <- listenErr
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	var runErr error
	select {
	case <-quit:
		logger.InfoContext(ctx, "shutting down server")
	case runErr = <-serverErrChan:
		logger.ErrorContext(ctx, "server error, shutting down", slog.String("error", runErr.Error()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.ErrorContext(ctx, "server forced to shutdown", slog.String("error", shutdownErr.Error()))
	} else {
		logger.InfoContext(ctx, "server stopped gracefully")
	}

	if shutdownErr := otel.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.ErrorContext(ctx, "failed to shutdown tracer provider", slog.String("error", shutdownErr.Error()))
	}

	return runErr
}
