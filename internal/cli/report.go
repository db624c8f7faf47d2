package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	reportapp "github.com/astro-web3/dashboard-gate/internal/app/report"
	"github.com/astro-web3/dashboard-gate/internal/config"
	"github.com/astro-web3/dashboard-gate/internal/domain/report"
	httptransport "github.com/astro-web3/dashboard-gate/internal/transport/http"
	"github.com/astro-web3/dashboard-gate/pkg/logger"
	"github.com/spf13/cobra"
)

var errDispatchFailed = errors.New("failed to send daily report")

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportSendCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Report dispatch commands",
}

var reportSendCmd = &cobra.Command{
	Use:   "send",
	Short: "Dispatch the daily report once",
	Long:  "Makes a single dispatch attempt, for schedulers that run commands instead of calling the cron endpoint.\nExits non-zero on failure; retries are left to the scheduler.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.InitLogger(cfg.Observability.LogLevel, cfg.Observability.Format, cfg.Observability.LogSource)

		return sendReport(cmd.Context(), httptransport.NewDispatcher(cfg), logger.Logger(), cmd.OutOrStdout())
	},
}

func sendReport(ctx context.Context, dispatcher report.Dispatcher, log *slog.Logger, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	outcome := reportapp.NewService(dispatcher).Trigger(ctx)
	if !outcome.Success() {
		log.ErrorContext(ctx, "failed to send daily report", slog.Any("error", outcome.Err))
		return errDispatchFailed
	}

	_, err := fmt.Fprintln(out, "daily report sent")
	return err
}
