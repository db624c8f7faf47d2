package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// version is set by ldflags at build time.
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:           "gate",
	Short:         "Route guard and scheduled report trigger",
	Long:          "Gates dashboard routes behind a session check and exposes the cron endpoint that dispatches the daily report.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ./config/config.yaml)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
