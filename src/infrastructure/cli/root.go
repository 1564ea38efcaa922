package cli

import (
	"fmt"
	"os"

	"go-campaign-dispatcher/src/infrastructure/config"
	logger "go-campaign-dispatcher/src/infrastructure/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	envFile string

	rootCmd = &cobra.Command{
		Use:   "campaign-dispatcher",
		Short: "WhatsApp campaign dispatcher",
		Long: `Sends template campaigns through the WhatsApp Cloud API under per-country rate limits
and reconciles delivery statuses reported by the webhook.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd)
		},
	}
)

// Execute runs the root command; without a subcommand the HTTP server starts.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an optional .env file")
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, cleanupCmd)
}

// GetRootCmd returns the root command for testing purposes
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFile)
}

func newLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.Server.GoEnv == "development" {
		return logger.NewDevelopmentLogger()
	}
	return logger.NewLogger()
}

func syncLogger(loggerInstance *logger.Logger) {
	if err := loggerInstance.Log.Sync(); err != nil {
		loggerInstance.Log.Debug("Failed to sync logger", zap.Error(err))
	}
}
