package cli

import (
	"go-campaign-dispatcher/src/infrastructure/config"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/repository/database"
	campaignRepo "go-campaign-dispatcher/src/infrastructure/repository/database/campaign"
	"go-campaign-dispatcher/src/infrastructure/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var seedFile string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DatabaseRepository, _ *config.Config, _ *logger.Logger) error {
			return db.MigrateEntitiesGORM()
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the default templates and country limits that are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DatabaseRepository, cfg *config.Config, _ *logger.Logger) error {
			file := cfg.SeedFile
			if seedFile != "" {
				file = seedFile
			}
			return db.SeedDefaults(cmd.Context(), file)
		})
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete delivery events older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDatabase(func(db *database.DatabaseRepository, cfg *config.Config, loggerInstance *logger.Logger) error {
			job := scheduler.NewCleanupJob(
				campaignRepo.NewDeliveryEventRepository(db.DB, loggerInstance),
				cfg.Retention.DeliveryEventTTL,
				cfg.Retention.Schedule,
				loggerInstance,
				nil,
			)
			deleted, err := job.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("deleted %d delivery events\n", deleted)
			return nil
		})
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedFile, "file", "", "YAML seed file (defaults to SEED_FILE or the embedded seed)")
}

func withDatabase(fn func(*database.DatabaseRepository, *config.Config, *logger.Logger) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.ValidateDatabase(); err != nil {
		return err
	}
	loggerInstance, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer syncLogger(loggerInstance)

	db := database.NewRepository(nil, cfg.Database, loggerInstance)
	if err := db.Connect(); err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			loggerInstance.Error("Error closing database", zap.Error(err))
		}
	}()
	return fn(db, cfg, loggerInstance)
}
