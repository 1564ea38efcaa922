package database

import (
	"context"
	"fmt"

	"go-campaign-dispatcher/src/infrastructure/config"
	logger "go-campaign-dispatcher/src/infrastructure/logger"
	"go-campaign-dispatcher/src/infrastructure/repository/database/campaign"
	"go-campaign-dispatcher/src/infrastructure/repository/database/contact"
	"go-campaign-dispatcher/src/infrastructure/repository/database/countrylimit"
	"go-campaign-dispatcher/src/infrastructure/repository/database/template"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type DatabaseRepository struct {
	DB     *gorm.DB
	Logger *logger.Logger
	Config config.DatabaseConfig
}

func NewRepository(db *gorm.DB, cfg config.DatabaseConfig, loggerInstance *logger.Logger) *DatabaseRepository {
	return &DatabaseRepository{
		DB:     db,
		Logger: loggerInstance,
		Config: cfg,
	}
}

func dialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		return postgres.Open(cfg.GetDSN()), nil
	case "mysql":
		return mysql.Open(cfg.GetDSN()), nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
}

// Connect opens the connection pool for the configured driver.
func (r *DatabaseRepository) Connect() error {
	dial, err := dialector(r.Config)
	if err != nil {
		r.Logger.Error("Failed to load database configuration", zap.Error(err))
		return err
	}

	gormZap := logger.NewGormLogger(r.Logger.Log).
		LogMode(gormlogger.Warn)

	r.DB, err = gorm.Open(dial, &gorm.Config{
		Logger:                 gormZap,
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	if err != nil {
		r.Logger.Error("Error connecting to the database", zap.Error(err), zap.String("driver", r.Config.Driver))
		return err
	}
	r.Logger.Info("Database connection established", zap.String("driver", r.Config.Driver))
	return nil
}

func (r *DatabaseRepository) MigrateEntitiesGORM() error {
	err := r.DB.AutoMigrate(
		&template.Template{},
		&campaign.Campaign{},
		&campaign.DeliveryEvent{},
		&countrylimit.CountryLimit{},
		&contact.Contact{},
	)
	if err != nil {
		r.Logger.Error("Error migrating database entities", zap.Error(err))
		return err
	}

	r.Logger.Info("Database entities migration completed successfully")
	return nil
}

// Ping checks the connection for health reporting.
func (r *DatabaseRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *DatabaseRepository) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitDB connects, migrates and seeds.
func InitDB(ctx context.Context, cfg config.DatabaseConfig, seedFile string, loggerInstance *logger.Logger) (*DatabaseRepository, error) {
	repo := &DatabaseRepository{Logger: loggerInstance, Config: cfg}

	if err := repo.Connect(); err != nil {
		return nil, err
	}
	if err := repo.MigrateEntitiesGORM(); err != nil {
		return nil, err
	}
	if err := repo.SeedDefaults(ctx, seedFile); err != nil {
		repo.Logger.Error("Error seeding defaults", zap.Error(err))
		return nil, err
	}

	loggerInstance.Info("Database connection and migrations successful")
	return repo, nil
}
