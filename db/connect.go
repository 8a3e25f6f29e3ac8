package db

import (
	"fmt"

	"energy-server/confs"
	"energy-server/entities"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Connect opens the PostgreSQL pool described by cfg and migrates every table.
func Connect(cfg confs.DBConfig, log *zap.Logger) (Database, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	if cfg.URL != "" {
		log.Info("Connecting to database using DB_URL")
	} else {
		log.Info("Connecting to database using individual parameters",
			zap.String("host", cfg.Host),
			zap.String("port", cfg.Port),
			zap.String("name", cfg.Name),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(cfg.LogLevel),
		PrepareStmt:            true,
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	log.Info("Database connection established",
		zap.Int("max_idle_conns", cfg.MaxIdleConns),
		zap.Int("max_open_conns", cfg.MaxOpenConns),
	)

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("Database migrations completed")

	return &GormDatabase{DB: db}, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&entities.User{},
		&entities.UserDevice{},
		&entities.PowerUnitPurchase{},
		&entities.UsageRecord{},
		&entities.Alert{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
