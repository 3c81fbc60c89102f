package config

import (
	"fmt"
	"strings"

	"github.com/kendall-kelly/makanika-api/models"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenDialector picks the gorm driver for a database URL.
// sqlite:// URLs and bare *.db paths use SQLite, everything else PostgreSQL.
func OpenDialector(databaseURL string) gorm.Dialector {
	switch {
	case strings.HasPrefix(databaseURL, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(databaseURL, "sqlite://"))
	case strings.HasPrefix(databaseURL, "file:"), databaseURL == ":memory:", strings.HasSuffix(databaseURL, ".db"):
		return sqlite.Open(databaseURL)
	default:
		return postgres.Open(databaseURL)
	}
}

// GormConfig is the gorm configuration shared by the server and the tests
func GormConfig(silent bool) *gorm.Config {
	level := logger.Warn
	if silent {
		level = logger.Silent
	}
	return &gorm.Config{
		Logger: logger.Default.LogMode(level),
	}
}

// ConnectDatabase establishes a connection to the configured database
func ConnectDatabase(cfg *Config, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(OpenDialector(cfg.DatabaseURL), GormConfig(cfg.IsTest()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	log.Info("database connection established", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

// Migrate creates or updates every table used by the application
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
