package database

import (
	"fmt"

	"oracle-market/internal/logging"
	"oracle-market/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the database for the given driver ("postgres" or "sqlite").
func Connect(driver, dsn string) error {
	var dialector gorm.Dialector
	switch driver {
	case "postgres":
		dialector = postgres.Open(dsn)
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := Open(dialector)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if driver == "sqlite" {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return fmt.Errorf("failed to get sql.DB: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	DB = db
	logging.Logger.Info("Database connection established", zap.String("driver", driver))
	return nil
}

// Open opens a gorm handle with the settings every caller shares. Unique
// violations are translated to gorm.ErrDuplicatedKey.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Error),
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
}

// AutoMigrate runs automatic migrations for all models
func AutoMigrate() error {
	return Migrate(DB)
}

// Migrate creates or updates the schema on db
func Migrate(db *gorm.DB) error {
	// Markets and their trades first
	marketModels := []interface{}{
		&models.Market{},
		&models.Trade{},
		&models.MarketEvent{},
	}

	oracleModels := []interface{}{
		&models.OracleNode{},
		&models.OracleVote{},
	}

	botModels := []interface{}{
		&models.TradingBot{},
	}

	for _, group := range [][]interface{}{marketModels, oracleModels, botModels} {
		for _, model := range group {
			if err := db.AutoMigrate(model); err != nil {
				return fmt.Errorf("migration failed for %T: %w", model, err)
			}
		}
	}

	logging.Logger.Info("Database migrations completed")
	return nil
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
