package database

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ddt-backend/internal/config"
	"ddt-backend/internal/models"
)

var DB *gorm.DB

// Init connects to Postgres and migrates the schema. Failures are fatal.
func Init(cfg *config.Config, logger *zap.Logger) {
	db, err := Open(postgres.Open(cfg.DatabaseDSN), logger)
	if err != nil {
		logger.Fatal("database init", zap.Error(err))
	}
	DB = db
}

// Open connects through dialector with translated errors and migrates.
func Open(dialector gorm.Dialector, logger *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connessione al database: %w", err)
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrazione: %w", err)
	}
	logger.Info("database connected, schema migrated", zap.String("dialect", db.Dialector.Name()))
	return db, nil
}

// Migrate creates the schema and the constraints AutoMigrate cannot express.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.AuditLog{},
		&models.Sender{},
		&models.SenderSite{},
		&models.Recipient{},
		&models.Destination{},
		&models.Carrier{},
		&models.VehiclePlate{},
		&models.Driver{},
		&models.Article{},
		&models.TransportReason{},
		&models.NumberingFormat{},
		&models.TransportRecord{},
		&models.LineItem{},
	)
	if err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	// Single active numbering format. Activation code flips the flags inside one
	// transaction, this index is the backstop.
	if err := db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_numbering_formats_single_active ON numbering_formats (active) WHERE active",
	).Error; err != nil {
		return fmt.Errorf("single active format index: %w", err)
	}

	return nil
}

// Ping checks the underlying connection pool.
func Ping(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
