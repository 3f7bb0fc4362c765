// Package db opens and migrates the gorm database.
package db

import (
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/config"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/dsn"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/db/models"
	"github.com/GoPowerDNS-Admin/GoPermission-Admin/internal/logger/adapter/stdlogger"
)

const slowQueryThreshold = 200 * time.Millisecond

// Open connects to the configured database engine.
func Open(cfg config.DB) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch cfg.GormEngine {
	case config.EnginePostgres:
		dialector = postgres.Open(dsn.Create(cfg))
	case config.EngineMySQL:
		dialector = mysql.Open(dsn.Create(cfg))
	case config.EngineSQLite, "":
		dialector = sqlite.Open(dsn.Create(cfg))
	default:
		return nil, errors.Wrapf(config.ErrUnknownGormEngine, "open %q", cfg.GormEngine)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: NewLogger(cfg.LogLevel)})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect database")
	}

	if cfg.GormEngine == config.EngineSQLite || cfg.GormEngine == "" {
		// sqlite allows a single writer, and every :memory: connection is its own database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, errors.Wrap(err, "failed to access sql pool")
		}

		sqlDB.SetMaxOpenConns(1)
	}

	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return errors.Wrap(db.AutoMigrate(models.All()...), "failed to migrate database")
}

// NewLogger routes gorm's logger through zerolog.
func NewLogger(level string) gormlogger.Interface {
	gormLevel, zeroLevel := gormlogger.Warn, zerolog.WarnLevel

	switch strings.ToLower(level) {
	case "silent":
		gormLevel = gormlogger.Silent
	case "error":
		gormLevel, zeroLevel = gormlogger.Error, zerolog.ErrorLevel
	case "info":
		gormLevel, zeroLevel = gormlogger.Info, zerolog.DebugLevel
	}

	return gormlogger.New(stdlogger.For("gorm", zeroLevel), gormlogger.Config{
		SlowThreshold:             slowQueryThreshold,
		LogLevel:                  gormLevel,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}
