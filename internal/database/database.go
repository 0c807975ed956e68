package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"awaken/internal/models"
)

// MemoryPath opens a private in-memory database (tests).
const MemoryPath = ":memory:"

const fileName = "awaken.db"

const (
	defaultBusyTimeout   = 5 * time.Second
	defaultSlowThreshold = 200 * time.Millisecond
)

type Config struct {
	// Path defaults to GetDefaultDBPath.
	Path     string
	LogLevel logger.LogLevel
	Logger   *logrus.Entry
	// BusyTimeout is how long SQLite waits on a locked database.
	BusyTimeout   time.Duration
	SlowThreshold time.Duration
}

// Tables lists every migrated model.
var Tables = []any{
	&models.User{},
	&models.UserSettings{},
	&models.JournalEntry{},
	&models.WritingPrompt{},
	&models.FavoriteInsight{},
	&models.ModelSetting{},
}

// Init opens the SQLite database at cfg.Path and migrates Tables.
func Init(cfg Config) (*gorm.DB, error) {
	cfg = withDefaults(cfg)

	db, err := gorm.Open(sqlite.Open(dsn(cfg)), &gorm.Config{
		Logger: newGormLogger(cfg.Logger, cfg.LogLevel, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql db: %w", err)
	}
	// SQLite serialises writers anyway; one connection also keeps :memory: shared.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := db.AutoMigrate(Tables...); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	cfg.Logger.WithFields(logrus.Fields{"path": cfg.Path, "tables": len(Tables)}).Debug("database ready")
	return db, nil
}

// Close releases the underlying connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func withDefaults(cfg Config) Config {
	if cfg.Path == "" {
		cfg.Path = GetDefaultDBPath()
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Warn
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.WithField("component", "database")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = defaultBusyTimeout
	}
	if cfg.SlowThreshold <= 0 {
		cfg.SlowThreshold = defaultSlowThreshold
	}
	return cfg
}

func dsn(cfg Config) string {
	return fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=%d&_foreign_keys=ON",
		cfg.Path, cfg.BusyTimeout.Milliseconds())
}
