package database

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"

	"awaken/internal/events"
	"awaken/internal/models"
)

func TestInit_MigratesEveryTable(t *testing.T) {
	db, err := Init(Config{Path: MemoryPath, LogLevel: logger.Silent})
	require.NoError(t, err)
	defer func() { assert.NoError(t, Close(db)) }()

	for _, table := range Tables {
		assert.True(t, db.Migrator().HasTable(table), "%T", table)
	}

	// The single pooled connection keeps the in-memory database visible across calls.
	require.NoError(t, db.Create(&models.User{ExternalID: "u1"}).Error)
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestDSN(t *testing.T) {
	cfg := withDefaults(Config{Path: "x.db"})
	assert.Equal(t, "x.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON", dsn(cfg))
	assert.Equal(t, logger.Warn, cfg.LogLevel)
	assert.NotNil(t, cfg.Logger)

	assert.Equal(t, GetDefaultDBPath(), withDefaults(Config{}).Path)
}

func TestGormLogger_LevelsAndRequestID(t *testing.T) {
	l := newGormLogger(nil, logger.Silent, time.Millisecond)
	// Silent never touches the entry, so a nil entry is fine here.
	l.Trace(context.Background(), time.Now(), func() (string, int64) {
		t.Fatal("query should not be rendered when silent")
		return "", 0
	}, nil)

	loud := newGormLogger(nil, logger.Info, time.Hour).LogMode(logger.Silent)
	loud.Info(context.Background(), "ignored %d", 1)

	ctx := events.WithRequestID(context.Background(), "req-1")
	entry := gormLogger{entry: logrus.NewEntry(logrus.New())}.with(ctx)
	assert.Equal(t, "req-1", entry.Data["request_id"])
}
