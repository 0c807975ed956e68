package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"awaken/internal/events"
)

// gormLogger sends GORM's output to logrus, tagging queries with the
// request id carried by ctx.
type gormLogger struct {
	entry *logrus.Entry
	level logger.LogLevel
	slow  time.Duration
}

func newGormLogger(entry *logrus.Entry, level logger.LogLevel, slow time.Duration) logger.Interface {
	return gormLogger{entry: entry, level: level, slow: slow}
}

func (l gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.level = level
	return l
}

func (l gormLogger) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Info {
		l.with(ctx).Info(fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Warn {
		l.with(ctx).Warn(fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= logger.Error {
		l.with(ctx).Error(fmt.Sprintf(msg, args...))
	}
}

func (l gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	query := func() *logrus.Entry {
		sql, rows := fc()
		return l.with(ctx).WithFields(logrus.Fields{
			"sql":      sql,
			"rows":     rows,
			"duration": elapsed.String(),
		})
	}

	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= logger.Error:
		query().WithError(err).Error("query failed")
	case l.slow > 0 && elapsed > l.slow && l.level >= logger.Warn:
		query().Warn("slow query")
	case l.level >= logger.Info:
		query().Debug("query")
	}
}

func (l gormLogger) with(ctx context.Context) *logrus.Entry {
	if id := events.RequestIDFromContext(ctx); id != "" {
		return l.entry.WithField("request_id", id)
	}
	return l.entry
}
