package datastore

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gormlogger "gorm.io/gorm/logger"

	"github.com/holterscan/holterscan/internal/logging"
)

var (
	serviceLogger *slog.Logger
	loggerOnce    sync.Once
)

func getLogger() *slog.Logger {
	loggerOnce.Do(func() {
		serviceLogger = logging.ForService("datastore")
		if serviceLogger == nil {
			serviceLogger = slog.Default().With("service", "datastore")
		}
	})
	return serviceLogger
}

// slowQueryThreshold marks queries worth a warning; migrations can
// legitimately run for most of a second.
const slowQueryThreshold = time.Second

// gormSlogAdapter routes gorm's logging through the service logger.
type gormSlogAdapter struct {
	level gormlogger.LogLevel
}

func newGormLogger() gormlogger.Interface {
	return &gormSlogAdapter{level: gormlogger.Warn}
}

func (l *gormSlogAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	return &gormSlogAdapter{level: level}
}

func (l *gormSlogAdapter) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		getLogger().InfoContext(ctx, msg, "args", args)
	}
}

func (l *gormSlogAdapter) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		getLogger().WarnContext(ctx, msg, "args", args)
	}
}

func (l *gormSlogAdapter) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		getLogger().ErrorContext(ctx, msg, "args", args)
	}
}

func (l *gormSlogAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error:
		sql, rows := fc()
		getLogger().ErrorContext(ctx, "query failed",
			"error", err, "sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	case elapsed > slowQueryThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		getLogger().WarnContext(ctx, "slow query",
			"sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		getLogger().DebugContext(ctx, "query",
			"sql", sql, "rows", rows, "elapsed_ms", elapsed.Milliseconds())
	}
}
