package models

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// slowQueryThreshold is the duration after which a query is logged as a warning.
const slowQueryThreshold = 500 * time.Millisecond

// logger writes gorm's output to zerolog. Queries are logged at debug
// level, slow queries as warnings and failed queries as errors.
type logger struct {
	Logger zerolog.Logger
	Slow   time.Duration
	Level  gormlogger.LogLevel
}

func newLogger(l zerolog.Logger) *logger {
	return &logger{Logger: l, Slow: slowQueryThreshold, Level: gormlogger.Info}
}

func (l *logger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	c := *l
	c.Level = level
	return &c
}

func (l *logger) Info(_ context.Context, s string, args ...any) {
	if l.Level >= gormlogger.Info {
		l.Logger.Info().Msgf(s, args...)
	}
}

func (l *logger) Warn(_ context.Context, s string, args ...any) {
	if l.Level >= gormlogger.Warn {
		l.Logger.Warn().Msgf(s, args...)
	}
}

func (l *logger) Error(_ context.Context, s string, args ...any) {
	if l.Level >= gormlogger.Error {
		l.Logger.Error().Msgf(s, args...)
	}
}

func (l *logger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.Level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	event := func(e *zerolog.Event) *zerolog.Event {
		return e.Str("sql", sql).Int64("rows", rows).Dur("duration", elapsed)
	}

	switch {
	// Not found is an expected result of get-or-create lookups
	case err != nil && !errors.Is(err, ErrResourceNotFound) && !errors.Is(err, gorm.ErrRecordNotFound):
		event(l.Logger.Error().Err(err)).Msg("[GORM] query error")
	case l.Slow > 0 && elapsed > l.Slow && l.Level >= gormlogger.Warn:
		event(l.Logger.Warn()).Dur("threshold", l.Slow).Msg("[GORM] slow query")
	case l.Level >= gormlogger.Info:
		event(l.Logger.Debug()).Msg("[GORM] query")
	}
}
