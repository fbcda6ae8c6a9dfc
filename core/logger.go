package core

import (
	"errors"
	"log/slog"
	"os"

	"github.com/0xRadioAc7iv/go-contactfile/internal/index"
)

// Logger wraps slog.Logger with store-specific helpers so every operation
// logs the same field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler.
// If handler is nil, a text handler writing Info and above to stderr is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that writes human-readable text to stderr.
func NewTextLogger(level slog.Level) *Logger {
	return NewLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	return NewLogger(slog.DiscardHandler)
}

// LogOpen logs the outcome of opening and replaying a backing file.
func (l *Logger) LogOpen(path string, records, capacity int, err error) {
	if err != nil {
		l.Error("open failed",
			"path", path,
			"records_replayed", records,
			"error", err,
		)
		return
	}
	l.Info("store opened",
		"path", path,
		"records", records,
		"capacity", capacity,
	)
}

// LogInsert logs an insert operation.
func (l *Logger) LogInsert(key string, r index.Range, err error) {
	if err != nil {
		l.logFailure("insert failed", key, err)
		return
	}
	l.Debug("insert completed",
		"key", key,
		"start", r.Start,
		"end", r.End,
	)
}

// LogFind logs a lookup.
func (l *Logger) LogFind(key string, found bool, err error) {
	if err != nil {
		l.logFailure("find failed", key, err)
		return
	}
	l.Debug("find completed",
		"key", key,
		"found", found,
	)
}

// LogUpdate logs an update. relocated is set when the new record did not fit
// the old range and was appended instead.
func (l *Logger) LogUpdate(key, newKey string, r index.Range, relocated bool, err error) {
	if err != nil {
		l.logFailure("update failed", key, err)
		return
	}
	l.Debug("update completed",
		"key", key,
		"new_key", newKey,
		"start", r.Start,
		"end", r.End,
		"relocated", relocated,
	)
}

// LogDelete logs a delete.
func (l *Logger) LogDelete(key string, found bool, err error) {
	if err != nil {
		l.logFailure("delete failed", key, err)
		return
	}
	l.Debug("delete completed",
		"key", key,
		"found", found,
	)
}

func (l *Logger) logFailure(msg, key string, err error) {
	if errors.Is(err, ErrDuplicateKey) {
		l.Warn(msg, "key", key, "error", err)
		return
	}
	l.Error(msg, "key", key, "error", err)
}
