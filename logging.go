package chunkfs

import (
	"context"
	"log/slog"
)

// discardHandler drops every log record. It backs the default logger so
// components never need to nil-check before logging.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// discardLogger is shared by every FileSystem that isn't given a logger.
var discardLogger = slog.New(discardHandler{})

// defaultLogger returns logger if non-nil, otherwise a discard logger.
// FileSystem components never log to a nil logger; this is the single
// point where "no logger configured" is resolved to "silent".
func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return discardLogger
}
