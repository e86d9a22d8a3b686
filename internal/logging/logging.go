// Copyright (c) 2026 Josecore Authors

// Package logging builds the slog.Logger the processor and remote key
// source use for dispatch-decision diagnostics, fanning handlers out
// with github.com/samber/slog-multi when a caller wants diagnostics
// delivered to more than one sink (e.g. stderr plus a log-shipping
// handler) at once.
package logging

import (
	"io"
	"log/slog"

	slogmulti "github.com/samber/slog-multi"
)

// New builds a logger writing to every handler in handlers, fanned out
// with slog-multi. With no handlers, it falls back to a single
// text handler over w at level.
func New(level slog.Level, w io.Writer, handlers ...slog.Handler) *slog.Logger {
	if len(handlers) == 0 {
		handlers = []slog.Handler{slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})}
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Discard is a logger that drops everything, used where a caller hasn't
// configured one.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
