package logger

import (
	"context"
	"log/slog"
	"sync/atomic"
)

var globalHandler = func() *atomic.Pointer[slog.Handler] {
	p := &atomic.Pointer[slog.Handler]{}
	h := New(Options{Level: LogLevelInfo}).Handler()
	p.Store(&h)
	return p
}()

// swapHandler resolves the current global handler on every record so loggers
// created at package init follow later SetGlobalLogger calls.
type swapHandler struct {
	root *atomic.Pointer[slog.Handler]
	ops  []func(slog.Handler) slog.Handler
}

func (s *swapHandler) current() slog.Handler {
	h := *s.root.Load()
	for _, op := range s.ops {
		h = op(h)
	}
	return h
}

func (s *swapHandler) Enabled(ctx context.Context, lvl slog.Level) bool {
	return (*s.root.Load()).Enabled(ctx, lvl)
}

func (s *swapHandler) Handle(ctx context.Context, r slog.Record) error {
	return s.current().Handle(ctx, r)
}

func (s *swapHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return s.with(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (s *swapHandler) WithGroup(name string) slog.Handler {
	return s.with(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (s *swapHandler) with(op func(slog.Handler) slog.Handler) slog.Handler {
	ops := append(append([]func(slog.Handler) slog.Handler{}, s.ops...), op)
	return &swapHandler{root: s.root, ops: ops}
}
