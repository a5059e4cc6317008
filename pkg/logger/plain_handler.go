package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// plainHandler prints the message, prefixed by the intention icon, followed by
// key=value pairs. No time or level decorations; meant for the console.
type plainHandler struct {
	w       io.Writer
	attrs   []slog.Attr
	mu      *sync.Mutex
	leveler slog.Leveler
}

func newPlainHandler(w io.Writer, leveler slog.Leveler) slog.Handler {
	return &plainHandler{w: w, leveler: leveler, mu: &sync.Mutex{}}
}

// consoleHidden lists keys that are meta information and stay out of console lines
var consoleHidden = map[string]bool{
	"intention": true,
	"time":      true,
	"level":     true,
	"msg":       true,
	"component": true,
	"session":   true,
}

func (h *plainHandler) Enabled(_ context.Context, lvl slog.Level) bool {
	if h.leveler == nil {
		return true
	}
	return lvl >= h.leveler.Level()
}

func (h *plainHandler) Handle(_ context.Context, r slog.Record) error {
	var (
		intention string
		pairs     strings.Builder
	)

	visit := func(a slog.Attr) {
		if a.Key == "intention" {
			intention = a.Value.String()
		}
		if consoleHidden[a.Key] {
			return
		}
		fmt.Fprintf(&pairs, " %s=%v", a.Key, a.Value)
	}
	walk := func(a slog.Attr) {
		if a.Value.Kind() == slog.KindGroup {
			for _, ga := range a.Value.Group() {
				visit(ga)
			}
			return
		}
		visit(a)
	}

	for _, a := range h.attrs {
		walk(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		walk(a)
		return true
	})

	line := r.Message
	if intention != "" {
		line = iconFor(Intention(intention)) + " " + line
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := fmt.Fprintln(h.w, line+pairs.String())
	return err
}

func (h *plainHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &nh
}

// WithGroup groups attributes; for plain output we encode as a group attr
func (h *plainHandler) WithGroup(name string) slog.Handler {
	nh := *h
	nh.attrs = append(append([]slog.Attr{}, h.attrs...), slog.Group(name))
	return &nh
}
