// Package window selects a bounded, role-aligned window of a conversation
// history before it is sent to a model.
//
// The selected window is always a contiguous run of the input (a suffix for
// StrategyLast, a prefix for StrategyFirst), optionally preceded by the
// original leading system message.
package window

import (
	"context"
	"slices"
	"strings"

	"github.com/pkg/errors"

	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
)

var logger = pkgLogger.NewComponentLogger("window")

var (
	// ErrBudgetUnsatisfiable is returned when not a single message fits the budget
	ErrBudgetUnsatisfiable = errors.New("no message fits within the budget")
	// ErrInvalidOptions is returned for malformed options
	ErrInvalidOptions = errors.New("invalid window options")
	// ErrNoCounter is returned when options carry no Counter
	ErrNoCounter = errors.New("no token counter configured")
)

// Strategy decides which end of the history is kept
type Strategy string

const (
	// StrategyLast keeps the most recent messages
	StrategyLast Strategy = "last"
	// StrategyFirst keeps the oldest messages
	StrategyFirst Strategy = "first"
)

// ParseStrategy parses "last" or "first"; an empty string means last
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyLast:
		return StrategyLast, nil
	case StrategyFirst:
		return StrategyFirst, nil
	}
	return "", errors.Wrapf(ErrInvalidOptions, "unknown strategy %q", s)
}

// Options configures Select
type Options struct {
	// MaxBudget is the largest count the Counter may report for the window
	MaxBudget int
	// Counter measures candidate windows
	Counter Counter
	// KeepSystem keeps the first message of the history when it is a system message
	KeepSystem bool
	// StartOn lists roles the first non-system message may have. Empty allows any.
	StartOn []message.MessageType
	// EndOn lists roles the last message may have. Empty allows any.
	EndOn []message.MessageType
	// Strategy defaults to StrategyLast
	Strategy Strategy
	// AllowPartial lets the boundary message in with only the lines that fit
	AllowPartial bool
	// AllowEmpty returns an empty window instead of ErrBudgetUnsatisfiable
	AllowEmpty bool
}

// Validate checks the options
func (o Options) Validate() error {
	if o.Counter == nil {
		return ErrNoCounter
	}
	if o.MaxBudget < 0 {
		return errors.Wrapf(ErrInvalidOptions, "negative budget %d", o.MaxBudget)
	}
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	return nil
}

// selection is the outcome of the budget scan before boundary trimming.
// body never contains the kept system message.
type selection struct {
	system  message.Message
	body    []message.Message
	partial bool
}

func (s selection) messages() []message.Message {
	out := make([]message.Message, 0, len(s.body)+1)
	if s.system != nil {
		out = append(out, s.system)
	}
	return append(out, s.body...)
}

// Select returns the window of history that fits opts.MaxBudget.
//
// Counter errors are returned as is. An empty history yields an empty window.
// If no message fits and no system message is kept, ErrBudgetUnsatisfiable is
// returned unless AllowEmpty is set. Trimming to satisfy StartOn or EndOn may
// leave only the system message; that is not an error.
func Select(ctx context.Context, history []message.Message, opts Options) ([]message.Message, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return []message.Message{}, nil
	}

	var system message.Message
	rest := history
	if opts.KeepSystem && history[0].Type() == message.MessageTypeSystem {
		system = history[0]
		rest = history[1:]
	}

	var (
		sel selection
		err error
	)
	strategy, _ := ParseStrategy(string(opts.Strategy))
	switch strategy {
	case StrategyFirst:
		sel, err = selectFirst(ctx, system, rest, opts)
	default:
		sel, err = selectLast(ctx, system, rest, opts)
	}
	if err != nil {
		return nil, err
	}

	if len(sel.body) == 0 && sel.system == nil {
		if !opts.AllowEmpty {
			return nil, errors.Wrapf(ErrBudgetUnsatisfiable, "budget %d, %d messages", opts.MaxBudget, len(history))
		}
		logger.DebugWithIntention(pkgLogger.IntentionTrim, "No message fits the budget, returning empty window",
			"budget", opts.MaxBudget, "history", len(history))
		return []message.Message{}, nil
	}

	scanned := len(sel.body)
	sel.body = trimEnd(sel.body, opts.EndOn)
	sel.body = trimStart(sel.body, opts.StartOn)

	result := sel.messages()
	logger.DebugWithIntention(pkgLogger.IntentionTrim, "Selected message window",
		"strategy", strategy,
		"budget", opts.MaxBudget,
		"history", len(history),
		"kept", len(result),
		"boundary_dropped", scanned-len(sel.body),
		"system_kept", sel.system != nil,
		"partial", sel.partial)
	return result, nil
}

// selectLast grows a suffix of rest from the newest message backward
func selectLast(ctx context.Context, system message.Message, rest []message.Message, opts Options) (selection, error) {
	sel := selection{system: system}

	lo := len(rest)
	for lo > 0 {
		fits, err := fitsBudget(ctx, opts, compose(system, nil, rest[lo-1:]))
		if err != nil {
			return selection{}, err
		}
		if !fits {
			break
		}
		lo--
	}
	sel.body = rest[lo:]

	if lo > 0 && opts.AllowPartial {
		partial, err := partialMessage(ctx, opts, rest[lo-1], func(m message.Message) []message.Message {
			return compose(system, m, rest[lo:])
		}, tailLines)
		if err != nil {
			return selection{}, err
		}
		if partial != nil {
			sel.body = append([]message.Message{partial}, rest[lo:]...)
			sel.partial = true
		}
	}
	return sel, nil
}

// selectFirst grows a prefix of rest from the oldest message forward
func selectFirst(ctx context.Context, system message.Message, rest []message.Message, opts Options) (selection, error) {
	sel := selection{system: system}

	hi := 0
	for hi < len(rest) {
		fits, err := fitsBudget(ctx, opts, compose(system, nil, rest[:hi+1]))
		if err != nil {
			return selection{}, err
		}
		if !fits {
			break
		}
		hi++
	}
	sel.body = rest[:hi]

	if hi < len(rest) && opts.AllowPartial {
		partial, err := partialMessage(ctx, opts, rest[hi], func(m message.Message) []message.Message {
			return append(compose(system, nil, rest[:hi]), m)
		}, headLines)
		if err != nil {
			return selection{}, err
		}
		if partial != nil {
			sel.body = append(slices.Clone(rest[:hi]), partial)
			sel.partial = true
		}
	}
	return sel, nil
}

func fitsBudget(ctx context.Context, opts Options, candidate []message.Message) (bool, error) {
	n, err := opts.Counter.Count(ctx, candidate)
	if err != nil {
		return false, err
	}
	return n <= opts.MaxBudget, nil
}

// compose builds [system] + [head] + tail, skipping nil parts
func compose(system, head message.Message, tail []message.Message) []message.Message {
	out := make([]message.Message, 0, len(tail)+2)
	if system != nil {
		out = append(out, system)
	}
	if head != nil {
		out = append(out, head)
	}
	return append(out, tail...)
}

func trimEnd(body []message.Message, endOn []message.MessageType) []message.Message {
	if len(endOn) == 0 {
		return body
	}
	for len(body) > 0 && !slices.Contains(endOn, body[len(body)-1].Type()) {
		body = body[:len(body)-1]
	}
	return body
}

func trimStart(body []message.Message, startOn []message.MessageType) []message.Message {
	if len(startOn) == 0 {
		return body
	}
	for len(body) > 0 && !slices.Contains(startOn, body[0].Type()) {
		body = body[1:]
	}
	return body
}
