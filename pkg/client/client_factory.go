package client

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	"github.com/fpt/klein-window/internal/config"
	"github.com/fpt/klein-window/pkg/client/anthropic"
	"github.com/fpt/klein-window/pkg/client/gemini"
	"github.com/fpt/klein-window/pkg/window"
)

// ContextWindowProvider is implemented by counters that know their model's input limit
type ContextWindowProvider interface {
	MaxContextTokens() int
}

// NewTokenCounter creates a window counter based on settings.
// Remote backends count each candidate window in one request, so their cache
// is keyed by the whole sequence. Tiktoken counts are additive and are cached
// per message.
func NewTokenCounter(ctx context.Context, settings config.CounterSettings) (window.Counter, error) {
	switch settings.Backend {
	case config.CounterBackendCount:
		return window.MessageCounter{}, nil
	case config.CounterBackendHeuristic, "":
		return window.HeuristicCounter{}, nil
	case config.CounterBackendTiktoken:
		var (
			counter *window.TiktokenCounter
			err     error
		)
		if settings.Encoding != "" || settings.Model == "" {
			counter, err = window.NewTiktokenCounter(settings.Encoding)
		} else {
			counter, err = window.NewTiktokenCounterForModel(settings.Model)
		}
		if err != nil {
			return nil, err
		}
		perMessage, err := window.NewPerMessageCachedCounter(counter, settings.CacheSize)
		if err != nil {
			return nil, err
		}
		return perMessage, nil
	case config.CounterBackendAnthropic, "claude":
		var opts []option.RequestOption
		if settings.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(settings.BaseURL))
		}
		remote, err := anthropic.NewTokenCounter(settings.Model, opts...)
		if err != nil {
			return nil, err
		}
		return cached(remote, settings.CacheSize)
	case config.CounterBackendGemini:
		remote, err := gemini.NewTokenCounter(ctx, settings.Model, settings.BaseURL)
		if err != nil {
			return nil, err
		}
		return cached(remote, settings.CacheSize)
	default:
		return nil, errors.Errorf("unsupported counter backend: %s", settings.Backend)
	}
}

func cached(remote window.Counter, size int) (window.Counter, error) {
	counter, err := window.NewCachedCounter(remote, size)
	if err != nil {
		return nil, err
	}
	return counter, nil
}

// MaxContextTokens reports the model input limit behind counter, or 0 when unknown
func MaxContextTokens(counter window.Counter) int {
	if cached, ok := counter.(*window.CachedCounter); ok {
		counter = cached.Inner()
	}
	if p, ok := counter.(ContextWindowProvider); ok {
		return p.MaxContextTokens()
	}
	return 0
}
