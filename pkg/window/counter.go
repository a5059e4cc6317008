package window

import (
	"context"

	"github.com/fpt/klein-window/pkg/message"
)

// Counter measures the size of a candidate window.
// Counts are expected to grow as messages are added.
type Counter interface {
	Count(ctx context.Context, msgs []message.Message) (int, error)
}

// CounterFunc adapts a function to Counter
type CounterFunc func(ctx context.Context, msgs []message.Message) (int, error)

func (f CounterFunc) Count(ctx context.Context, msgs []message.Message) (int, error) {
	return f(ctx, msgs)
}

// MessageCounter counts messages, turning the budget into "keep the last N"
type MessageCounter struct{}

func (MessageCounter) Count(_ context.Context, msgs []message.Message) (int, error) {
	return len(msgs), nil
}

// HeuristicCounter estimates tokens from content length.
// Recorded token usage on a message takes precedence over the estimate.
type HeuristicCounter struct{}

func (HeuristicCounter) Count(_ context.Context, msgs []message.Message) (int, error) {
	return EstimateTokens(msgs), nil
}

// EstimateTokens sums EstimateMessageTokens over msgs
func EstimateTokens(msgs []message.Message) int {
	total := 0
	for _, msg := range msgs {
		total += EstimateMessageTokens(msg)
	}
	return total
}

// EstimateMessageTokens uses ~4 chars/token plus a small per-message overhead
func EstimateMessageTokens(msg message.Message) int {
	if stored := msg.TotalTokens(); stored > 0 {
		return stored
	}
	chars := len(msg.Content()) + len(msg.Thinking())
	return chars/4 + 8
}
