package window

import (
	"context"
	"strings"

	"github.com/fpt/klein-window/pkg/message"
)

// lineSelector returns the content made of n lines taken from one end of lines
type lineSelector func(lines []string, n int) string

func tailLines(lines []string, n int) string {
	return strings.Join(lines[len(lines)-n:], "")
}

func headLines(lines []string, n int) string {
	return strings.TrimSuffix(strings.Join(lines[:n], ""), "\n")
}

// partialMessage returns a copy of msg holding as many whole lines as fit the
// budget once placed by build, or nil when not even one line fits.
// Tool calls are never split.
func partialMessage(ctx context.Context, opts Options, msg message.Message, build func(message.Message) []message.Message, pick lineSelector) (message.Message, error) {
	if msg.Type() == message.MessageTypeToolCall {
		return nil, nil
	}

	lines := splitLines(msg.Content())
	if len(lines) < 2 {
		return nil, nil
	}

	var best message.Message
	// The whole message already failed, so stop one line short of it
	for n := 1; n < len(lines); n++ {
		candidate := msg.WithContent(pick(lines, n))
		fits, err := fitsBudget(ctx, opts, build(candidate))
		if err != nil {
			return nil, err
		}
		if !fits {
			break
		}
		best = candidate
	}
	return best, nil
}

// splitLines splits content after each newline, dropping empty pieces
func splitLines(content string) []string {
	var lines []string
	for _, l := range strings.SplitAfter(content, "\n") {
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
