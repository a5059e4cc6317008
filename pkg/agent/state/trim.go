package state

import (
	"context"
	"fmt"

	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
	"github.com/fpt/klein-window/pkg/window"
)

// Package-level logger for state management operations
var logger = pkgLogger.NewComponentLogger("state-manager")

// Standard automatic trim thresholds, as fractions of the budget
const (
	TrimAtPercent      = 0.70 // Trigger trimming at 70% of the budget
	TargetAfterPercent = 0.35 // Trim down to 35% of the budget
)

// Window returns the trimmed view of the history without modifying it
func (c *MessageState) Window(ctx context.Context, opts window.Options) ([]message.Message, error) {
	return window.Select(ctx, c.Messages, opts)
}

// Trim replaces the history with its window and returns the number of messages removed.
// On error the history is left untouched.
func (c *MessageState) Trim(ctx context.Context, opts window.Options) (int, error) {
	msgs, err := window.Select(ctx, c.Messages, opts)
	if err != nil {
		return 0, err
	}

	removed := len(c.Messages) - len(msgs)
	c.Messages = msgs
	if removed > 0 {
		logger.DebugWithIntention(pkgLogger.IntentionTrim, "Trimmed message history",
			"removed_count", removed, "remaining", len(msgs))
	}
	return removed, nil
}

// CleanupMandatory removes situation and summary system messages, which are
// regenerated per request and must not accumulate in the history
func (c *MessageState) CleanupMandatory() int {
	summaries := c.RemoveMessagesBySource(message.MessageSourceSummary)
	situations := c.RemoveMessagesBySource(message.MessageSourceSituation)
	if summaries+situations > 0 {
		logger.DebugWithIntention(pkgLogger.IntentionDebug, "Removed transient system messages",
			"summaries", summaries, "situations", situations)
	}
	return summaries + situations
}

// TrimIfNeeded trims the history once opts.Counter reports usage at or above
// TrimAtPercent of opts.MaxBudget, selecting a window of TargetAfterPercent of
// the budget. It returns the number of messages removed.
func (c *MessageState) TrimIfNeeded(ctx context.Context, opts window.Options) (int, error) {
	if err := opts.Validate(); err != nil {
		return 0, err
	}
	if opts.MaxBudget <= 0 || len(c.Messages) == 0 {
		return 0, nil
	}

	current, err := opts.Counter.Count(ctx, c.Messages)
	if err != nil {
		return 0, err
	}

	threshold := int(float64(opts.MaxBudget) * TrimAtPercent)
	usagePercent := (float64(current) / float64(opts.MaxBudget)) * 100

	logger.DebugWithIntention(pkgLogger.IntentionStatistics, "Budget usage check",
		"current", current,
		"budget", opts.MaxBudget,
		"usage_percent", fmt.Sprintf("%.1f%%", usagePercent),
		"threshold", threshold)

	if current < threshold {
		return 0, nil
	}

	target := opts
	target.MaxBudget = int(float64(opts.MaxBudget) * TargetAfterPercent)

	logger.InfoWithIntention(pkgLogger.IntentionStatus, "Trimming message history",
		"current", current,
		"usage_percent", fmt.Sprintf("%.1f%%", usagePercent),
		"target", target.MaxBudget)

	return c.Trim(ctx, target)
}
