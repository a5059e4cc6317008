package anthropic

import (
	"context"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/pkg/errors"

	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
)

var logger = pkgLogger.NewComponentLogger("anthropic-counter")

// TokenCounter counts window tokens with the Anthropic count_tokens endpoint
type TokenCounter struct {
	client *anthropic.Client
	model  anthropic.Model
}

// NewTokenCounter creates a counter for the given model using ANTHROPIC_API_KEY.
// Extra request options are passed to the SDK client (base URL, retries).
func NewTokenCounter(model string, opts ...option.RequestOption) (*TokenCounter, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)...)
	return &TokenCounter{
		client: &client,
		model:  getAnthropicModel(model),
	}, nil
}

// ModelID returns the model tokens are counted for
func (c *TokenCounter) ModelID() string { return string(c.model) }

// MaxContextTokens reports the model's input window
func (c *TokenCounter) MaxContextTokens() int { return anthropicContextWindow }

// Count implements window.Counter
func (c *TokenCounter) Count(ctx context.Context, msgs []message.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	res, err := c.client.Messages.CountTokens(ctx, toCountTokensParams(c.model, msgs))
	if err != nil {
		return 0, errors.Wrap(err, "anthropic count_tokens failed")
	}

	logger.DebugWithIntention(pkgLogger.IntentionCounter, "Counted tokens",
		"model", c.model, "messages", len(msgs), "input_tokens", res.InputTokens)
	return int(res.InputTokens), nil
}
