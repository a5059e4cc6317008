package gemini

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
)

var logger = pkgLogger.NewComponentLogger("gemini-counter")

// TokenCounter counts window tokens with the Gemini countTokens endpoint
type TokenCounter struct {
	client *genai.Client
	model  string
}

// NewTokenCounter creates a counter for the given model using GEMINI_API_KEY.
// baseURL overrides the API endpoint when non-empty.
func NewTokenCounter(ctx context.Context, model, baseURL string) (*TokenCounter, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable not set")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Gemini client")
	}

	return &TokenCounter{client: client, model: getGeminiModel(model)}, nil
}

// ModelID returns the model tokens are counted for
func (c *TokenCounter) ModelID() string { return c.model }

// MaxContextTokens reports the model's input window
func (c *TokenCounter) MaxContextTokens() int { return geminiContextWindow }

// Count implements window.Counter
func (c *TokenCounter) Count(ctx context.Context, msgs []message.Message) (int, error) {
	if len(msgs) == 0 {
		return 0, nil
	}

	resp, err := c.client.Models.CountTokens(ctx, c.model, toGeminiContents(msgs), nil)
	if err != nil {
		return 0, errors.Wrap(err, "gemini countTokens failed")
	}

	logger.DebugWithIntention(pkgLogger.IntentionCounter, "Counted tokens",
		"model", c.model, "messages", len(msgs), "total_tokens", resp.TotalTokens)
	return int(resp.TotalTokens), nil
}
