package window

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/pkoukk/tiktoken-go"

	pkgLogger "github.com/fpt/klein-window/pkg/logger"
	"github.com/fpt/klein-window/pkg/message"
)

const (
	// DefaultEncoding is used when no model or encoding is given
	DefaultEncoding = "cl100k_base"
	// tokensPerMessage is the framing overhead chat formats add around each message
	tokensPerMessage = 3
)

// TiktokenCounter counts BPE tokens locally
type TiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

// NewTiktokenCounter loads the named encoding, DefaultEncoding when empty
func NewTiktokenCounter(encoding string) (*TiktokenCounter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load tiktoken encoding %s", encoding)
	}
	return &TiktokenCounter{enc: enc}, nil
}

// NewTiktokenCounterForModel picks the encoding of an OpenAI model name,
// falling back to DefaultEncoding for unknown models.
func NewTiktokenCounterForModel(model string) (*TiktokenCounter, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		logger.DebugWithIntention(pkgLogger.IntentionCounter, "Unknown model for tiktoken, using default encoding",
			"model", model, "encoding", DefaultEncoding)
		return NewTiktokenCounter(DefaultEncoding)
	}
	return &TiktokenCounter{enc: enc}, nil
}

func (c *TiktokenCounter) Count(_ context.Context, msgs []message.Message) (int, error) {
	total := 0
	for _, msg := range msgs {
		total += c.countMessage(msg)
	}
	return total, nil
}

func (c *TiktokenCounter) countMessage(msg message.Message) int {
	n := tokensPerMessage + c.tokens(msg.Type().String()) + c.tokens(msg.Content()) + c.tokens(msg.Thinking())
	if call, ok := msg.(*message.ToolCallMessage); ok {
		n += c.tokens(call.ToolName().String())
		if args, err := json.Marshal(call.ToolArguments()); err == nil {
			n += c.tokens(string(args))
		}
	}
	return n
}

func (c *TiktokenCounter) tokens(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
