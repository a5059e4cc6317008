package message

import (
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
)

// Chat message with neutral format for multi-backend support
type ChatMessage struct {
	id         string
	typ        MessageType
	content    string
	thinking   string
	timestamp  time.Time
	source     MessageSource
	metadata   map[string]any
	tokenUsage TokenUsage
}

// NewChatMessage creates a new chat message with current timestamp
func NewChatMessage(msgType MessageType, content string) *ChatMessage {
	return &ChatMessage{
		id:        generateMessageID(),
		typ:       msgType,
		content:   content,
		timestamp: time.Now(),
		source:    MessageSourceDefault,
	}
}

func NewSystemMessage(content string) *ChatMessage {
	return NewChatMessage(MessageTypeSystem, content)
}

func NewSituationSystemMessage(content string) *ChatMessage {
	msg := NewChatMessage(MessageTypeSystem, content)
	msg.source = MessageSourceSituation
	return msg
}

func NewSummarySystemMessage(content string) *ChatMessage {
	msg := NewChatMessage(MessageTypeSystem, content)
	msg.source = MessageSourceSummary
	return msg
}

// NewChatMessageWithThinking creates a new chat message with thinking content
func NewChatMessageWithThinking(msgType MessageType, content, thinking string) *ChatMessage {
	msg := NewChatMessage(msgType, content)
	msg.thinking = thinking
	return msg
}

// NewChatMessageWithID restores a chat message with a known ID and timestamp (for session restoration)
func NewChatMessageWithID(id string, msgType MessageType, content, thinking string, source MessageSource, timestamp time.Time) *ChatMessage {
	return &ChatMessage{
		id:        id,
		typ:       msgType,
		content:   content,
		thinking:  thinking,
		timestamp: timestamp,
		source:    source,
	}
}

func (c *ChatMessage) ID() string {
	return c.id
}

func (c *ChatMessage) Type() MessageType {
	return c.typ
}

func (c *ChatMessage) Content() string {
	return c.content
}

func (c *ChatMessage) Timestamp() time.Time {
	return c.timestamp
}

func (c *ChatMessage) Thinking() string {
	return c.thinking
}

func (c *ChatMessage) Source() MessageSource {
	return c.source
}

func (c *ChatMessage) ToolCallID() string {
	return ""
}

// WithContent returns a copy of the message with the content replaced
func (c *ChatMessage) WithContent(content string) Message {
	return c.withContent(content)
}

func (c *ChatMessage) withContent(content string) *ChatMessage {
	cp := *c
	cp.content = content
	// Recorded usage describes the original content only
	cp.tokenUsage = TokenUsage{}
	if c.metadata != nil {
		cp.metadata = maps.Clone(c.metadata)
	}
	return &cp
}

func (c *ChatMessage) String() string {
	tokensInfo := ""
	if c.tokenUsage.TotalTokens > 0 {
		tokensInfo = fmt.Sprintf(", Tokens: %d (in:%d out:%d)",
			c.tokenUsage.TotalTokens, c.tokenUsage.InputTokens, c.tokenUsage.OutputTokens)
	}
	return fmt.Sprintf("Message(ID: %s, Type: %s, Content: %q, Thinking: %q, Timestamp: %s, Source: %s%s)",
		c.id, c.typ, c.content, c.thinking, c.timestamp.Format(time.RFC3339), c.source, tokensInfo)
}

// Token usage methods
func (c *ChatMessage) InputTokens() int {
	return c.tokenUsage.InputTokens
}

func (c *ChatMessage) OutputTokens() int {
	return c.tokenUsage.OutputTokens
}

func (c *ChatMessage) TotalTokens() int {
	return c.tokenUsage.TotalTokens
}

func (c *ChatMessage) SetTokenUsage(inputTokens, outputTokens, totalTokens int) {
	c.tokenUsage = TokenUsage{
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  totalTokens,
	}
}

// Metadata returns the metadata map for the message
func (c *ChatMessage) Metadata() map[string]any {
	if c.metadata == nil {
		return make(map[string]any)
	}
	return c.metadata
}

// SetMetadata sets a key-value pair in the metadata map
func (c *ChatMessage) SetMetadata(key string, value any) {
	if c.metadata == nil {
		c.metadata = make(map[string]any)
	}
	c.metadata[key] = value
}

func generateMessageID() string {
	return "msg_" + uuid.NewString()
}
