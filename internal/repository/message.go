package repository

import (
	"time"

	"github.com/fpt/klein-window/pkg/message"
)

// MessageHistory represents a message in a serializable format
type MessageHistory struct {
	ID        string                `json:"id"`
	Type      message.MessageType   `json:"type"`
	Content   string                `json:"content"`
	Thinking  string                `json:"thinking,omitempty"`
	Timestamp time.Time             `json:"timestamp"`
	Source    message.MessageSource `json:"source,omitempty"`

	// For tool messages
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolName   string         `json:"tool_name,omitempty"`
	Args       map[string]any `json:"args,omitempty"`
	Result     string         `json:"result,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// HistoryState is the serializable version of a conversation history
type HistoryState struct {
	Messages []MessageHistory `json:"messages"`
	Metadata map[string]any   `json:"metadata,omitempty"`
}

// MessageHistoryRepository abstracts serialized message history persistence
type MessageHistoryRepository interface {
	Load() ([]message.Message, error)
	Save(messages []message.Message) error
	Clear() error // Delete/clear the persisted history
}
