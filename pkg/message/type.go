package message

import (
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrUnknownMessageType is returned when a role name cannot be parsed
var ErrUnknownMessageType = errors.New("unknown message type")

// TokenUsage holds token usage information for a message
type TokenUsage struct {
	InputTokens  int // Tokens consumed for input (prompt + context)
	OutputTokens int // Tokens generated in response
	TotalTokens  int // Total tokens (input + output)
}

// MessageType is the role of a message in a conversation
type MessageType int

const (
	MessageTypeUser MessageType = iota
	MessageTypeAssistant
	MessageTypeSystem
	MessageTypeToolCall
	MessageTypeToolResult
)

type MessageSource int

const (
	MessageSourceDefault MessageSource = iota
	MessageSourceSituation
	MessageSourceSummary
)

// String returns the string representation of MessageType
func (m MessageType) String() string {
	switch m {
	case MessageTypeUser:
		return "user"
	case MessageTypeAssistant:
		return "assistant"
	case MessageTypeSystem:
		return "system"
	case MessageTypeToolCall:
		return "tool_call"
	case MessageTypeToolResult:
		return "tool_result"
	default:
		return "unknown"
	}
}

// ParseMessageType maps a role name to a MessageType.
// "human" and "ai" are accepted as aliases of user and assistant, and "tool"
// names a tool result.
func ParseMessageType(s string) (MessageType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "user", "human":
		return MessageTypeUser, nil
	case "assistant", "ai":
		return MessageTypeAssistant, nil
	case "system":
		return MessageTypeSystem, nil
	case "tool_call":
		return MessageTypeToolCall, nil
	case "tool_result", "tool":
		return MessageTypeToolResult, nil
	}
	return 0, errors.Wrapf(ErrUnknownMessageType, "%q", s)
}

// ParseMessageTypes parses a comma separated list of role names.
// An empty string yields an empty list.
func ParseMessageTypes(s string) ([]MessageType, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var types []MessageType
	for _, part := range strings.Split(s, ",") {
		t, err := ParseMessageType(part)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// MarshalText implements encoding.TextMarshaler
func (m MessageType) MarshalText() ([]byte, error) {
	if m.String() == "unknown" {
		return nil, errors.Wrapf(ErrUnknownMessageType, "%d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (m *MessageType) UnmarshalText(text []byte) error {
	t, err := ParseMessageType(string(text))
	if err != nil {
		return err
	}
	*m = t
	return nil
}

func (s MessageSource) String() string {
	switch s {
	case MessageSourceDefault:
		return "default"
	case MessageSourceSituation:
		return "situation"
	case MessageSourceSummary:
		return "summary"
	default:
		return "unknown"
	}
}

// Message is an immutable role-tagged entry of a conversation history.
// Only token usage may be recorded after creation.
type Message interface {
	// ID returns the unique identifier of the message
	ID() string

	// Type returns the role of the message (user, assistant, system, tool call, tool result)
	Type() MessageType

	// Content returns the text content of the message
	Content() string

	// Thinking returns the thinking content if available (for reasoning models)
	Thinking() string

	// Timestamp returns the time when the message was created
	Timestamp() time.Time

	// Source returns the source of the message
	Source() MessageSource

	// ToolCallID links tool calls and tool results. It is empty for other messages.
	ToolCallID() string

	// WithContent returns a copy of the message carrying the given content
	WithContent(content string) Message

	// String returns the string representation of the message
	String() string

	// Token usage information
	InputTokens() int
	OutputTokens() int
	TotalTokens() int

	// SetTokenUsage sets the token usage information for this message
	SetTokenUsage(inputTokens, outputTokens, totalTokens int)

	// Metadata returns the metadata map for the message
	Metadata() map[string]any
}
