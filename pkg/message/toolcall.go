package message

import (
	"fmt"
	"maps"
	"time"
)

type ToolName string
type ToolArgumentValues map[string]any

func (t ToolName) String() string {
	return string(t)
}

// ToolCallMessage represents a tool call request. Its ID doubles as the call ID.
type ToolCallMessage struct {
	ChatMessage
	name      ToolName
	arguments ToolArgumentValues
}

// NewToolCallMessage creates a new tool call message
func NewToolCallMessage(toolName ToolName, toolArgs ToolArgumentValues) *ToolCallMessage {
	return NewToolCallMessageWithID(generateMessageID(), toolName, toolArgs, time.Now())
}

// NewToolCallMessageWithID creates a new tool call message with specific ID (for session restoration)
func NewToolCallMessageWithID(id string, toolName ToolName, toolArgs ToolArgumentValues, timestamp time.Time) *ToolCallMessage {
	return &ToolCallMessage{
		ChatMessage: ChatMessage{
			id:        id,
			typ:       MessageTypeToolCall,
			content:   fmt.Sprintf("Calling tool: %s with args: %v", toolName, toolArgs),
			timestamp: timestamp,
			source:    MessageSourceDefault,
		},
		name:      toolName,
		arguments: toolArgs,
	}
}

func (c *ToolCallMessage) ToolName() ToolName {
	return c.name
}

func (c *ToolCallMessage) ToolArguments() ToolArgumentValues {
	return c.arguments
}

func (c *ToolCallMessage) ToolCallID() string {
	return c.id
}

func (c *ToolCallMessage) WithContent(content string) Message {
	return &ToolCallMessage{
		ChatMessage: *c.ChatMessage.withContent(content),
		name:        c.name,
		arguments:   maps.Clone(c.arguments),
	}
}

// ToolResultMessage represents a tool execution result
type ToolResultMessage struct {
	ChatMessage
	callID string
	Result string `json:"result"`
	Error  string `json:"error,omitempty"`
}

// NewToolResultMessage creates a new tool result message answering the given call
func NewToolResultMessage(callID string, result string, err string) *ToolResultMessage {
	return NewToolResultMessageWithID(generateMessageID(), callID, result, err, time.Now())
}

// NewToolResultMessageWithID creates a tool result message with specific ID (for session restoration)
func NewToolResultMessageWithID(id, callID, result, err string, timestamp time.Time) *ToolResultMessage {
	content := result
	if err != "" {
		content = fmt.Sprintf("Error: %s", err)
	}
	return &ToolResultMessage{
		ChatMessage: ChatMessage{
			id:        id,
			typ:       MessageTypeToolResult,
			content:   content,
			timestamp: timestamp,
			source:    MessageSourceDefault,
		},
		callID: callID,
		Result: result,
		Error:  err,
	}
}

func (t *ToolResultMessage) ToolCallID() string {
	return t.callID
}

// WithContent returns a copy of the result with content and Result replaced.
// The error, if any, is kept.
func (t *ToolResultMessage) WithContent(content string) Message {
	result := content
	if t.Error != "" {
		result = t.Result
	}
	return &ToolResultMessage{
		ChatMessage: *t.ChatMessage.withContent(content),
		callID:      t.callID,
		Result:      result,
		Error:       t.Error,
	}
}
