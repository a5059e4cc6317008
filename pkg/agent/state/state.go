package state

import (
	"context"

	"github.com/fpt/klein-window/internal/repository"
	"github.com/fpt/klein-window/pkg/message"
	"github.com/fpt/klein-window/pkg/window"
)

// Chat context with conversation history
type MessageState struct {
	Messages []message.Message `json:"-"` // Don't serialize directly
	Metadata map[string]any    `json:"-"` // Don't serialize directly

	// Repository for persistence (nil for in-memory only)
	historyRepo repository.MessageHistoryRepository
}

// NewMessageState creates a new message state (in-memory only)
func NewMessageState() *MessageState {
	return &MessageState{
		Messages: make([]message.Message, 0),
		Metadata: make(map[string]any),
	}
}

// NewMessageStateWithRepository creates a new message state with injected history repository
func NewMessageStateWithRepository(historyRepo repository.MessageHistoryRepository) *MessageState {
	return &MessageState{
		Messages:    make([]message.Message, 0),
		Metadata:    make(map[string]any),
		historyRepo: historyRepo,
	}
}

func (c *MessageState) GetMessages() []message.Message {
	return c.Messages
}

// AddMessage adds a message to the context
func (c *MessageState) AddMessage(msg message.Message) {
	c.Messages = append(c.Messages, msg)
}

// GetLastMessage returns the last message in the context
func (c *MessageState) GetLastMessage() message.Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return c.Messages[len(c.Messages)-1]
}

// Clear clears all messages from the context and deletes persisted history
func (c *MessageState) Clear() {
	c.Messages = make([]message.Message, 0)

	if c.historyRepo != nil {
		_ = c.historyRepo.Clear() // Ignore error - clearing in-memory is more important
	}
}

// RemoveMessagesBySource removes all messages with the specified source
// Returns the number of messages removed
func (c *MessageState) RemoveMessagesBySource(source message.MessageSource) int {
	filteredMessages := make([]message.Message, 0, len(c.Messages))
	removedCount := 0

	for _, msg := range c.Messages {
		if msg.Source() == source {
			removedCount++
			continue
		}
		filteredMessages = append(filteredMessages, msg)
	}

	if removedCount > 0 {
		c.Messages = filteredMessages
	}

	return removedCount
}

// GetTotalTokenUsage returns the total token usage recorded across all messages
func (c *MessageState) GetTotalTokenUsage() (inputTokens, outputTokens, totalTokens int) {
	for _, msg := range c.Messages {
		inputTokens += msg.InputTokens()
		outputTokens += msg.OutputTokens()
		totalTokens += msg.TotalTokens()
	}
	return inputTokens, outputTokens, totalTokens
}

// EstimateTokens returns the heuristic token estimate of the whole history
func (c *MessageState) EstimateTokens() int {
	return window.EstimateTokens(c.Messages)
}

// GetValidConversationHistory returns at most maxMessages recent messages that
// start on a user turn, keeping a leading system prompt. Starting on a user
// message means no tool result is sent without the call that produced it.
func (c *MessageState) GetValidConversationHistory(ctx context.Context, maxMessages int) []message.Message {
	if len(c.Messages) == 0 || maxMessages <= 0 {
		return nil
	}

	msgs, err := window.Select(ctx, c.Messages, window.Options{
		MaxBudget:  maxMessages,
		Counter:    window.MessageCounter{},
		KeepSystem: true,
		StartOn:    []message.MessageType{message.MessageTypeUser},
		AllowEmpty: true,
	})
	if err != nil {
		return nil
	}
	return msgs
}

// SaveToFile saves the message state using the repository
func (c *MessageState) SaveToFile() error {
	if c.historyRepo == nil {
		return nil // No repository configured, skip save
	}
	return c.historyRepo.Save(c.Messages)
}

// LoadFromFile loads the message state using the repository
func (c *MessageState) LoadFromFile() error {
	if c.historyRepo == nil {
		return nil // No repository configured, skip load
	}

	messages, err := c.historyRepo.Load()
	if err != nil {
		return err
	}

	c.Messages = messages
	if c.Metadata == nil {
		c.Metadata = make(map[string]any)
	}
	return nil
}
