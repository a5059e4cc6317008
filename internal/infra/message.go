package infra

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/fpt/klein-window/internal/repository"
	"github.com/fpt/klein-window/pkg/message"
)

// MessageHistoryRepository represents a file-persisted message history
type MessageHistoryRepository struct {
	filePath string
}

// NewMessageHistoryRepository creates a new file-based message history repository
func NewMessageHistoryRepository(filePath string) *MessageHistoryRepository {
	return &MessageHistoryRepository{
		filePath: filePath,
	}
}

// Load implements repository.MessageHistoryRepository
func (fr *MessageHistoryRepository) Load() ([]message.Message, error) {
	if fr.filePath == "" {
		return nil, errors.New("no file path specified")
	}

	data, err := os.ReadFile(fr.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist yet, return empty messages
			return make([]message.Message, 0), nil
		}
		return nil, errors.Wrapf(err, "failed to read history file %s", fr.filePath)
	}

	messages, err := DecodeHistory(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to deserialize history from %s", fr.filePath)
	}
	return messages, nil
}

// Save implements repository.MessageHistoryRepository
func (fr *MessageHistoryRepository) Save(messages []message.Message) error {
	if fr.filePath == "" {
		return errors.New("no file path specified")
	}

	data, err := EncodeHistory(messages)
	if err != nil {
		return err
	}

	dir := filepath.Dir(fr.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "failed to create directory %s", dir)
	}

	if err := os.WriteFile(fr.filePath, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write history file %s", fr.filePath)
	}

	return nil
}

// Clear implements repository.MessageHistoryRepository
func (fr *MessageHistoryRepository) Clear() error {
	if fr.filePath == "" {
		return errors.New("no file path specified")
	}

	if err := os.Remove(fr.filePath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrapf(err, "failed to delete history file %s", fr.filePath)
	}

	return nil
}

// DecodeHistory parses a serialized history. Both the {"messages": [...]}
// document and a bare JSON array of messages are accepted.
func DecodeHistory(data []byte) ([]message.Message, error) {
	var state repository.HistoryState
	if err := json.Unmarshal(data, &state); err != nil {
		var list []repository.MessageHistory
		if listErr := json.Unmarshal(data, &list); listErr != nil {
			return nil, errors.Wrap(err, "invalid history document")
		}
		state.Messages = list
	}

	messages := make([]message.Message, len(state.Messages))
	for i, serializableMsg := range state.Messages {
		messages[i] = serializableToMessage(serializableMsg)
	}
	return messages, nil
}

// EncodeHistory serializes messages as an indented {"messages": [...]} document
func EncodeHistory(messages []message.Message) ([]byte, error) {
	serializableMessages := make([]repository.MessageHistory, len(messages))
	for i, msg := range messages {
		serializableMessages[i] = messageToSerializable(msg)
	}

	data, err := json.MarshalIndent(repository.HistoryState{Messages: serializableMessages}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize history")
	}
	return data, nil
}

// messageToSerializable converts a Message interface to repository.MessageHistory
func messageToSerializable(msg message.Message) repository.MessageHistory {
	if msg == nil {
		return repository.MessageHistory{}
	}

	serializable := repository.MessageHistory{
		ID:         msg.ID(),
		Type:       msg.Type(),
		Content:    msg.Content(),
		Thinking:   msg.Thinking(),
		Timestamp:  msg.Timestamp(),
		Source:     msg.Source(),
		ToolCallID: msg.ToolCallID(),
	}

	switch m := msg.(type) {
	case *message.ToolCallMessage:
		serializable.ToolName = string(m.ToolName())
		args := make(map[string]any)
		maps.Copy(args, m.ToolArguments())
		serializable.Args = args
	case *message.ToolResultMessage:
		serializable.Result = m.Result
		serializable.Error = m.Error
	default:
		if msg.Type() == message.MessageTypeToolResult {
			serializable.Result = msg.Content()
		}
	}

	return serializable
}

// serializableToMessage converts repository.MessageHistory back to Message interface.
// Missing ids and timestamps are generated.
func serializableToMessage(s repository.MessageHistory) message.Message {
	ts := s.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if s.ID == "" {
		s.ID = "msg_" + uuid.NewString()
	}

	switch s.Type {
	case message.MessageTypeToolCall:
		args := make(message.ToolArgumentValues)
		maps.Copy(args, s.Args)
		callID := s.ID
		if s.ToolCallID != "" {
			callID = s.ToolCallID
		}
		return message.NewToolCallMessageWithID(callID, message.ToolName(s.ToolName), args, ts)
	case message.MessageTypeToolResult:
		result := s.Result
		if result == "" && s.Error == "" {
			result = s.Content
		}
		return message.NewToolResultMessageWithID(s.ID, s.ToolCallID, result, s.Error, ts)
	default:
		return message.NewChatMessageWithID(s.ID, s.Type, s.Content, s.Thinking, s.Source, ts)
	}
}
