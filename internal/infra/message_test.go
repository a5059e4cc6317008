package infra

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fpt/klein-window/pkg/message"
)

func TestMessageHistoryRepositoryRoundTrip(t *testing.T) {
	toolCall := message.NewToolCallMessage("test_tool", message.ToolArgumentValues{"arg": "value"})
	toolResult := message.NewToolResultMessage(toolCall.ID(), "Success", "")
	messages := []message.Message{
		message.NewSystemMessage("You are helpful"),
		message.NewChatMessage(message.MessageTypeUser, "Hello"),
		message.NewChatMessageWithThinking(message.MessageTypeAssistant, "Response", "I need to think about this"),
		toolCall,
		toolResult,
		message.NewSummarySystemMessage("Earlier we talked"),
	}

	repo := NewMessageHistoryRepository(filepath.Join(t.TempDir(), "nested", "history.json"))
	if err := repo.Save(messages); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != len(messages) {
		t.Fatalf("Expected %d messages, got %d", len(messages), len(loaded))
	}

	for i, want := range messages {
		got := loaded[i]
		if got.ID() != want.ID() {
			t.Errorf("Message %d: ID %s not preserved, got %s", i, want.ID(), got.ID())
		}
		if got.Type() != want.Type() {
			t.Errorf("Message %d: type %s not preserved, got %s", i, want.Type(), got.Type())
		}
		if got.Content() != want.Content() {
			t.Errorf("Message %d: content %q not preserved, got %q", i, want.Content(), got.Content())
		}
		if !got.Timestamp().Equal(want.Timestamp()) {
			t.Errorf("Message %d: timestamp not preserved", i)
		}
		if got.Source() != want.Source() {
			t.Errorf("Message %d: source %s not preserved, got %s", i, want.Source(), got.Source())
		}
		if got.ToolCallID() != want.ToolCallID() {
			t.Errorf("Message %d: tool call ID %q not preserved, got %q", i, want.ToolCallID(), got.ToolCallID())
		}
	}

	if loaded[2].Thinking() != "I need to think about this" {
		t.Error("Thinking content not preserved")
	}
	call, ok := loaded[3].(*message.ToolCallMessage)
	if !ok {
		t.Fatalf("Expected *ToolCallMessage, got %T", loaded[3])
	}
	if call.ToolName() != "test_tool" || call.ToolArguments()["arg"] != "value" {
		t.Errorf("Tool call not preserved: %s %v", call.ToolName(), call.ToolArguments())
	}
	result, ok := loaded[4].(*message.ToolResultMessage)
	if !ok {
		t.Fatalf("Expected *ToolResultMessage, got %T", loaded[4])
	}
	if result.Result != "Success" {
		t.Errorf("Tool result not preserved: %q", result.Result)
	}
}

func TestMessageHistoryRepositoryMissingFile(t *testing.T) {
	repo := NewMessageHistoryRepository(filepath.Join(t.TempDir(), "absent.json"))
	messages, err := repo.Load()
	if err != nil {
		t.Fatalf("Missing file should load as empty history, got %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("Expected no messages, got %d", len(messages))
	}

	if err := repo.Clear(); err != nil {
		t.Errorf("Clearing a missing file should succeed, got %v", err)
	}
}

func TestMessageHistoryRepositoryClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	repo := NewMessageHistoryRepository(path)
	if err := repo.Save([]message.Message{message.NewChatMessage(message.MessageTypeUser, "hi")}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := repo.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected file to be removed, stat err = %v", err)
	}
}

func TestMessageHistoryRepositoryNoPath(t *testing.T) {
	repo := NewMessageHistoryRepository("")
	if _, err := repo.Load(); err == nil {
		t.Error("Expected error loading without a path")
	}
	if err := repo.Save(nil); err == nil {
		t.Error("Expected error saving without a path")
	}
}

func TestDecodeHistoryHandWritten(t *testing.T) {
	data := []byte(`[
  {"type": "system", "content": "be brief"},
  {"type": "human", "content": "what time is it?"},
  {"id": "call_1", "type": "tool_call", "tool_name": "clock", "args": {"tz": "UTC"}},
  {"type": "tool", "tool_call_id": "call_1", "content": "12:00"},
  {"type": "ai", "content": "It is noon."}
]`)

	messages, err := DecodeHistory(data)
	if err != nil {
		t.Fatalf("DecodeHistory failed: %v", err)
	}
	if len(messages) != 5 {
		t.Fatalf("Expected 5 messages, got %d", len(messages))
	}

	wantTypes := []message.MessageType{
		message.MessageTypeSystem,
		message.MessageTypeUser,
		message.MessageTypeToolCall,
		message.MessageTypeToolResult,
		message.MessageTypeAssistant,
	}
	for i, want := range wantTypes {
		if messages[i].Type() != want {
			t.Errorf("Message %d: expected %s, got %s", i, want, messages[i].Type())
		}
		if messages[i].ID() == "" {
			t.Errorf("Message %d: expected a generated ID", i)
		}
		if messages[i].Timestamp().IsZero() {
			t.Errorf("Message %d: expected a timestamp", i)
		}
	}
	if messages[2].ToolCallID() != "call_1" || messages[3].ToolCallID() != "call_1" {
		t.Errorf("Tool linkage lost: call=%q result=%q", messages[2].ToolCallID(), messages[3].ToolCallID())
	}
	if messages[3].Content() != "12:00" {
		t.Errorf("Expected tool result content from the content field, got %q", messages[3].Content())
	}
}

func TestDecodeHistoryInvalid(t *testing.T) {
	_, err := DecodeHistory([]byte(`{"messages": [{"type": "robot"}]}`))
	if err == nil {
		t.Fatal("Expected error for unknown message type")
	}

	_, err = DecodeHistory([]byte(`not json`))
	if err == nil || !strings.Contains(err.Error(), "invalid history document") {
		t.Fatalf("Expected invalid document error, got %v", err)
	}
}

func TestEncodeHistoryUsesRoleNames(t *testing.T) {
	data, err := EncodeHistory([]message.Message{message.NewChatMessage(message.MessageTypeAssistant, "ok")})
	if err != nil {
		t.Fatalf("EncodeHistory failed: %v", err)
	}
	if !strings.Contains(string(data), `"type": "assistant"`) {
		t.Errorf("Expected textual role in %s", data)
	}
}
