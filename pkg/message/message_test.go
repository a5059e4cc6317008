package message

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestTokenUsage(t *testing.T) {
	msg := NewChatMessage(MessageTypeUser, "Hello, world!")

	if msg.InputTokens() != 0 || msg.OutputTokens() != 0 || msg.TotalTokens() != 0 {
		t.Errorf("Expected zero token usage, got in=%d out=%d total=%d",
			msg.InputTokens(), msg.OutputTokens(), msg.TotalTokens())
	}

	msg.SetTokenUsage(100, 50, 150)

	if msg.InputTokens() != 100 {
		t.Errorf("Expected InputTokens to be 100, got %d", msg.InputTokens())
	}
	if msg.OutputTokens() != 50 {
		t.Errorf("Expected OutputTokens to be 50, got %d", msg.OutputTokens())
	}
	if msg.TotalTokens() != 150 {
		t.Errorf("Expected TotalTokens to be 150, got %d", msg.TotalTokens())
	}
}

func TestMessageStringWithTokenUsage(t *testing.T) {
	msg := NewChatMessage(MessageTypeUser, "Hello")
	str := msg.String()
	if !strings.Contains(str, "Message(ID:") {
		t.Errorf("String should contain Message(ID:, got: %s", str)
	}
	if strings.Contains(str, "Tokens:") {
		t.Errorf("String should not contain Tokens: when usage is zero, got: %s", str)
	}

	msg.SetTokenUsage(100, 50, 150)
	str = msg.String()
	if !strings.Contains(str, "Tokens: 150 (in:100 out:50)") {
		t.Errorf("String should contain token usage info, got: %s", str)
	}
}

func TestMessageIDsAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewChatMessage(MessageTypeUser, "x").ID()
		if !strings.HasPrefix(id, "msg_") {
			t.Fatalf("Expected msg_ prefix, got %s", id)
		}
		if seen[id] {
			t.Fatalf("Duplicate message ID %s", id)
		}
		seen[id] = true
	}
}

func TestToolCallLinkage(t *testing.T) {
	call := NewToolCallMessage("read_file", ToolArgumentValues{"path": "main.go"})
	result := NewToolResultMessage(call.ToolCallID(), "package main", "")

	if call.ToolCallID() != call.ID() {
		t.Errorf("Tool call ID should equal message ID, got %s vs %s", call.ToolCallID(), call.ID())
	}
	if result.ToolCallID() != call.ID() {
		t.Errorf("Tool result should link to call %s, got %s", call.ID(), result.ToolCallID())
	}
	if result.ID() == call.ID() {
		t.Error("Tool result should have its own ID")
	}
	if NewChatMessage(MessageTypeUser, "hi").ToolCallID() != "" {
		t.Error("Plain chat messages should not carry a tool call ID")
	}

	failed := NewToolResultMessage(call.ID(), "", "permission denied")
	if failed.Content() != "Error: permission denied" {
		t.Errorf("Unexpected error content %q", failed.Content())
	}
}

func TestWithContentCopies(t *testing.T) {
	original := NewChatMessageWithThinking(MessageTypeAssistant, "line1\nline2", "hmm")
	original.SetMetadata("k", "v")

	copied := original.WithContent("line2")

	if original.Content() != "line1\nline2" {
		t.Errorf("Original content changed to %q", original.Content())
	}
	if copied.Content() != "line2" {
		t.Errorf("Expected copied content line2, got %q", copied.Content())
	}
	if copied.ID() != original.ID() || copied.Type() != original.Type() || copied.Thinking() != "hmm" {
		t.Errorf("Copy lost identity: %s", copied)
	}
	copied.Metadata()["k"] = "changed"
	if original.Metadata()["k"] != "v" {
		t.Error("Metadata should not be shared between copies")
	}

	original.SetTokenUsage(0, 0, 500)
	if n := original.WithContent("line2").TotalTokens(); n != 0 {
		t.Errorf("Copy with new content should not keep recorded usage, got %d", n)
	}
	if original.TotalTokens() != 500 {
		t.Errorf("Original usage changed to %d", original.TotalTokens())
	}

	result := NewToolResultMessage("call_1", "a\nb", "")
	partial, ok := result.WithContent("b").(*ToolResultMessage)
	if !ok {
		t.Fatalf("Expected *ToolResultMessage, got %T", result.WithContent("b"))
	}
	if partial.Result != "b" || partial.ToolCallID() != "call_1" {
		t.Errorf("Unexpected partial result %+v", partial)
	}

	call := NewToolCallMessage("grep", ToolArgumentValues{"q": "x"})
	if _, ok := call.WithContent("y").(*ToolCallMessage); !ok {
		t.Error("Tool call copy should keep its concrete type")
	}
}

func TestParseMessageType(t *testing.T) {
	tests := []struct {
		in      string
		want    MessageType
		wantErr bool
	}{
		{in: "human", want: MessageTypeUser},
		{in: "User", want: MessageTypeUser},
		{in: "ai", want: MessageTypeAssistant},
		{in: "assistant", want: MessageTypeAssistant},
		{in: " system ", want: MessageTypeSystem},
		{in: "tool", want: MessageTypeToolResult},
		{in: "tool_call", want: MessageTypeToolCall},
		{in: "robot", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMessageType(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseMessageType(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}

	types, err := ParseMessageTypes("human, tool")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(types) != 2 || types[0] != MessageTypeUser || types[1] != MessageTypeToolResult {
		t.Errorf("Unexpected types %v", types)
	}
	if types, _ := ParseMessageTypes(""); len(types) != 0 {
		t.Errorf("Expected no types for empty string, got %v", types)
	}
}

func TestMessageTypeJSON(t *testing.T) {
	data, err := json.Marshal([]MessageType{MessageTypeUser, MessageTypeToolResult})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `["user","tool_result"]` {
		t.Errorf("Unexpected JSON %s", data)
	}

	var decoded []MessageType
	if err := json.Unmarshal([]byte(`["human","ai"]`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded[0] != MessageTypeUser || decoded[1] != MessageTypeAssistant {
		t.Errorf("Unexpected decoded types %v", decoded)
	}
}
