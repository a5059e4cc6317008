package gemini

import (
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/fpt/klein-window/pkg/message"
)

// Google Gemini 2.5 Models
// https://ai.google.dev/gemini-api/docs/models

const (
	modelGemini25Pro       = "gemini-2.5-pro"
	modelGemini25Flash     = "gemini-2.5-flash"
	modelGemini25FlashLite = "gemini-2.5-flash-lite"

	// Gemini 2.5 models accept ~1M input tokens
	geminiContextWindow = 1048576
)

// getGeminiModel maps user-friendly model names to Gemini model identifiers.
// Unknown names pass through so newer models work without a release.
func getGeminiModel(model string) string {
	switch model {
	case "":
		return modelGemini25Flash
	case "gemini-pro", "pro":
		return modelGemini25Pro
	case "gemini-flash", "flash":
		return modelGemini25Flash
	case "gemini-2.5-lite", "gemini-lite", "lite":
		return modelGemini25FlashLite
	}
	return model
}

// toGeminiContents converts a window into count request contents.
// countTokens on the Gemini API takes no system instruction, so system
// messages are counted as user text.
func toGeminiContents(messages []message.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))

	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeUser, message.MessageTypeSystem:
			contents = append(contents, genai.NewContentFromText(msg.Content(), genai.RoleUser))
		case message.MessageTypeAssistant:
			text := msg.Content()
			if thinking := msg.Thinking(); thinking != "" {
				text = thinking + "\n" + text
			}
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		case message.MessageTypeToolCall:
			text := msg.Content()
			if call, ok := msg.(*message.ToolCallMessage); ok {
				args, _ := json.Marshal(call.ToolArguments())
				text = fmt.Sprintf("Tool call: %s(%s)", call.ToolName(), args)
			}
			contents = append(contents, genai.NewContentFromText(text, genai.RoleModel))
		case message.MessageTypeToolResult:
			contents = append(contents, genai.NewContentFromText(
				fmt.Sprintf("Tool result [%s]: %s", msg.ToolCallID(), msg.Content()), genai.RoleUser))
		}
	}
	return contents
}
