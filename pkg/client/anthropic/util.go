package anthropic

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/fpt/klein-window/pkg/message"
)

// Anthropic models
// https://docs.anthropic.com/en/docs/about-claude/models/overview

// getAnthropicModel maps common model names to Anthropic model constants
func getAnthropicModel(model string) anthropic.Model {
	switch model {
	case "":
		return anthropic.ModelClaudeSonnet4_5
	case "claude-opus-4-20250514":
		return anthropic.ModelClaudeOpus4_20250514
	case "claude-sonnet-4-20250514", "claude-3-7-sonnet-latest":
		return anthropic.ModelClaudeSonnet4_5
	case "claude-3-5-haiku-latest":
		return anthropic.ModelClaudeHaiku4_5
	}
	return anthropic.Model(model)
}

// anthropicContextWindow is a conservative input capacity shared by current models
const anthropicContextWindow = 200000

// toCountTokensParams converts a window into a count_tokens request.
// System messages go to the system prompt. The API needs at least one
// message, so a system-only window is sent as a user turn.
//
// The API rejects a tool_result without its tool_use and a tool_use without
// its tool_result. A window cut between the two sends the unpaired half as
// plain text instead.
func toCountTokensParams(model anthropic.Model, messages []message.Message) anthropic.MessageCountTokensParams {
	var (
		system []anthropic.TextBlockParam
		turns  []anthropic.MessageParam
	)

	paired := pairedToolCalls(messages)
	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content()})
		case message.MessageTypeUser:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content())))
		case message.MessageTypeAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if thinking := msg.Thinking(); thinking != "" {
				blocks = append(blocks, anthropic.NewTextBlock(thinking))
			}
			blocks = append(blocks, anthropic.NewTextBlock(msg.Content()))
			turns = append(turns, anthropic.NewAssistantMessage(blocks...))
		case message.MessageTypeToolCall:
			call, ok := msg.(*message.ToolCallMessage)
			switch {
			case ok && paired[call.ToolCallID()]:
				turns = append(turns, anthropic.NewAssistantMessage(
					anthropic.NewToolUseBlock(call.ToolCallID(), call.ToolArguments(), call.ToolName().String()),
				))
			case ok:
				turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(toolCallText(call))))
			default:
				turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content())))
			}
		case message.MessageTypeToolResult:
			if paired[msg.ToolCallID()] {
				turns = append(turns, anthropic.NewUserMessage(
					anthropic.NewToolResultBlock(msg.ToolCallID(), msg.Content(), false),
				))
			} else {
				turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(
					fmt.Sprintf("Tool result [%s]: %s", msg.ToolCallID(), msg.Content()),
				)))
			}
		}
	}

	if len(turns) == 0 {
		for _, block := range system {
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(block.Text)))
		}
		system = nil
	}

	params := anthropic.MessageCountTokensParams{
		Model:    model,
		Messages: turns,
	}
	if len(system) > 0 {
		params.System = anthropic.MessageCountTokensParamsSystemUnion{OfTextBlockArray: system}
	}
	return params
}

// pairedToolCalls returns the call IDs whose tool call appears before its result
func pairedToolCalls(messages []message.Message) map[string]bool {
	calls := make(map[string]bool)
	paired := make(map[string]bool)
	for _, msg := range messages {
		switch msg.Type() {
		case message.MessageTypeToolCall:
			if _, ok := msg.(*message.ToolCallMessage); ok {
				calls[msg.ToolCallID()] = true
			}
		case message.MessageTypeToolResult:
			if calls[msg.ToolCallID()] {
				paired[msg.ToolCallID()] = true
			}
		}
	}
	return paired
}

func toolCallText(call *message.ToolCallMessage) string {
	args, err := json.Marshal(call.ToolArguments())
	if err != nil {
		return fmt.Sprintf("Tool call: %s", call.ToolName())
	}
	return fmt.Sprintf("Tool call: %s(%s)", call.ToolName(), args)
}
