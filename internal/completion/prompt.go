/*-------------------------------------------------------------------------
 *
 * prompt.go
 *    Prompt assembly for the RelayAgent completion loop
 *
 * Builds the system message (persona, current time, tool inventory,
 * integration capabilities, retrieved knowledge, workflow annex) and
 * maps persisted conversation history onto chat roles.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/completion/prompt.go
 *
 *-------------------------------------------------------------------------
 */

package completion

import (
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
)

/* PromptInput carries everything the system message is built from */
type PromptInput struct {
	Agent              *db.Agent
	Now                time.Time
	Tools              []openai.Tool
	ActiveIntegrations []db.Integration
	Knowledge          string
	WorkflowContext    string
	ToolsDisabled      bool
}

/* BuildSystemMessage renders the system prompt in a fixed section order
 * so identical inputs always produce identical prompts */
func BuildSystemMessage(input PromptInput) string {
	var sb strings.Builder

	instructions := strings.TrimSpace(input.Agent.SystemInstructions)
	if instructions == "" {
		instructions = "You are a helpful assistant for this business. Answer in the language the user writes in."
	}
	sb.WriteString(instructions)
	sb.WriteString("\n\n")

	fmt.Fprintf(&sb, "Current date and time: %s\n\n", input.Now.Format("Monday, 2 January 2006, 15:04 MST"))

	if !input.ToolsDisabled && len(input.Tools) > 0 {
		sb.WriteString("You can use the following tools when the user's request requires real-world data or actions:\n")
		for _, tool := range input.Tools {
			fmt.Fprintf(&sb, "- %s: %s\n", tool.Function.Name, actions.ToolDescription(actions.ToolName(tool.Function.Name)))
		}
		sb.WriteString("When you call a tool, do not produce any prose in the same message; answer the user only after the tool results come back.\n\n")
	}

	if len(input.ActiveIntegrations) > 0 {
		sb.WriteString("Active integrations for this agent:\n")
		for _, integration := range input.ActiveIntegrations {
			caps := strings.Join(integration.Capabilities, ", ")
			if caps == "" {
				caps = "none"
			}
			fmt.Fprintf(&sb, "- %s/%s (%s): capabilities=%s\n", integration.Type, integration.Provider, integration.Name, caps)
		}
		sb.WriteString("\n")
	}

	if input.Knowledge != "" {
		sb.WriteString(input.Knowledge)
		sb.WriteString("Answer from this knowledge when it covers the question; say so when it does not.\n\n")
	}

	if input.WorkflowContext != "" {
		sb.WriteString(input.WorkflowContext)
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

/* BuildHistory maps persisted messages onto chat completion roles,
 * oldest first. Unknown roles are dropped rather than guessed. */
func BuildHistory(messages []db.Message) []openai.ChatCompletionMessage {
	history := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		var role string
		switch msg.Role {
		case "user":
			role = openai.ChatMessageRoleUser
		case "assistant", "agent":
			role = openai.ChatMessageRoleAssistant
		case "system":
			role = openai.ChatMessageRoleSystem
		default:
			continue
		}
		history = append(history, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return history
}
