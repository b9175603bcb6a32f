/*-------------------------------------------------------------------------
 *
 * prompt_test.go
 *    Tests for system prompt assembly and history mapping
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 *-------------------------------------------------------------------------
 */

package completion

import (
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaybot/RelayAgent/internal/actions"
	"github.com/relaybot/RelayAgent/internal/db"
)

func promptInput() PromptInput {
	return PromptInput{
		Agent: testAgent(),
		Now:   time.Date(2026, 9, 1, 10, 30, 0, 0, time.UTC),
		Tools: actions.ToolCatalog(map[actions.IntegrationType]bool{
			actions.IntegrationCalendar: true,
		}),
		ActiveIntegrations: []db.Integration{{
			Type:         "calendar",
			Provider:     "google",
			Name:         "clinic-calendar",
			Status:       db.IntegrationStatusActive,
			Capabilities: []string{"list_events", "update_event"},
		}},
		Knowledge:       "KNOWLEDGE:\n- Las citas duran 30 minutos.\n\n",
		WorkflowContext: "WORKFLOW CONTEXT (rescheduleAppointment):\nEXACT EVENT ID: evt_9\n",
	}
}

func TestBuildSystemMessageSections(t *testing.T) {
	msg := BuildSystemMessage(promptInput())

	persona := strings.Index(msg, "recepcionista virtual")
	clock := strings.Index(msg, "Current date and time: Tuesday, 1 September 2026, 10:30 UTC")
	tools := strings.Index(msg, "You can use the following tools")
	integrations := strings.Index(msg, "Active integrations for this agent:")
	know := strings.Index(msg, "Las citas duran 30 minutos")
	annex := strings.Index(msg, "WORKFLOW CONTEXT (rescheduleAppointment):")

	for name, idx := range map[string]int{
		"persona":      persona,
		"clock":        clock,
		"tools":        tools,
		"integrations": integrations,
		"knowledge":    know,
		"annex":        annex,
	} {
		require.GreaterOrEqual(t, idx, 0, "missing section %s", name)
	}

	/* fixed section order */
	assert.Less(t, persona, clock)
	assert.Less(t, clock, tools)
	assert.Less(t, tools, integrations)
	assert.Less(t, integrations, know)
	assert.Less(t, know, annex)

	assert.Contains(t, msg, "- getMyBookedCalendarEvents:")
	assert.Contains(t, msg, "do not produce any prose in the same message")
	assert.Contains(t, msg, "calendar/google (clinic-calendar): capabilities=list_events, update_event")
	assert.False(t, strings.HasSuffix(msg, "\n"))
}

func TestBuildSystemMessageToolsDisabled(t *testing.T) {
	input := promptInput()
	input.ToolsDisabled = true

	msg := BuildSystemMessage(input)

	assert.NotContains(t, msg, "You can use the following tools")
	assert.NotContains(t, msg, "getMyBookedCalendarEvents")
}

func TestBuildSystemMessageDefaultPersona(t *testing.T) {
	input := promptInput()
	input.Agent = &db.Agent{ModelName: "gpt-4o"}

	msg := BuildSystemMessage(input)

	assert.Contains(t, msg, "You are a helpful assistant for this business.")
}

func TestBuildSystemMessageIsDeterministic(t *testing.T) {
	first := BuildSystemMessage(promptInput())
	second := BuildSystemMessage(promptInput())
	assert.Equal(t, first, second)
}

func TestBuildHistoryRoleMapping(t *testing.T) {
	history := BuildHistory([]db.Message{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "¡hola!"},
		{Role: "agent", Content: "¿en qué puedo ayudarte?"},
		{Role: "system", Content: "note"},
		{Role: "webhook", Content: "dropped"},
	})

	require.Len(t, history, 4)
	assert.Equal(t, openai.ChatMessageRoleUser, history[0].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, history[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, history[2].Role)
	assert.Equal(t, openai.ChatMessageRoleSystem, history[3].Role)
	assert.Equal(t, "¿en qué puedo ayudarte?", history[2].Content)
}
