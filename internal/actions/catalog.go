/*-------------------------------------------------------------------------
 *
 * catalog.go
 *    Tool name catalog for RelayAgent
 *
 * Closed registry mapping abstract tool names to the integration type
 * and provider that serve them. New tools are a compile-time addition
 * here; an unknown name resolves to an explicit unmapped error, never
 * a runtime default branch.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/actions/catalog.go
 *
 *-------------------------------------------------------------------------
 */

package actions

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

/* IntegrationType classifies what an integration does */
type IntegrationType string

const (
	IntegrationCalendar  IntegrationType = "calendar"
	IntegrationMessaging IntegrationType = "messaging"
	IntegrationCRM       IntegrationType = "crm"
	IntegrationERP       IntegrationType = "erp"
	IntegrationEmail     IntegrationType = "email"
)

/* Provider identifies the concrete vendor behind an integration */
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderMicrosoft Provider = "microsoft"
	ProviderWhatsApp  Provider = "whatsapp"
	ProviderHubSpot   Provider = "hubspot"
	ProviderSAP       Provider = "sap"
	ProviderSMTP      Provider = "smtp"
)

/* ToolName is an abstract function name the model may request */
type ToolName string

const (
	ToolCreateCalendarEvent       ToolName = "createGoogleCalendarEvent"
	ToolGetBookedCalendarEvents   ToolName = "getMyBookedCalendarEvents"
	ToolUpdateCalendarEvent       ToolName = "updateGoogleCalendarEvent"
	ToolCancelCalendarEvent       ToolName = "cancelGoogleCalendarEvent"
	ToolCheckCalendarAvailability ToolName = "checkCalendarAvailability"
	ToolSendWhatsAppMessage       ToolName = "sendWhatsAppMessage"
	ToolSendEmail                 ToolName = "sendEmail"
	ToolLookupCustomer            ToolName = "lookupCustomer"
	ToolCreateSupportTicket       ToolName = "createSupportTicket"
	ToolQueryInventory            ToolName = "queryInventory"
)

/* Binding names the integration type and provider a tool requires */
type Binding struct {
	Type     IntegrationType
	Provider Provider
	Action   string
}

/* toolBindings is the closed tool-to-integration map */
var toolBindings = map[ToolName]Binding{
	ToolCreateCalendarEvent:       {IntegrationCalendar, ProviderGoogle, "create_event"},
	ToolGetBookedCalendarEvents:   {IntegrationCalendar, ProviderGoogle, "list_events"},
	ToolUpdateCalendarEvent:       {IntegrationCalendar, ProviderGoogle, "update_event"},
	ToolCancelCalendarEvent:       {IntegrationCalendar, ProviderGoogle, "delete_event"},
	ToolCheckCalendarAvailability: {IntegrationCalendar, ProviderGoogle, "check_availability"},
	ToolSendWhatsAppMessage:       {IntegrationMessaging, ProviderWhatsApp, "send_message"},
	ToolSendEmail:                 {IntegrationEmail, ProviderSMTP, "send_email"},
	ToolLookupCustomer:            {IntegrationCRM, ProviderHubSpot, "lookup_customer"},
	ToolCreateSupportTicket:       {IntegrationCRM, ProviderHubSpot, "create_ticket"},
	ToolQueryInventory:            {IntegrationERP, ProviderSAP, "query_inventory"},
}

/* Resolve maps a tool name to its binding; ok is false for unmapped names */
func Resolve(name ToolName) (Binding, bool) {
	binding, ok := toolBindings[name]
	return binding, ok
}

/* AllToolNames returns every catalogued tool name */
func AllToolNames() []ToolName {
	names := make([]ToolName, 0, len(toolBindings))
	for name := range toolBindings {
		names = append(names, name)
	}
	return names
}

/* toolSchema describes one tool to the language model */
type toolSchema struct {
	name        ToolName
	description string
	parameters  string
}

var toolSchemas = []toolSchema{
	{
		name:        ToolGetBookedCalendarEvents,
		description: "List the user's booked calendar events. Call this before changing or cancelling anything.",
		parameters:  `{"type":"object","properties":{"timeMin":{"type":"string","description":"RFC3339 lower bound, defaults to now"},"maxResults":{"type":"integer"}},"required":[]}`,
	},
	{
		name:        ToolCreateCalendarEvent,
		description: "Create a calendar event for the user.",
		parameters:  `{"type":"object","properties":{"summary":{"type":"string"},"startDateTime":{"type":"string"},"endDateTime":{"type":"string"},"attendeeEmail":{"type":"string"}},"required":["summary","startDateTime","endDateTime"]}`,
	},
	{
		name:        ToolUpdateCalendarEvent,
		description: "Move or modify an existing calendar event. Requires the exact eventId returned by getMyBookedCalendarEvents.",
		parameters:  `{"type":"object","properties":{"eventId":{"type":"string"},"startDateTime":{"type":"string"},"endDateTime":{"type":"string"},"summary":{"type":"string"}},"required":["eventId"]}`,
	},
	{
		name:        ToolCancelCalendarEvent,
		description: "Cancel an existing calendar event. Requires the exact eventId.",
		parameters:  `{"type":"object","properties":{"eventId":{"type":"string"}},"required":["eventId"]}`,
	},
	{
		name:        ToolCheckCalendarAvailability,
		description: "Check free/busy slots in a time range before proposing appointment times.",
		parameters:  `{"type":"object","properties":{"timeMin":{"type":"string"},"timeMax":{"type":"string"}},"required":["timeMin","timeMax"]}`,
	},
	{
		name:        ToolSendWhatsAppMessage,
		description: "Send a WhatsApp message to a phone number.",
		parameters:  `{"type":"object","properties":{"to":{"type":"string"},"body":{"type":"string"}},"required":["to","body"]}`,
	},
	{
		name:        ToolSendEmail,
		description: "Send an email.",
		parameters:  `{"type":"object","properties":{"to":{"type":"string"},"subject":{"type":"string"},"body":{"type":"string"}},"required":["to","subject","body"]}`,
	},
	{
		name:        ToolLookupCustomer,
		description: "Look up a customer record in the CRM by phone or email.",
		parameters:  `{"type":"object","properties":{"phone":{"type":"string"},"email":{"type":"string"}},"required":[]}`,
	},
	{
		name:        ToolCreateSupportTicket,
		description: "Open a support ticket in the CRM on behalf of the customer.",
		parameters:  `{"type":"object","properties":{"subject":{"type":"string"},"description":{"type":"string"},"priority":{"type":"string","enum":["low","normal","high","urgent"]}},"required":["subject","description"]}`,
	},
	{
		name:        ToolQueryInventory,
		description: "Query product stock levels in the ERP.",
		parameters:  `{"type":"object","properties":{"sku":{"type":"string"},"query":{"type":"string"}},"required":[]}`,
	},
}

/* ToolCatalog renders the model-facing tool schema catalog, restricted to
 * tools whose required integration type is in activeTypes (nil means all) */
func ToolCatalog(activeTypes map[IntegrationType]bool) []openai.Tool {
	tools := make([]openai.Tool, 0, len(toolSchemas))
	for _, schema := range toolSchemas {
		binding := toolBindings[schema.name]
		if activeTypes != nil && !activeTypes[binding.Type] {
			continue
		}
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        string(schema.name),
				Description: schema.description,
				Parameters:  json.RawMessage(schema.parameters),
			},
		})
	}
	return tools
}

/* ToolDescription returns the model-facing description of one tool */
func ToolDescription(name ToolName) string {
	for _, schema := range toolSchemas {
		if schema.name == name {
			return schema.description
		}
	}
	return ""
}
