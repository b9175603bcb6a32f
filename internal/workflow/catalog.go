/*-------------------------------------------------------------------------
 *
 * catalog.go
 *    Static workflow catalog for RelayAgent
 *
 * The catalog of multi-step procedures the matcher scores utterances
 * against. Built once at startup and injected read-only; definitions
 * are never mutated after construction.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/internal/workflow/catalog.go
 *
 *-------------------------------------------------------------------------
 */

package workflow

import "github.com/relaybot/RelayAgent/internal/actions"

/* Well-known workflow names the matcher treats specially */
const (
	WorkflowReschedule = "rescheduleAppointment"
	WorkflowSchedule   = "scheduleAppointment"
	WorkflowCancel     = "cancelAppointment"
	WorkflowVIPSupport = "vipUrgentSupport"
	WorkflowService    = "customerServiceInquiry"
	WorkflowSales      = "salesInquiry"
	WorkflowGeneral    = "generalInquiry"
)

/* Catalog is the immutable workflow library */
type Catalog struct {
	workflows []Definition
	byName    map[string]*Definition
}

/* NewCatalog builds the static workflow catalog */
func NewCatalog() *Catalog {
	workflows := []Definition{
		{
			Name:         WorkflowReschedule,
			Triggers:     []string{"cambiar", "reagendar", "reprogramar", "mover mi cita", "reschedule", "change my appointment", "move my appointment"},
			Priority:     10,
			Category:     CategoryAppointments,
			ContextAware: true,
			Steps: []Step{
				{
					Tool:           actions.ToolGetBookedCalendarEvents,
					Action:         "list_events",
					Required:       true,
					RetryOnFailure: true,
					MaxRetries:     2,
				},
				{
					Tool:        actions.ToolCheckCalendarAvailability,
					Action:      "check_availability",
					Required:    false,
					Conditional: PredicateHasExistingAppointments,
				},
			},
		},
		{
			Name:         WorkflowSchedule,
			Triggers:     []string{"agendar", "cita", "reservar", "appointment", "book", "schedule"},
			Priority:     8,
			Category:     CategoryAppointments,
			ContextAware: true,
			Steps: []Step{
				{
					Tool:           actions.ToolGetBookedCalendarEvents,
					Action:         "list_events",
					Required:       false,
					RetryOnFailure: true,
					MaxRetries:     1,
				},
				{
					Tool:           actions.ToolCheckCalendarAvailability,
					Action:         "check_availability",
					Required:       true,
					RetryOnFailure: true,
					MaxRetries:     2,
				},
			},
		},
		{
			Name:         WorkflowCancel,
			Triggers:     []string{"cancelar", "anular", "cancel my appointment", "cancelar mi cita"},
			Priority:     9,
			Category:     CategoryAppointments,
			ContextAware: true,
			Steps: []Step{
				{
					Tool:           actions.ToolGetBookedCalendarEvents,
					Action:         "list_events",
					Required:       true,
					RetryOnFailure: true,
					MaxRetries:     2,
				},
			},
		},
		{
			Name:         WorkflowVIPSupport,
			Triggers:     []string{"urgente", "emergencia", "queja", "reclamo", "urgent", "complaint", "escalate"},
			Priority:     9,
			Category:     CategoryCustomerService,
			ContextAware: true,
			Steps: []Step{
				{
					Tool:           actions.ToolLookupCustomer,
					Action:         "lookup_customer",
					Required:       true,
					RetryOnFailure: true,
					MaxRetries:     1,
				},
				{
					Tool:        actions.ToolCreateSupportTicket,
					Action:      "create_ticket",
					Required:    false,
					Conditional: PredicateIsUrgentRequest,
					Parameters:  map[string]interface{}{"priority": "urgent"},
				},
			},
		},
		{
			Name:         WorkflowService,
			Triggers:     []string{"ayuda", "soporte", "problema", "help", "support", "issue", "no funciona"},
			Priority:     5,
			Category:     CategoryCustomerService,
			ContextAware: true,
			Steps: []Step{
				{
					Tool:     actions.ToolLookupCustomer,
					Action:   "lookup_customer",
					Required: false,
				},
			},
		},
		{
			Name:         WorkflowSales,
			Triggers:     []string{"precio", "comprar", "cotización", "disponibilidad", "price", "buy", "quote", "stock"},
			Priority:     6,
			Category:     CategorySales,
			ContextAware: true,
			Steps: []Step{
				{
					Tool:           actions.ToolQueryInventory,
					Action:         "query_inventory",
					Required:       true,
					RetryOnFailure: true,
					MaxRetries:     1,
				},
				{
					Tool:        actions.ToolLookupCustomer,
					Action:      "lookup_customer",
					Required:    false,
					Conditional: PredicateIsExistingClient,
				},
			},
		},
		{
			Name:         WorkflowGeneral,
			Triggers:     []string{"información", "horario", "information", "hours", "dónde están", "where are you"},
			Priority:     2,
			Category:     CategoryCustomerService,
			ContextAware: false,
			Steps: []Step{
				{
					Tool:        actions.ToolLookupCustomer,
					Action:      "lookup_customer",
					Required:    false,
					Conditional: PredicateIsExistingClient,
				},
			},
		},
	}

	byName := make(map[string]*Definition, len(workflows))
	for i := range workflows {
		byName[workflows[i].Name] = &workflows[i]
	}

	return &Catalog{workflows: workflows, byName: byName}
}

/* Workflows returns all definitions in catalog order */
func (c *Catalog) Workflows() []Definition {
	return c.workflows
}

/* ByName looks up a definition by name */
func (c *Catalog) ByName(name string) *Definition {
	return c.byName[name]
}
