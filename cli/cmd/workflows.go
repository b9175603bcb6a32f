/*-------------------------------------------------------------------------
 *
 * workflows.go
 *    Workflow catalog inspection commands
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cli/cmd/workflows.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/relaybot/RelayAgent/internal/workflow"
)

var workflowsCmd = &cobra.Command{
	Use:   "workflows",
	Short: "Inspect the compiled-in workflow catalog",
}

var workflowsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all workflows",
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := workflow.NewCatalog()
		definitions := catalog.Workflows()

		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(definitions)
		}

		fmt.Printf("%-26s %-18s %-9s %-6s %s\n", "NAME", "CATEGORY", "PRIORITY", "STEPS", "TRIGGERS")
		for _, def := range definitions {
			triggers := strings.Join(def.Triggers, ", ")
			if len(triggers) > 60 {
				triggers = triggers[:57] + "..."
			}
			fmt.Printf("%-26s %-18s %-9d %-6d %s\n",
				def.Name, def.Category, def.Priority, len(def.Steps), triggers)
		}
		return nil
	},
}

var workflowsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one workflow with its steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog := workflow.NewCatalog()
		def := catalog.ByName(args[0])
		if def == nil {
			return fmt.Errorf("workflow lookup failed: name='%s', error=not in catalog", args[0])
		}

		if outputFormat == "json" {
			return json.NewEncoder(os.Stdout).Encode(def)
		}

		fmt.Printf("Name:          %s\n", def.Name)
		fmt.Printf("Category:      %s\n", def.Category)
		fmt.Printf("Priority:      %d\n", def.Priority)
		fmt.Printf("Context-aware: %v\n", def.ContextAware)
		fmt.Printf("Triggers:      %s\n", strings.Join(def.Triggers, ", "))
		fmt.Println("Steps:")
		for i, step := range def.Steps {
			required := "optional"
			if step.Required {
				required = "required"
			}
			line := fmt.Sprintf("  %d. %s (%s", i+1, step.Tool, required)
			if step.Conditional != workflow.PredicateNone {
				line += fmt.Sprintf(", if %s", step.Conditional)
			}
			if step.RetryOnFailure {
				line += fmt.Sprintf(", retries %d", step.MaxRetries)
			}
			fmt.Println(line + ")")
		}
		return nil
	},
}

func init() {
	workflowsCmd.AddCommand(workflowsListCmd)
	workflowsCmd.AddCommand(workflowsShowCmd)
}
