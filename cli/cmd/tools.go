/*-------------------------------------------------------------------------
 *
 * tools.go
 *    Tool registry inspection commands
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cli/cmd/tools.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaybot/RelayAgent/internal/actions"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect the closed tool registry",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tools with their integration bindings",
	RunE: func(cmd *cobra.Command, args []string) error {
		names := actions.AllToolNames()

		if outputFormat == "json" {
			out := make([]map[string]string, 0, len(names))
			for _, name := range names {
				binding, _ := actions.Resolve(name)
				out = append(out, map[string]string{
					"name":        string(name),
					"type":        string(binding.Type),
					"provider":    string(binding.Provider),
					"action":      binding.Action,
					"description": actions.ToolDescription(name),
				})
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		}

		fmt.Printf("%-32s %-10s %-10s %s\n", "TOOL", "TYPE", "PROVIDER", "ACTION")
		for _, name := range names {
			binding, _ := actions.Resolve(name)
			fmt.Printf("%-32s %-10s %-10s %s\n", name, binding.Type, binding.Provider, binding.Action)
		}
		return nil
	},
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
}
