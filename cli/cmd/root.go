/*-------------------------------------------------------------------------
 *
 * root.go
 *    Root command and global flags for relayagent-cli
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cli/cmd/root.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "relayagent-cli",
	Short: "RelayAgent CLI - inspect and dry-run the orchestration engine",
	Long: `RelayAgent CLI provides operator commands for the conversational action
orchestration engine.

Examples:
  # List the workflow catalog
  relayagent-cli workflows list

  # Show one workflow with its steps
  relayagent-cli workflows show rescheduleAppointment

  # Dry-run the matcher against an utterance
  relayagent-cli match "quiero cambiar mi cita"

  # Dry-run with recent assistant context
  relayagent-cli match "ok" --recent "¿Te gustaría cambiar tu cita?"

  # List the tool registry
  relayagent-cli tools list
`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "text", "Output format (text, json)")

	rootCmd.AddCommand(workflowsCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(toolsCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
