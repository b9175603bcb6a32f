/*-------------------------------------------------------------------------
 *
 * match.go
 *    Matcher dry-run command
 *
 * Scores an utterance against the compiled-in catalog exactly the way
 * the server does, without touching a database or executing anything.
 * Used for tuning trigger lists.
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cli/cmd/match.go
 *
 *-------------------------------------------------------------------------
 */

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/relaybot/RelayAgent/internal/workflow"
)

var recentTurns []string

var matchCmd = &cobra.Command{
	Use:   "match <utterance>",
	Short: "Dry-run the workflow matcher against an utterance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matcher := workflow.NewMatcher(workflow.NewCatalog())
		outcome := matcher.Match(context.Background(), args[0], recentTurns)

		if outputFormat == "json" {
			out := map[string]interface{}{
				"score":              outcome.Score,
				"simpleConfirmation": outcome.SimpleConfirmation,
				"reason":             outcome.Reason,
			}
			if outcome.Workflow != nil {
				out["workflow"] = outcome.Workflow.Name
			}
			return json.NewEncoder(os.Stdout).Encode(out)
		}

		if outcome.SimpleConfirmation {
			fmt.Println("Outcome:  simple confirmation, no workflow")
			fmt.Printf("Reason:   %s\n", outcome.Reason)
			return nil
		}
		if outcome.Workflow == nil {
			fmt.Println("Outcome:  no workflow matched")
			fmt.Printf("Reason:   %s\n", outcome.Reason)
			return nil
		}
		fmt.Printf("Workflow: %s\n", outcome.Workflow.Name)
		fmt.Printf("Category: %s\n", outcome.Workflow.Category)
		fmt.Printf("Score:    %.1f\n", outcome.Score)
		fmt.Printf("Reason:   %s\n", outcome.Reason)
		return nil
	},
}

func init() {
	matchCmd.Flags().StringArrayVar(&recentTurns, "recent", nil,
		"Recent assistant turn (repeatable, oldest first)")
}
