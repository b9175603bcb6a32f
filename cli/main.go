/*-------------------------------------------------------------------------
 *
 * main.go
 *    Entry point for relayagent-cli
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cli/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"github.com/relaybot/RelayAgent/cli/cmd"
)

func main() {
	cmd.Execute()
}
