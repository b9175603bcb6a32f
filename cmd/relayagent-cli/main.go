/*-------------------------------------------------------------------------
 *
 * main.go
 *    CLI binary for RelayAgent management
 *
 * Copyright (c) 2024-2026, relaybot, Inc. <support@relaybot.dev>
 *
 * IDENTIFICATION
 *    RelayAgent/cmd/relayagent-cli/main.go
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
