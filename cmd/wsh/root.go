// Copyright 2026 Rob Macrae. All rights reserved.
// SPDX-License-Identifier: LicenseRef-Proprietary

package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd builds the root cobra command with every subcommand wired in.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wsh",
		Short: "Programmable terminal server",
		Long:  "wsh runs shell sessions behind a PTY and exposes their screen, scrollback, input, overlays, and panels over WebSocket and HTTP.",
	}

	root.AddCommand(newServeCmd(), newAttachCmd(), newLsCmd())
	return root
}
