// Copyright (C) 2020-2026, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Command oracle-node runs one node of the decentralized oracle
// network: the peer RPC surface, the external API, the metrics
// exposition, and, on the configured primary, the listener scheduler.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "oracle-node",
	Short: "Run and manage a node of the oracle task-coordination network",
	Long: `oracle-node drives the four-phase Prepare/Process/Validate/Execute
coordination protocol between a primary node and its peers, and the
scheduled listener runtime that feeds Tasks into it.`,
}

func main() {
	rootCmd.AddCommand(
		runCmd(),
		keygenCmd(),
		configCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
