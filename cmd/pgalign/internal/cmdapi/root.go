// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

// Package cmdapi holds the commands of the pgalign CLI.
package cmdapi

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:   "pgalign",
	Short: "Reconcile a declared PostgreSQL schema with a live database",
}

func init() {
	RootCmd.AddCommand(PlanCmd)
	RootCmd.AddCommand(ApplyCmd)
}
