// Copyright 2024-present The pgalign Authors. All rights reserved.
// This source code is licensed under the Apache 2.0 license found
// in the LICENSE file in the root directory of this source tree.

package main

import (
	"github.com/pgalign/pgalign/cmd/pgalign/internal/cmdapi"

	"github.com/spf13/cobra"

	_ "github.com/lib/pq"
)

func main() {
	cobra.CheckErr(cmdapi.RootCmd.Execute())
}
