package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		v := Version
		if len(CommitSHA) >= 7 {
			v += " (" + CommitSHA[:7] + ")"
		}
		fmt.Fprintln(cmd.OutOrStdout(), "brief version", v)
	},
}
