package main

import (
	"fmt"

	"github.com/aretw0/sessiond"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sessiond",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sessiond version %s\n", sessiond.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
