package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the Lingo CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lingo",
		Short: "Lingo - language lessons with a local auth session",
		Long: `Lingo runs the lesson web front end and manages the locally
remembered sign-in kept in the encrypted session store.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newForgetCmd())

	return cmd
}
