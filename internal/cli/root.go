package cli

import "github.com/spf13/cobra"

// NewRootCmd creates the top-level "hatchctl" command.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hatchctl",
		Short:         "Offline tools for the incubation weight engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newSimulateCmd())

	return root
}
