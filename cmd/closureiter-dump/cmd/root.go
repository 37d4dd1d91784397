package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "closureiter-dump",
	Short: "Inspect the closure-iterator lowering pass on built-in sample generators",
	Long: `closureiter-dump runs the closure-iterator lowering pass (C1-C8) over a
small registry of sample generator bodies, built directly as AST values
rather than parsed from source, and prints the resulting state machine.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(listCmd)
}
