package cmd

import (
	"fmt"
	"strings"

	"github.com/cwbudde/closureiter/internal/closureiter"
	"github.com/spf13/cobra"
)

var (
	dumpStates bool
	dumpTable  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <sample>",
	Short: "Lower a sample generator and print its state machine",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().BoolVar(&dumpStates, "dump-states", false, "print each state's body before C8 assembly")
	dumpCmd.Flags().BoolVar(&dumpTable, "dump-table", false, "print the exception table")
}

func runDump(cmd *cobra.Command, args []string) error {
	build, ok := samples[args[0]]
	if !ok {
		return fmt.Errorf("unknown sample %q (see 'closureiter-dump list')", args[0])
	}
	fn := build()

	ctx := closureiter.NewContext(fn.PostLifting, nil)
	normalized := closureiter.Normalize(ctx, fn.Body)
	closureiter.Split(ctx, normalized)
	closureiter.Eliminate(ctx)
	closureiter.Materialize(ctx, ctx.States())

	if dumpStates {
		fmt.Printf("states for %s:\n", fn.Name)
		for _, s := range ctx.States() {
			fmt.Printf("  state %d:\n", s.Index)
			fmt.Println(indentLines(s.AsBlock().String(), "    "))
		}
	}
	if dumpTable {
		fmt.Printf("exception table for %s: %v\n", fn.Name, ctx.Table())
	}

	body := closureiter.Dispatch(ctx)
	fmt.Printf("lowered body for %s:\n", fn.Name)
	fmt.Println(body.String())
	return nil
}

func indentLines(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
