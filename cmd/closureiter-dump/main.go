// Command closureiter-dump runs the closure-iterator lowering pass
// over a small built-in registry of sample generator bodies and
// prints the result, for manual inspection during development.
package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/closureiter/cmd/closureiter-dump/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
