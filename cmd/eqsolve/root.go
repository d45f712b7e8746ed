package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "eqsolve",
	Short: "Solve equations symbolically and plot them",
	Long: `eqsolve parses an equation, solves it symbolically and prints each
solution as LaTeX.

Example:
  eqsolve solve "x^2 - 4 = 0"
  eqsolve solve --plot out.png "2^x = 8"`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(solveCmd)
}

func logVerbose(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[eqsolve] "+format+"\n", args...)
	}
}
