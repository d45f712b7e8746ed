// Command eqsolve solves an equation from the command line and optionally
// writes a plot of it.
//
// Usage:
//
//	eqsolve solve "x^2 - 4 = 0"
//	eqsolve solve --plot roots.png "sin(x) = 1/2"
//	eqsolve solve --json "x + y = 5"
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
