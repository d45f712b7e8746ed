package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/njchilds90/eqsolve"
	"github.com/njchilds90/eqsolve/plot"
)

var (
	plotPath   string
	asJSON     bool
	timeout    time.Duration
	plotSample int
)

var solveCmd = &cobra.Command{
	Use:   "solve EQUATION",
	Short: "Solve an equation",
	Long: `Solve an equation of the form "lhs = rhs" for its free symbols.

Single-variable equations can be plotted with --plot; the figure shows
lhs - rhs with its real roots marked.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&plotPath, "plot", "", "Write a PNG plot to this file")
	solveCmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	solveCmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "Give up solving after this long")
	solveCmd.Flags().IntVar(&plotSample, "samples", plot.DefaultOptions().Samples, "Number of plot samples")
}

type cliResult struct {
	Equation    string       `json:"equation"`
	Solutions   []string     `json:"solutions"`
	Count       int          `json:"count"`
	AllReal     bool         `json:"all_real"`
	AllComplex  bool         `json:"all_complex"`
	Symbols     []string     `json:"symbols"`
	Plot        *plot.Result `json:"plot,omitempty"`
	PlotMessage string       `json:"plot_message,omitempty"`
}

func runSolve(cmd *cobra.Command, args []string) error {
	// Unquoted equations arrive split on spaces
	raw := strings.Join(args, " ")

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	start := time.Now()
	res, err := eqsolve.SolveEquation(ctx, raw)
	if err != nil {
		return err
	}
	logVerbose("solved %q in %s", raw, time.Since(start))

	out := cliResult{
		Equation:   res.Equation,
		Solutions:  res.Solutions,
		Count:      res.Count,
		AllReal:    res.AllReal,
		AllComplex: res.AllComplex,
		Symbols:    res.FreeSymbols,
	}

	if plotPath != "" {
		if len(res.FreeSymbols) != 1 {
			out.PlotMessage = plot.SkipMessage(res.FreeSymbols)
		} else {
			pr, err := writePlot(cmd.Context(), res)
			if err != nil {
				return err
			}
			out.Plot = pr
			logVerbose("plot written to %s", plotPath)
		}
	}

	return printResult(cmd.OutOrStdout(), out)
}

func writePlot(ctx context.Context, res *eqsolve.Result) (*plot.Result, error) {
	f, err := os.Create(plotPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create plot file: %w", err)
	}

	values := make([]eqsolve.Expr, len(res.Values))
	for i, v := range res.Values {
		values[i] = v.Value
	}
	opts := plot.DefaultOptions()
	opts.Samples = plotSample

	pr, err := plot.Render(ctx, f, plot.Request{
		Variable:  res.FreeSymbols[0],
		Function:  res.Residual(),
		Solutions: values,
		LHSText:   res.LHSText,
	}, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(plotPath)
		return nil, err
	}
	return pr, nil
}

func printResult(w io.Writer, out cliResult) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if out.Count == 0 {
		fmt.Fprintln(w, "no solutions")
	}
	for _, s := range out.Solutions {
		fmt.Fprintln(w, s)
	}
	if out.PlotMessage != "" {
		fmt.Fprintln(w, out.PlotMessage)
	}
	return nil
}
