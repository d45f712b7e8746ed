package eqsolve

import (
	"context"
	"fmt"
	"strings"
)

// ============================================================
// Equation solving pipeline
// ============================================================

// Result is the outcome of solving one equation.
type Result struct {
	// Count is the number of distinct solutions.
	Count int
	// Equation is the parsed equality rendered as LaTeX.
	Equation string
	// Solutions holds one LaTeX string per solution. When the equation has
	// several free symbols each entry is an assignment such as
	// \left\{ x : 5 - y\right\}.
	Solutions []string
	// AllReal and AllComplex are computed independently; both hold for an
	// empty solution set.
	AllReal    bool
	AllComplex bool

	FreeSymbols []string
	LHS, RHS    Expr
	LHSText     string
	RHSText     string
	Values      []Solution
}

// Residual returns LHS - RHS.
func (r *Result) Residual() Expr { return Eq(r.LHS, r.RHS).Residual() }

// SplitEquation splits raw at its single '=' and trims both sides.
func SplitEquation(raw string) (lhs, rhs string, err error) {
	if !strings.Contains(raw, "=") {
		return "", "", ErrNotAnEquation
	}
	parts := strings.Split(raw, "=")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: expected exactly one '=', found %d", ErrParse, len(parts)-1)
	}
	lhs, rhs = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if lhs == "" {
		return "", "", fmt.Errorf("%w: left-hand side is empty", ErrParse)
	}
	if rhs == "" {
		return "", "", fmt.Errorf("%w: right-hand side is empty", ErrParse)
	}
	return lhs, rhs, nil
}

// SolveEquation parses "lhs = rhs", solves it for its free symbols and
// classifies the solutions. The solve is abandoned with ErrTimeout when ctx
// expires.
func SolveEquation(ctx context.Context, raw string) (*Result, error) {
	lhsText, rhsText, err := SplitEquation(raw)
	if err != nil {
		return nil, err
	}
	lhs, err := Parse(lhsText)
	if err != nil {
		return nil, fmt.Errorf("left-hand side: %w", err)
	}
	rhs, err := Parse(rhsText)
	if err != nil {
		return nil, fmt.Errorf("right-hand side: %w", err)
	}

	eq := Eq(lhs, rhs)
	sols, err := solveWithDeadline(ctx, eq)
	if err != nil {
		return nil, err
	}
	symbols := eq.FreeSymbols()
	if isZero(Expand(eq.Residual())) {
		// An identity such as x = x constrains nothing.
		symbols = []string{}
	}

	res := &Result{
		Count:       len(sols),
		Equation:    eq.LaTeX(),
		Solutions:   make([]string, len(sols)),
		AllReal:     true,
		AllComplex:  true,
		FreeSymbols: symbols,
		LHS:         lhs,
		RHS:         rhs,
		LHSText:     lhsText,
		RHSText:     rhsText,
		Values:      sols,
	}
	parametric := len(res.FreeSymbols) > 1
	for i, s := range sols {
		res.Solutions[i] = s.LaTeX(parametric)
		if HasImaginary(s.Value) {
			res.AllReal = false
		} else {
			res.AllComplex = false
		}
	}
	return res, nil
}

// LaTeX renders the solution value, or the assignment {symbol : value} when
// the equation has other free symbols.
func (s Solution) LaTeX(assignment bool) string {
	if !assignment {
		return s.Value.LaTeX()
	}
	return "\\left\\{ " + S(s.Symbol).LaTeX() + " : " + s.Value.LaTeX() + "\\right\\}"
}

func solveWithDeadline(ctx context.Context, eq *Equation) ([]Solution, error) {
	type outcome struct {
		sols []Solution
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("%w: %v", ErrSolve, r)}
			}
		}()
		sols, err := Solve(ctx, eq)
		done <- outcome{sols: sols, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, contextError(ctx.Err())
	case o := <-done:
		return o.sols, o.err
	}
}
