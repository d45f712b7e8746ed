package plot

import (
	"fmt"
	"math"
	"strings"

	"github.com/njchilds90/eqsolve"
)

// rootImagTolerance is the largest imaginary part a solution may carry and
// still be plotted as a real root.
const rootImagTolerance = 1e-9

// Domain is a closed interval on the x axis.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// DefaultDomain is used when there is no real root to centre on.
var DefaultDomain = Domain{Min: -10, Max: 10}

// RealRoots evaluates each solution numerically and keeps the real ones in
// input order. Solutions that cannot be evaluated are skipped.
func RealRoots(values []eqsolve.Expr) []float64 {
	var roots []float64
	for _, v := range values {
		z, err := eqsolve.Evalf(v)
		if err != nil {
			continue
		}
		if math.Abs(imag(z)) < rootImagTolerance {
			roots = append(roots, real(z))
		}
	}
	return roots
}

// ChooseDomain pads the span of the roots by twice its width plus one on
// each side, with the span never taken below 1.
func ChooseDomain(roots []float64) Domain {
	if len(roots) == 0 {
		return DefaultDomain
	}
	smin, smax := roots[0], roots[0]
	for _, r := range roots[1:] {
		smin = math.Min(smin, r)
		smax = math.Max(smax, r)
	}
	span := math.Max(1, smax-smin)
	return Domain{Min: smin - 2*span - 1, Max: smax + 2*span + 1}
}

// Sample evaluates f at n evenly spaced points across d, endpoints included.
// A point where f fails becomes NaN and breaks the curve there.
func Sample(f func(float64) (float64, error), d Domain, n int) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	xs = make([]float64, n)
	ys = make([]float64, n)
	step := (d.Max - d.Min) / float64(n-1)
	for i := range xs {
		x := d.Min + step*float64(i)
		if i == n-1 {
			x = d.Max
		}
		xs[i] = x
		y, err := f(x)
		if err != nil || math.IsInf(y, 0) {
			y = math.NaN()
		}
		ys[i] = y
	}
	return xs, ys
}

// SkipMessage explains why no figure was drawn for an equation with the
// given free symbols.
func SkipMessage(symbols []string) string {
	return fmt.Sprintf("Plot only produced for single-variable equations (found symbols: %s).",
		strings.Join(symbols, ","))
}
