package eqsolve

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"math/cmplx"
	"sort"
)

// ============================================================
// Solvers
// ============================================================

// Solution assigns Value to Symbol.
type Solution struct {
	Symbol string
	Value  Expr
}

var errNoClosedForm = fmt.Errorf("%w: no closed-form solution", ErrSolve)

// Numeric search parameters for equations with no closed form.
const (
	newtonRange   = 100.0
	newtonStarts  = 200
	newtonTol     = 1e-10
	newtonMaxIter = 100
)

// Solve finds every solution of eq.
//
// With no free symbols the result is empty. With one free symbol every
// solution for it is returned. With several, the equation is solved for the
// first symbol it can be solved for, preferring symbols it is linear in, and
// each solution expresses that symbol in terms of the others.
func Solve(ctx context.Context, eq *Equation) ([]Solution, error) {
	syms := eq.FreeSymbols()
	if len(syms) == 0 {
		return nil, nil
	}
	residual := eq.Residual()
	if len(syms) == 1 {
		vals, err := solveFor(ctx, residual, syms[0], true)
		if err != nil {
			return nil, err
		}
		return assign(syms[0], vals), nil
	}

	var lastErr error
	for _, s := range solveOrder(residual, syms) {
		vals, err := solveFor(ctx, residual, s, false)
		if err == nil {
			return assign(s, vals), nil
		}
		if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// SolveFor returns the values of varName that make residual zero.
func SolveFor(ctx context.Context, residual Expr, varName string) ([]Expr, error) {
	return solveFor(ctx, residual, varName, len(FreeSymbols(residual)) <= 1)
}

func assign(sym string, vals []Expr) []Solution {
	out := make([]Solution, len(vals))
	for i, v := range vals {
		out[i] = Solution{Symbol: sym, Value: v}
	}
	return out
}

func solveOrder(residual Expr, syms []string) []string {
	num, _ := together(residual)
	rank := make(map[string]int, len(syms))
	for _, s := range syms {
		d := Degree(num, s)
		if d < 1 {
			d = math.MaxInt32
		}
		rank[s] = d
	}
	out := append([]string(nil), syms...)
	sort.SliceStable(out, func(i, j int) bool { return rank[out[i]] < rank[out[j]] })
	return out
}

func contextError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrSolve, ErrTimeout)
	}
	return fmt.Errorf("%w: %w", ErrSolve, err)
}

func solveFor(ctx context.Context, residual Expr, v string, numeric bool) ([]Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}
	num, den := together(residual)
	num = Expand(num)

	var roots []Expr
	var err error
	if coeffs, ok := PolyCoeffs(num, v); ok {
		roots, err = solvePolynomial(ctx, coeffs, v)
	} else {
		roots, err = isolate(ctx, num, N(0), v)
		if err == nil {
			roots = verified(roots, residual, v)
		} else if errors.Is(err, errNoClosedForm) && numeric {
			roots, err = newtonScan(ctx, residual, v)
		}
	}
	if err != nil {
		return nil, err
	}
	return orderRoots(dedupe(withoutPoles(roots, den, v))), nil
}

// ============================================================
// Polynomials
// ============================================================

func solvePolynomial(ctx context.Context, coeffs PolyCoeffsResult, v string) ([]Expr, error) {
	deg, low := -1, -1
	for d, c := range coeffs {
		if isZero(c) {
			continue
		}
		if d > deg {
			deg = d
		}
		if low < 0 || d < low {
			low = d
		}
	}
	if deg <= 0 {
		return nil, nil
	}

	var roots []Expr
	if low > 0 {
		roots = append(roots, N(0))
	}
	deg -= low
	cs := make([]Expr, deg+1)
	for i := range cs {
		if c, ok := coeffs[i+low]; ok {
			cs[i] = c
		} else {
			cs[i] = N(0)
		}
	}

	switch deg {
	case 0:
		return roots, nil
	case 1:
		return append(roots, MulOf(N(-1), cs[0], PowOf(cs[1], N(-1)))), nil
	case 2:
		return append(roots, quadraticRoots(cs[2], cs[1], cs[0])...), nil
	}

	rats := make([]*big.Rat, len(cs))
	for i, c := range cs {
		n, ok := c.(*Num)
		if !ok || n.approx {
			return nil, fmt.Errorf("%w: cannot solve degree %d polynomial in %s with symbolic coefficients", ErrSolve, deg, v)
		}
		rats[i] = n.Rat()
	}
	rest, err := solveRationalPolynomial(ctx, rats)
	if err != nil {
		return nil, err
	}
	return append(roots, rest...), nil
}

// quadraticRoots solves a*x^2 + b*x + c = 0 exactly.
func quadraticRoots(a, b, c Expr) []Expr {
	disc := Expand(AddOf(PowOf(b, N(2)), MulOf(N(-4), a, c)))
	inv := PowOf(MulOf(N(2), a), N(-1))
	negB := MulOf(N(-1), b)
	if isZero(disc) {
		return []Expr{Expand(MulOf(negB, inv))}
	}
	sq := SqrtOf(disc)
	return []Expr{
		Expand(MulOf(AddOf(negB, MulOf(N(-1), sq)), inv)),
		Expand(MulOf(AddOf(negB, sq), inv)),
	}
}

// solveRationalPolynomial solves a polynomial with exact rational
// coefficients, lowest degree first. Rational roots are found and divided
// out exactly, small remainders are solved in closed form and anything left
// is located numerically.
func solveRationalPolynomial(ctx context.Context, cs []*big.Rat) ([]Expr, error) {
	var roots []Expr
	for len(cs) > 3 {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}
		r, ok := findRationalRoot(cs)
		if !ok {
			break
		}
		roots = append(roots, ratNum(r, false))
		cs = deflate(cs, r)
	}

	exprs := make([]Expr, len(cs))
	for i, c := range cs {
		exprs[i] = ratNum(c, false)
	}
	n := len(cs) - 1
	switch {
	case n == 1:
		return append(roots, MulOf(N(-1), exprs[0], PowOf(exprs[1], N(-1)))), nil
	case n == 2:
		return append(roots, quadraticRoots(exprs[2], exprs[1], exprs[0])...), nil
	case n == 3 && isBinomial(cs):
		return append(roots, cubeRoots(MulOf(N(-1), exprs[0], PowOf(exprs[3], N(-1))))...), nil
	case n == 4 && isEven(cs):
		for _, y := range quadraticRoots(exprs[4], exprs[2], exprs[0]) {
			r := SqrtOf(y)
			roots = append(roots, MulOf(N(-1), r), r)
		}
		return roots, nil
	}

	fs := make([]float64, len(cs))
	for i, c := range cs {
		fs[i], _ = c.Float64()
	}
	zs, err := durandKerner(ctx, fs)
	if err != nil {
		return nil, err
	}
	for _, z := range zs {
		roots = append(roots, complexExpr(z))
	}
	return roots, nil
}

func isBinomial(cs []*big.Rat) bool {
	for _, c := range cs[1 : len(cs)-1] {
		if c.Sign() != 0 {
			return false
		}
	}
	return true
}

func isEven(cs []*big.Rat) bool {
	for i := 1; i < len(cs); i += 2 {
		if cs[i].Sign() != 0 {
			return false
		}
	}
	return true
}

// cubeRoots returns the three cube roots of the rational c.
func cubeRoots(c Expr) []Expr {
	var r Expr
	if n, ok := c.(*Num); ok && n.IsNegative() {
		r = MulOf(N(-1), PowOf(numNeg(n), F(1, 3)))
	} else {
		r = PowOf(c, F(1, 3))
	}
	half := F(-1, 2)
	im := MulOf(F(1, 2), SqrtOf(N(3)), I)
	return []Expr{
		r,
		Expand(MulOf(r, AddOf(half, MulOf(N(-1), im)))),
		Expand(MulOf(r, AddOf(half, im))),
	}
}

func findRationalRoot(cs []*big.Rat) (*big.Rat, bool) {
	ints := integerCoefficients(cs)
	a0 := new(big.Int).Abs(ints[0])
	an := new(big.Int).Abs(ints[len(ints)-1])
	if a0.Sign() == 0 {
		return new(big.Rat), true
	}
	ps, ok1 := divisors(a0)
	qs, ok2 := divisors(an)
	if !ok1 || !ok2 || len(ps)*len(qs) > 20000 {
		return nil, false
	}
	for _, q := range qs {
		for _, p := range ps {
			for _, sign := range []int64{1, -1} {
				cand := new(big.Rat).SetFrac(new(big.Int).Mul(big.NewInt(sign), p), q)
				if horner(cs, cand).Sign() == 0 {
					return cand, true
				}
			}
		}
	}
	return nil, false
}

func integerCoefficients(cs []*big.Rat) []*big.Int {
	lcm := big.NewInt(1)
	for _, c := range cs {
		d := c.Denom()
		g := new(big.Int).GCD(nil, nil, lcm, d)
		lcm.Mul(lcm, new(big.Int).Quo(d, g))
	}
	out := make([]*big.Int, len(cs))
	for i, c := range cs {
		v := new(big.Rat).Mul(c, new(big.Rat).SetInt(lcm))
		out[i] = new(big.Int).Set(v.Num())
	}
	return out
}

// divisors lists the positive divisors of n. ok is false when n is too large
// to factor by trial division.
func divisors(n *big.Int) ([]*big.Int, bool) {
	if !n.IsInt64() || n.Int64() > 1e12 {
		return nil, false
	}
	v := n.Int64()
	var small, large []*big.Int
	for d := int64(1); d*d <= v; d++ {
		if v%d == 0 {
			small = append(small, big.NewInt(d))
			if d*d != v {
				large = append(large, big.NewInt(v/d))
			}
		}
	}
	for i := len(large) - 1; i >= 0; i-- {
		small = append(small, large[i])
	}
	return small, true
}

func horner(cs []*big.Rat, x *big.Rat) *big.Rat {
	acc := new(big.Rat)
	for i := len(cs) - 1; i >= 0; i-- {
		acc.Mul(acc, x)
		acc.Add(acc, cs[i])
	}
	return acc
}

// deflate divides the polynomial by (x - r), dropping the zero remainder.
func deflate(cs []*big.Rat, r *big.Rat) []*big.Rat {
	n := len(cs) - 1
	out := make([]*big.Rat, n)
	carry := new(big.Rat)
	for i := n; i >= 1; i-- {
		carry = new(big.Rat).Add(cs[i], new(big.Rat).Mul(carry, r))
		out[i-1] = carry
	}
	return out
}

// durandKerner finds all complex roots of a polynomial given by real
// coefficients, lowest degree first, then polishes each with Newton steps.
func durandKerner(ctx context.Context, cs []float64) ([]complex128, error) {
	n := len(cs) - 1
	a := make([]complex128, len(cs))
	radius := 1.0
	for i, c := range cs {
		a[i] = complex(c/cs[n], 0)
		if i < n {
			radius = math.Max(radius, 1+math.Abs(c/cs[n]))
		}
	}
	z := make([]complex128, n)
	for k := range z {
		z[k] = cmplx.Rect(radius, 2*math.Pi*float64(k)/float64(n)+0.4)
	}
	for iter := 0; iter < 2000; iter++ {
		if iter%32 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, contextError(err)
			}
		}
		maxStep := 0.0
		for k := range z {
			den := complex(1, 0)
			for j := range z {
				if j != k {
					den *= z[k] - z[j]
				}
			}
			if den == 0 {
				den = complex(1e-300, 0)
			}
			step := polyValue(a, z[k]) / den
			z[k] -= step
			maxStep = math.Max(maxStep, cmplx.Abs(step))
		}
		if maxStep < 1e-15*radius {
			break
		}
	}
	for k := range z {
		for i := 0; i < 3; i++ {
			d := polyDeriv(a, z[k])
			if d == 0 {
				break
			}
			z[k] -= polyValue(a, z[k]) / d
		}
	}
	return z, nil
}

func polyValue(a []complex128, z complex128) complex128 {
	var acc complex128
	for i := len(a) - 1; i >= 0; i-- {
		acc = acc*z + a[i]
	}
	return acc
}

func polyDeriv(a []complex128, z complex128) complex128 {
	var acc complex128
	for i := len(a) - 1; i >= 1; i-- {
		acc = acc*z + complex(float64(i), 0)*a[i]
	}
	return acc
}

// complexExpr converts a numerically located root into an inexact
// expression, dropping rounding noise in either component.
func complexExpr(z complex128) Expr {
	re, im := real(z), imag(z)
	scale := math.Max(1, cmplx.Abs(z))
	if math.Abs(im) <= 1e-10*scale {
		return NFloat(cleanFloat(re))
	}
	if math.Abs(re) <= 1e-10*scale {
		return MulOf(NFloat(cleanFloat(im)), I)
	}
	return AddOf(NFloat(cleanFloat(re)), MulOf(NFloat(cleanFloat(im)), I))
}

// cleanFloat snaps values within rounding distance of an integer.
func cleanFloat(f float64) float64 {
	if r := math.Round(f); math.Abs(f-r) <= 1e-12*math.Max(1, math.Abs(f)) {
		return r
	}
	return f
}

// ============================================================
// Isolation of a single occurrence of the unknown
// ============================================================

func isolate(ctx context.Context, lhs, rhs Expr, v string) ([]Expr, error) {
	if err := ctx.Err(); err != nil {
		return nil, contextError(err)
	}
	if s, ok := lhs.(*Sym); ok && s.name == v {
		return []Expr{rhs}, nil
	}
	switch f := lhs.(type) {
	case *Add:
		with, without := partition(f.terms, v)
		if len(with) != 1 {
			return nil, errNoClosedForm
		}
		return isolate(ctx, with[0], AddOf(rhs, MulOf(N(-1), AddOf(without...))), v)

	case *Mul:
		with, without := partition(f.factors, v)
		if len(with) == 1 {
			return isolate(ctx, with[0], MulOf(rhs, PowOf(MulOf(without...), N(-1))), v)
		}
		if !isZero(rhs) {
			return nil, errNoClosedForm
		}
		// A product vanishes where any factor does.
		var roots []Expr
		for _, factor := range with {
			rs, err := solveFor(ctx, factor, v, false)
			if err != nil {
				return nil, err
			}
			roots = append(roots, rs...)
		}
		return roots, nil

	case *Pow:
		baseHas, expHas := hasSymbol(f.base, v), hasSymbol(f.exp, v)
		switch {
		case baseHas && !expHas:
			en, ok := f.exp.(*Num)
			if !ok || en.approx {
				return nil, errNoClosedForm
			}
			if en.IsNegative() && isZero(rhs) {
				return nil, nil
			}
			principal := PowOf(rhs, numRecip(en))
			targets := []Expr{principal}
			if en.IsInteger() && new(big.Int).Abs(en.val.Num()).Bit(0) == 0 {
				targets = append(targets, MulOf(N(-1), principal))
			}
			return isolateEach(ctx, f.base, targets, v)
		case expHas && !baseHas:
			if isZero(rhs) {
				return nil, nil
			}
			if k, ok := exactLog(f.base, rhs); ok {
				return isolate(ctx, f.exp, N(k), v)
			}
			return isolate(ctx, f.exp, MulOf(LogOf(rhs), PowOf(LogOf(f.base), N(-1))), v)
		}
		return nil, errNoClosedForm

	case *Func:
		var targets []Expr
		switch f.name {
		case "exp":
			if isZero(rhs) {
				return nil, nil
			}
			targets = []Expr{LogOf(rhs)}
		case "log":
			targets = []Expr{ExpOf(rhs)}
		case "sin":
			a := AsinOf(rhs)
			targets = []Expr{a, AddOf(Pi, MulOf(N(-1), a))}
		case "cos":
			a := AcosOf(rhs)
			targets = []Expr{a, AddOf(MulOf(N(2), Pi), MulOf(N(-1), a))}
		case "tan":
			targets = []Expr{AtanOf(rhs)}
		case "asin":
			targets = []Expr{SinOf(rhs)}
		case "acos":
			targets = []Expr{CosOf(rhs)}
		case "atan":
			targets = []Expr{TanOf(rhs)}
		case "sinh":
			targets = []Expr{LogOf(AddOf(rhs, SqrtOf(AddOf(PowOf(rhs, N(2)), N(1)))))}
		case "cosh":
			a := LogOf(AddOf(rhs, SqrtOf(AddOf(PowOf(rhs, N(2)), N(-1)))))
			targets = []Expr{MulOf(N(-1), a), a}
		case "tanh":
			ratio := MulOf(AddOf(N(1), rhs), PowOf(AddOf(N(1), MulOf(N(-1), rhs)), N(-1)))
			targets = []Expr{MulOf(F(1, 2), LogOf(ratio))}
		case "abs":
			if n, ok := rhs.(*Num); ok && n.IsNegative() {
				return nil, nil
			}
			targets = []Expr{MulOf(N(-1), rhs), rhs}
		default:
			return nil, errNoClosedForm
		}
		return isolateEach(ctx, f.arg, dedupe(targets), v)
	}
	return nil, errNoClosedForm
}

func isolateEach(ctx context.Context, lhs Expr, targets []Expr, v string) ([]Expr, error) {
	var roots []Expr
	for _, t := range targets {
		rs, err := isolate(ctx, lhs, t, v)
		if err != nil {
			return nil, err
		}
		roots = append(roots, rs...)
	}
	return roots, nil
}

func partition(es []Expr, v string) (with, without []Expr) {
	for _, e := range es {
		if hasSymbol(e, v) {
			with = append(with, e)
		} else {
			without = append(without, e)
		}
	}
	return with, without
}

// exactLog returns k with base^k == val for small integers k.
func exactLog(base, val Expr) (int64, bool) {
	b, ok1 := base.(*Num)
	n, ok2 := val.(*Num)
	if !ok1 || !ok2 || b.approx || n.approx || !b.IsPositive() || b.IsOne() {
		return 0, false
	}
	for k := int64(-64); k <= 64; k++ {
		if numPow(b, k).Equal(n) {
			return k, true
		}
	}
	return 0, false
}

// verified drops numeric candidates that do not satisfy residual = 0, which
// removes extraneous roots introduced by inverting even powers and radicals.
func verified(roots []Expr, residual Expr, v string) []Expr {
	out := roots[:0]
	for _, r := range roots {
		z, err := Evalf(r)
		if err != nil {
			if len(FreeSymbols(r)) > 0 {
				out = append(out, r)
			}
			continue
		}
		res, err := EvalAt(residual, v, z)
		if err != nil {
			continue
		}
		if cmplx.Abs(res) <= 1e-8*math.Max(1, cmplx.Abs(z)) {
			out = append(out, r)
		}
	}
	return out
}

// ============================================================
// Numeric fallback
// ============================================================

// newtonScan runs Newton's method from evenly spaced starting points and
// collects the distinct real roots it converges to.
func newtonScan(ctx context.Context, residual Expr, v string) ([]Expr, error) {
	f, err := Compile(residual, v)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errNoClosedForm, err)
	}
	dcompiled, err := Compile(residual.Diff(v), v)
	if err != nil {
		dcompiled = nil
	}
	df := func(x float64) (float64, error) {
		if dcompiled != nil {
			if d, err := dcompiled(x); err == nil {
				return d, nil
			}
		}
		h := 1e-6 * math.Max(1, math.Abs(x))
		hi, err := f(x + h)
		if err != nil {
			return 0, err
		}
		lo, err := f(x - h)
		if err != nil {
			return 0, err
		}
		return (hi - lo) / (2 * h), nil
	}

	var roots []float64
	for i := 0; i <= newtonStarts; i++ {
		if err := ctx.Err(); err != nil {
			return nil, contextError(err)
		}
		x := -newtonRange + 2*newtonRange*float64(i)/newtonStarts
		for iter := 0; iter < newtonMaxIter; iter++ {
			fx, err := f(x)
			if err != nil {
				break
			}
			if math.Abs(fx) < newtonTol {
				dup := false
				for _, r := range roots {
					if math.Abs(r-x) < 1e-6*math.Max(1, math.Abs(r)) {
						dup = true
						break
					}
				}
				if !dup {
					roots = append(roots, x)
				}
				break
			}
			dfx, err := df(x)
			if err != nil || math.Abs(dfx) < 1e-15 {
				break
			}
			x -= fx / dfx
			if math.Abs(x) > newtonRange*10 {
				break
			}
		}
	}
	if len(roots) == 0 {
		return nil, fmt.Errorf("%w: no closed-form or numeric solution for %s", ErrSolve, v)
	}
	sort.Float64s(roots)
	out := make([]Expr, len(roots))
	for i, r := range roots {
		out[i] = NFloat(cleanFloat(r))
	}
	return out, nil
}

// ============================================================
// Root bookkeeping
// ============================================================

func withoutPoles(roots []Expr, den Expr, v string) []Expr {
	if !hasSymbol(den, v) {
		return roots
	}
	out := roots[:0]
	for _, r := range roots {
		z, err := Evalf(r)
		if err != nil {
			out = append(out, r)
			continue
		}
		d, err := EvalAt(den, v, z)
		if err != nil || cmplx.Abs(d) < 1e-12 {
			continue
		}
		out = append(out, r)
	}
	return out
}

func dedupe(es []Expr) []Expr {
	seen := map[string]bool{}
	out := make([]Expr, 0, len(es))
	for _, e := range es {
		key := e.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}

// orderRoots sorts numeric roots by real then imaginary part. Roots that
// still contain symbols keep their relative order after the numeric ones.
func orderRoots(es []Expr) []Expr {
	type keyed struct {
		e       Expr
		z       complex128
		numeric bool
	}
	ks := make([]keyed, len(es))
	for i, e := range es {
		z, err := Evalf(e)
		ks[i] = keyed{e: e, z: z, numeric: err == nil}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		a, b := ks[i], ks[j]
		if a.numeric != b.numeric {
			return a.numeric
		}
		if !a.numeric {
			return false
		}
		if d := real(a.z) - real(b.z); math.Abs(d) > 1e-12*math.Max(1, math.Abs(real(a.z))) {
			return d < 0
		}
		return imag(a.z) < imag(b.z)
	})
	out := make([]Expr, len(ks))
	for i := range ks {
		out[i] = ks[i].e
	}
	return out
}
