package eqsolve

import (
	"sort"
)

// ============================================================
// Coefficients and expansion
// ============================================================

func extractCoefficient(e Expr) (*Num, Expr) {
	if m, ok := e.(*Mul); ok && len(m.factors) >= 2 {
		if coeff, ok2 := m.factors[0].(*Num); ok2 {
			rest := m.factors[1:]
			if len(rest) == 1 {
				return coeff, rest[0]
			}
			return coeff, &Mul{factors: rest}
		}
	}
	return N(1), e
}

// maxExpandPower bounds the integer powers of sums that Expand multiplies out.
const maxExpandPower = 12

// Expand distributes products over sums and multiplies out small integer
// powers of sums.
func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		expanded := make([]Expr, len(v.factors))
		for i, f := range v.factors {
			expanded[i] = expandExpr(f)
		}
		for i, f := range expanded {
			if a, ok := f.(*Add); ok {
				rest := make([]Expr, 0, len(expanded)-1)
				for j, ef := range expanded {
					if j != i {
						rest = append(rest, ef)
					}
				}
				terms := make([]Expr, len(a.terms))
				for k, t := range a.terms {
					terms[k] = expandExpr(MulOf(append([]Expr{t}, rest...)...))
				}
				return expandExpr(AddOf(terms...))
			}
		}
		return MulOf(expanded...)
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && !n.approx {
			exp := n.val.Num().Int64()
			if _, isAdd := base.(*Add); isAdd && exp >= 2 && exp <= maxExpandPower {
				result := base
				for i := int64(1); i < exp; i++ {
					result = distribute(result, base)
				}
				return result
			}
		}
		return PowOf(base, v.exp)
	}
	return e
}

// distribute multiplies two expanded expressions term by term. MulOf on two
// equal sums would fold them back into a power.
func distribute(a, b Expr) Expr {
	as, bs := addTerms(a), addTerms(b)
	terms := make([]Expr, 0, len(as)*len(bs))
	for _, x := range as {
		for _, y := range bs {
			terms = append(terms, expandExpr(MulOf(x, y)))
		}
	}
	return AddOf(terms...)
}

func addTerms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free Symbols
// ============================================================

// FreeSymbols returns the sorted names of the symbols in e.
func FreeSymbols(e Expr) []string {
	set := map[string]struct{}{}
	collectSymbols(e, set)
	return sortedNames(set)
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		collectSymbols(v.arg, out)
	}
}

func hasSymbol(e Expr, name string) bool {
	switch v := e.(type) {
	case *Sym:
		return v.name == name
	case *Add:
		for _, t := range v.terms {
			if hasSymbol(t, name) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if hasSymbol(f, name) {
				return true
			}
		}
	case *Pow:
		return hasSymbol(v.base, name) || hasSymbol(v.exp, name)
	case *Func:
		return hasSymbol(v.arg, name)
	}
	return false
}

// HasImaginary reports whether the imaginary unit appears anywhere in e.
func HasImaginary(e Expr) bool {
	switch v := e.(type) {
	case *Const:
		return v == I
	case *Add:
		for _, t := range v.terms {
			if HasImaginary(t) {
				return true
			}
		}
	case *Mul:
		for _, f := range v.factors {
			if HasImaginary(f) {
				return true
			}
		}
	case *Pow:
		return HasImaginary(v.base) || HasImaginary(v.exp)
	case *Func:
		return HasImaginary(v.arg)
	}
	return false
}

// ============================================================
// Polynomial utilities
// ============================================================

// Degree returns the degree of expr in varName, or -1 when expr is not a
// polynomial in varName.
func Degree(expr Expr, varName string) int {
	coeffs, ok := PolyCoeffs(expr, varName)
	if !ok {
		return -1
	}
	deg := 0
	for d, c := range coeffs {
		if d > deg && !isZero(c) {
			deg = d
		}
	}
	return deg
}

type PolyCoeffsResult map[int]Expr

// PolyCoeffs expands expr and returns its coefficients by power of varName.
// ok is false when varName appears anywhere other than in a non-negative
// integer power.
func PolyCoeffs(expr Expr, varName string) (PolyCoeffsResult, bool) {
	result := PolyCoeffsResult{}
	e := Expand(expr)
	var terms []Expr
	if a, ok := e.(*Add); ok {
		terms = a.terms
	} else {
		terms = []Expr{e}
	}
	for _, t := range terms {
		deg, coeff, ok := monomial(t, varName)
		if !ok {
			return nil, false
		}
		addCoeff(result, deg, coeff)
	}
	return result, true
}

func monomial(t Expr, varName string) (int, Expr, bool) {
	factors := []Expr{t}
	if m, ok := t.(*Mul); ok {
		factors = m.factors
	}
	deg := 0
	coeffFactors := []Expr{}
	for _, f := range factors {
		if !hasSymbol(f, varName) {
			coeffFactors = append(coeffFactors, f)
			continue
		}
		d, ok := symbolPower(f, varName)
		if !ok {
			return 0, nil, false
		}
		deg += d
	}
	switch len(coeffFactors) {
	case 0:
		return deg, N(1), true
	case 1:
		return deg, coeffFactors[0], true
	}
	return deg, MulOf(coeffFactors...), true
}

func symbolPower(f Expr, varName string) (int, bool) {
	switch v := f.(type) {
	case *Sym:
		return 1, v.name == varName
	case *Pow:
		sym, ok := v.base.(*Sym)
		if !ok || sym.name != varName {
			return 0, false
		}
		n, ok := v.exp.(*Num)
		if !ok || !n.IsInteger() || n.IsNegative() || n.approx || !n.val.Num().IsInt64() {
			return 0, false
		}
		return int(n.val.Num().Int64()), true
	}
	return 0, false
}

func addCoeff(out PolyCoeffsResult, deg int, val Expr) {
	if existing, ok := out[deg]; ok {
		out[deg] = AddOf(existing, val)
	} else {
		out[deg] = val.Simplify()
	}
}

func isZero(e Expr) bool {
	n, ok := e.(*Num)
	return ok && n.IsZero()
}

// ============================================================
// Rational normalisation
// ============================================================

// together rewrites e as numerator/denominator with no negative integer
// powers left in the numerator.
func together(e Expr) (num, den Expr) {
	switch v := e.(type) {
	case *Add:
		num, den = N(0), Expr(N(1))
		for _, t := range v.terms {
			tn, td := together(t)
			if td.Equal(den) {
				num = AddOf(num, tn)
				continue
			}
			num = AddOf(MulOf(num, td), MulOf(tn, den))
			den = MulOf(den, td)
		}
		return num, den
	case *Mul:
		nums := make([]Expr, 0, len(v.factors))
		dens := make([]Expr, 0, len(v.factors))
		for _, f := range v.factors {
			fn, fd := together(f)
			nums = append(nums, fn)
			dens = append(dens, fd)
		}
		return MulOf(nums...), MulOf(dens...)
	case *Pow:
		if n, ok := v.exp.(*Num); ok && n.IsInteger() && n.IsNegative() && !n.approx {
			bn, bd := together(v.base)
			k := numNeg(n)
			return PowOf(bd, k), PowOf(bn, k)
		}
	}
	return e, N(1)
}
