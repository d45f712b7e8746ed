// Package eqsolve solves a single equation symbolically and reports the
// solution set as LaTeX.
//
// The kernel keeps exact rational arithmetic (math/big.Rat) wherever it can.
// Values located numerically are carried as inexact numbers and printed as
// decimals. Output is deterministic: the same input always produces the same
// term order and the same strings.
package eqsolve

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Diff(varName string) Expr
	Equal(other Expr) bool
	exprType() string
}

// ============================================================
// Num: rational number, exact unless produced numerically
// ============================================================

type Num struct {
	val    *big.Rat
	approx bool
}

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("eqsolve: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// NFloat returns an inexact number. f must be finite.
func NFloat(f float64) *Num {
	r := new(big.Rat)
	if r.SetFloat64(f) == nil {
		panic(fmt.Sprintf("eqsolve: non-finite float %v", f))
	}
	return &Num{val: r, approx: true}
}

func ratNum(r *big.Rat, approx bool) *Num { return &Num{val: r, approx: approx} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Diff(string) Expr      { return N(0) }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.Cmp(big.NewRat(1, 1)) == 0 }
func (n *Num) IsNegOne() bool        { return n.val.Cmp(big.NewRat(-1, 1)) == 0 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Exact() bool           { return !n.approx }

func (n *Num) String() string {
	if n.approx {
		return formatFloat(n.Float64())
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.approx {
		s := formatFloat(n.Float64())
		if mant, exp, ok := strings.Cut(s, "e"); ok {
			if k, err := strconv.Atoi(exp); err == nil {
				exp = strconv.Itoa(k)
			}
			return mant + " \\cdot 10^{" + exp + "}"
		}
		return s
	}
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', 15, 64)
	if !strings.ContainsAny(s, ".eIN") {
		s += ".0"
	}
	return s
}

func numAdd(a, b *Num) *Num { return ratNum(new(big.Rat).Add(a.val, b.val), a.approx || b.approx) }
func numSub(a, b *Num) *Num { return ratNum(new(big.Rat).Sub(a.val, b.val), a.approx || b.approx) }
func numMul(a, b *Num) *Num { return ratNum(new(big.Rat).Mul(a.val, b.val), a.approx || b.approx) }
func numNeg(a *Num) *Num    { return ratNum(new(big.Rat).Neg(a.val), a.approx) }
func numRecip(a *Num) *Num {
	if a.IsZero() {
		panic("eqsolve: division by zero")
	}
	return ratNum(new(big.Rat).Inv(a.val), a.approx)
}
func numDiv(a, b *Num) *Num { return numMul(a, numRecip(b)) }
func numAbs(a *Num) *Num    { return ratNum(new(big.Rat).Abs(a.val), a.approx) }

// numPow raises an exact rational to an integer power.
func numPow(a *Num, e int64) *Num {
	abs := e
	if abs < 0 {
		abs = -abs
	}
	k := big.NewInt(abs)
	num := new(big.Int).Exp(a.val.Num(), k, nil)
	den := new(big.Int).Exp(a.val.Denom(), k, nil)
	if e < 0 {
		num, den = den, num
		if den.Sign() < 0 {
			num.Neg(num)
			den.Neg(den)
		}
	}
	return ratNum(new(big.Rat).SetFrac(num, den), a.approx)
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

var greekLaTeX = map[string]string{
	"alpha": "\\alpha", "beta": "\\beta", "gamma": "\\gamma", "delta": "\\delta",
	"epsilon": "\\epsilon", "theta": "\\theta", "lambda": "\\lambda", "mu": "\\mu",
	"sigma": "\\sigma", "tau": "\\tau", "phi": "\\phi", "omega": "\\omega",
}

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string {
	if g, ok := greekLaTeX[s.name]; ok {
		return g
	}
	return s.name
}
func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}
func (s *Sym) Diff(varName string) Expr {
	if s.name == varName {
		return N(1)
	}
	return N(0)
}

// ============================================================
// Const: pi, Euler's number and the imaginary unit
// ============================================================

type Const struct{ name string }

var (
	Pi = &Const{name: "pi"}
	E  = &Const{name: "E"}
	I  = &Const{name: "I"}
)

func (c *Const) Simplify() Expr        { return c }
func (c *Const) String() string        { return c.name }
func (c *Const) Sub(string, Expr) Expr { return c }
func (c *Const) Diff(string) Expr      { return N(0) }
func (c *Const) Equal(other Expr) bool { o, ok := other.(*Const); return ok && c.name == o.name }
func (c *Const) exprType() string      { return "const" }
func (c *Const) LaTeX() string {
	switch c {
	case Pi:
		return "\\pi"
	case E:
		return "e"
	case I:
		return "i"
	}
	return c.name
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}
	type like struct {
		coeff *Num
		rest  Expr
	}
	numAccum := N(0)
	groups := map[string]*like{}
	order := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			numAccum = numAdd(numAccum, v)
			continue
		}
		coeff, rest := extractCoefficient(t)
		key := rest.String()
		g, seen := groups[key]
		if !seen {
			g = &like{coeff: N(0), rest: rest}
			groups[key] = g
			order = append(order, key)
		}
		g.coeff = numAdd(g.coeff, coeff)
	}
	result := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		g := groups[key]
		switch {
		case g.coeff.IsZero():
		case g.coeff.IsOne():
			result = append(result, g.rest)
		default:
			result = append(result, MulOf(g.coeff, g.rest))
		}
	}
	sortTerms(result)
	if !numAccum.IsZero() {
		if hasAnySymbol(result) {
			result = append(result, numAccum)
		} else {
			result = append([]Expr{numAccum}, result...)
		}
	}
	if len(result) == 0 {
		return N(0)
	}
	if len(result) == 1 {
		return result[0]
	}
	return &Add{terms: result}
}

// sortTerms orders terms by total polynomial degree, highest first, then by
// their printed form.
func sortTerms(terms []Expr) {
	type keyed struct {
		e   Expr
		deg int
		key string
	}
	ks := make([]keyed, len(terms))
	for i, t := range terms {
		ks[i] = keyed{e: t, deg: totalDegree(t), key: t.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].deg != ks[j].deg {
			return ks[i].deg > ks[j].deg
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		terms[i] = ks[i].e
	}
}

func totalDegree(e Expr) int {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if _, ok := v.base.(*Sym); ok {
			if n, ok := v.exp.(*Num); ok && n.IsInteger() && n.val.Num().IsInt64() {
				return int(n.val.Num().Int64())
			}
		}
	case *Mul:
		d := 0
		for _, f := range v.factors {
			d += totalDegree(f)
		}
		return d
	}
	return 0
}

func hasAnySymbol(es []Expr) bool {
	for _, e := range es {
		if len(FreeSymbols(e)) > 0 {
			return true
		}
	}
	return false
}

// displayTerms returns the terms in print order. A symbolic sum that starts
// with a negative term is printed starting from its first positive term.
func (a *Add) displayTerms() []Expr {
	if len(a.terms) < 2 || !isNegativeTerm(a.terms[0]) || !hasAnySymbol(a.terms) {
		return a.terms
	}
	for i, t := range a.terms {
		if !isNegativeTerm(t) {
			out := make([]Expr, 0, len(a.terms))
			out = append(out, t)
			out = append(out, a.terms[:i]...)
			return append(out, a.terms[i+1:]...)
		}
	}
	return a.terms
}

func isNegativeTerm(e Expr) bool {
	switch v := e.(type) {
	case *Num:
		return v.IsNegative()
	case *Mul:
		if c, ok := v.factors[0].(*Num); ok {
			return c.IsNegative()
		}
	}
	return false
}

func negateTerm(e Expr) Expr { return MulOf(N(-1), e) }

func (a *Add) String() string {
	terms := a.displayTerms()
	var sb strings.Builder
	for i, t := range terms {
		switch {
		case i == 0:
			sb.WriteString(t.String())
		case isNegativeTerm(t):
			sb.WriteString(" - " + negateTerm(t).String())
		default:
			sb.WriteString(" + " + t.String())
		}
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	terms := a.displayTerms()
	var sb strings.Builder
	for i, t := range terms {
		switch {
		case i == 0:
			sb.WriteString(t.LaTeX())
		case isNegativeTerm(t):
			sb.WriteString(" - " + negateTerm(t).LaTeX())
		default:
			sb.WriteString(" + " + t.LaTeX())
		}
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Diff(varName string) Expr {
	dTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		dTerms[i] = t.Diff(varName)
	}
	return AddOf(dTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) Terms() []Expr    { return a.terms }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	// Factors sharing a base are merged by summing exponents.
	type power struct {
		first Expr
		base  Expr
		exps  []Expr
	}
	coeff := N(1)
	groups := map[string]*power{}
	order := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := asPower(f)
		key := base.String()
		g, seen := groups[key]
		if !seen {
			g = &power{first: f, base: base}
			groups[key] = g
			order = append(order, key)
		}
		g.exps = append(g.exps, exp)
	}
	if coeff.IsZero() {
		return N(0)
	}

	others := []Expr{}
	regroup := false
	for _, key := range order {
		g := groups[key]
		p := g.first
		if len(g.exps) > 1 {
			p = PowOf(g.base, AddOf(g.exps...))
		}
		switch v := p.(type) {
		case *Num:
			coeff = numMul(coeff, v)
		case *Mul:
			regroup = true
			others = append(others, v.factors...)
		default:
			others = append(others, p)
		}
	}
	if regroup {
		return MulOf(append([]Expr{coeff}, others...)...)
	}
	if coeff.IsZero() {
		return N(0)
	}
	if len(others) == 0 {
		return coeff
	}
	sortFactors(others)

	// A numeric coefficient distributes over a lone sum.
	if len(others) == 1 && !coeff.IsOne() {
		if sum, ok := others[0].(*Add); ok {
			terms := make([]Expr, len(sum.terms))
			for i, t := range sum.terms {
				terms[i] = MulOf(coeff, t)
			}
			return AddOf(terms...)
		}
	}
	if coeff.IsOne() && !coeff.approx {
		if len(others) == 1 {
			return others[0]
		}
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func asPower(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.base, p.exp
	}
	return e, N(1)
}

// sortFactors puts numeric radicals first and the imaginary unit last.
func sortFactors(fs []Expr) {
	rank := func(e Expr) int {
		if e == Expr(I) {
			return 3
		}
		if p, ok := e.(*Pow); ok {
			if _, ok := p.base.(*Num); ok {
				return 0
			}
		}
		if _, ok := e.(*Const); ok {
			return 1
		}
		return 2
	}
	type keyed struct {
		e    Expr
		rank int
		key  string
	}
	ks := make([]keyed, len(fs))
	for i, e := range fs {
		ks[i] = keyed{e: e, rank: rank(e), key: e.String()}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].rank != ks[j].rank {
			return ks[i].rank < ks[j].rank
		}
		return ks[i].key < ks[j].key
	})
	for i := range ks {
		fs[i] = ks[i].e
	}
}

// split returns the numeric coefficient and the remaining factors.
func (m *Mul) split() (*Num, []Expr) {
	if c, ok := m.factors[0].(*Num); ok {
		return c, m.factors[1:]
	}
	return N(1), m.factors
}

func (m *Mul) String() string {
	coeff, rest := m.split()
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	switch {
	case coeff.IsNegOne() && len(rest) > 0:
		prefix = "-"
	case !coeff.IsOne():
		parts = append(parts, coeff.String())
	}
	for _, f := range rest {
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "("+f.String()+")")
		} else {
			parts = append(parts, f.String())
		}
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	coeff, rest := m.split()
	sign := ""
	if coeff.IsNegative() {
		sign = "- "
		coeff = numNeg(coeff)
	}
	var numer, denom []string
	if coeff.approx {
		if !coeff.IsOne() {
			numer = append(numer, coeff.LaTeX())
		}
	} else {
		if n := coeff.val.Num(); n.Cmp(big.NewInt(1)) != 0 {
			numer = append(numer, n.String())
		}
		if d := coeff.val.Denom(); d.Cmp(big.NewInt(1)) != 0 {
			denom = append(denom, d.String())
		}
	}
	for _, f := range rest {
		if p, ok := f.(*Pow); ok {
			if en, ok := p.exp.(*Num); ok && en.IsNegative() {
				denom = append(denom, latexFactor(PowOf(p.base, numNeg(en))))
				continue
			}
		}
		numer = append(numer, latexFactor(f))
	}
	numStr := strings.Join(numer, " ")
	if numStr == "" {
		numStr = "1"
	}
	if len(denom) == 0 {
		return sign + numStr
	}
	return sign + "\\frac{" + numStr + "}{" + strings.Join(denom, " ") + "}"
}

func latexFactor(e Expr) string {
	if _, isAdd := e.(*Add); isAdd {
		return "\\left(" + e.LaTeX() + "\\right)"
	}
	return e.LaTeX()
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Diff(varName string) Expr {
	terms := make([]Expr, len(m.factors))
	for i, fi := range m.factors {
		dfi := fi.Diff(varName)
		others := make([]Expr, 0, len(m.factors)-1)
		for j, fj := range m.factors {
			if j != i {
				others = append(others, fj)
			}
		}
		if len(others) == 0 {
			terms[i] = dfi
		} else {
			terms[i] = MulOf(append([]Expr{dfi}, others...)...)
		}
	}
	return AddOf(terms...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) Factors() []Expr  { return m.factors }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	if en, ok := exp.(*Num); ok && en.IsZero() {
		return N(1)
	}
	if en, ok := exp.(*Num); ok && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok && bn.IsZero() {
		if en, ok2 := exp.(*Num); ok2 && en.IsNegative() {
			// 0^negative is left unevaluated; numeric evaluation rejects it.
			return &Pow{base: base, exp: exp}
		}
		if _, ok2 := exp.(*Num); ok2 {
			return N(0)
		}
		return &Pow{base: base, exp: exp}
	}
	if bn, ok := base.(*Num); ok && bn.IsOne() && !bn.approx {
		return N(1)
	}

	if bn, ok := base.(*Num); ok {
		if en, ok2 := exp.(*Num); ok2 {
			if bn.approx || en.approx {
				bf, ef := bn.Float64(), en.Float64()
				if bf >= 0 || ef == math.Trunc(ef) {
					if r := math.Pow(bf, ef); !math.IsNaN(r) && !math.IsInf(r, 0) {
						return NFloat(r)
					}
				}
				return &Pow{base: base, exp: exp}
			}
			if en.IsInteger() {
				if e := en.val.Num(); e.IsInt64() && e.Int64() >= -64 && e.Int64() <= 64 {
					return numPow(bn, e.Int64())
				}
				return &Pow{base: base, exp: exp}
			}
			return rationalRoot(bn, en)
		}
	}

	if base == Expr(I) {
		if en, ok := exp.(*Num); ok && en.IsInteger() && !en.approx {
			k := new(big.Int).Mod(en.val.Num(), big.NewInt(4)).Int64()
			switch k {
			case 0:
				return N(1)
			case 1:
				return I
			case 2:
				return N(-1)
			default:
				return &Mul{factors: []Expr{N(-1), I}}
			}
		}
	}
	if base == Expr(E) {
		if f, ok := exp.(*Func); ok && f.name == "log" {
			return f.arg
		}
	}
	if inner, ok := base.(*Pow); ok {
		if bn, ok := inner.base.(*Num); ok && bn.IsPositive() && !bn.approx {
			return PowOf(inner.base, MulOf(inner.exp, exp))
		}
	}
	if isHalf(exp) {
		if m, ok := base.(*Mul); ok {
			if c, ok := m.factors[0].(*Num); ok && c.IsNegative() && positiveConstants(m.factors[1:]) {
				return MulOf(I, PowOf(MulOf(numNeg(c), &Mul{factors: m.factors[1:]}), exp))
			}
		}
	}
	if en, ok := exp.(*Num); ok && en.IsInteger() {
		if inner, ok := base.(*Pow); ok {
			return PowOf(inner.base, MulOf(inner.exp, exp))
		}
		if m, ok := base.(*Mul); ok {
			fs := make([]Expr, len(m.factors))
			for i, f := range m.factors {
				fs[i] = PowOf(f, exp)
			}
			return MulOf(fs...)
		}
	}
	return &Pow{base: base, exp: exp}
}

// positiveConstants reports whether every factor is a positive real constant.
func positiveConstants(fs []Expr) bool {
	for _, f := range fs {
		switch v := f.(type) {
		case *Const:
			if v == I {
				return false
			}
		case *Pow:
			bn, ok := v.base.(*Num)
			if !ok || !bn.IsPositive() || len(FreeSymbols(v.exp)) > 0 || HasImaginary(v.exp) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// rationalRoot reduces an exact rational raised to a non-integer rational
// power: perfect powers are pulled out, denominators are rationalised and a
// negative base under a square root becomes a multiple of I.
func rationalRoot(bn, en *Num) Expr {
	q := en.val.Denom()
	if !q.IsInt64() || q.Int64() > 64 {
		return &Pow{base: bn, exp: en}
	}
	k, r := new(big.Int).DivMod(en.val.Num(), q, new(big.Int))
	if !k.IsInt64() || k.Int64() < -64 || k.Int64() > 64 {
		return &Pow{base: bn, exp: en}
	}
	coeff := numPow(bn, k.Int64())
	if bn.IsNegative() {
		if q.Int64() != 2 {
			return &Pow{base: bn, exp: en}
		}
		root := rationalRoot(numNeg(bn), F(1, 2))
		return MulOf(coeff, I, root)
	}

	qi := q.Int64()
	ri := r.Int64()
	numOut, numIn := extractRoot(bn.val.Num(), qi)
	denOut, denIn := extractRoot(bn.val.Denom(), qi)

	c := new(big.Rat).SetFrac(
		new(big.Int).Exp(numOut, r, nil),
		new(big.Int).Mul(new(big.Int).Exp(denOut, r, nil), denIn),
	)
	coeff = numMul(coeff, ratNum(c, false))

	var factors []Expr
	if numIn.Cmp(big.NewInt(1)) != 0 {
		factors = append(factors, &Pow{base: ratNum(new(big.Rat).SetInt(numIn), false), exp: F(ri, qi)})
	}
	if denIn.Cmp(big.NewInt(1)) != 0 {
		factors = append(factors, &Pow{base: ratNum(new(big.Rat).SetInt(denIn), false), exp: F(qi-ri, qi)})
	}
	if len(factors) == 0 {
		return coeff
	}
	sortFactors(factors)
	if coeff.IsOne() {
		if len(factors) == 1 {
			return factors[0]
		}
		return &Mul{factors: factors}
	}
	return &Mul{factors: append([]Expr{coeff}, factors...)}
}

// extractRoot splits n into out^q * in, pulling out every q-th power factor
// found by trial division.
func extractRoot(n *big.Int, q int64) (*big.Int, *big.Int) {
	out := big.NewInt(1)
	in := new(big.Int).Set(n)
	d := big.NewInt(2)
	one := big.NewInt(1)
	bq := big.NewInt(q)
	dq := new(big.Int)
	quo, rem := new(big.Int), new(big.Int)
	for i := 0; i < 100000; i++ {
		dq.Exp(d, bq, nil)
		if dq.Cmp(in) > 0 {
			break
		}
		for {
			quo.QuoRem(in, dq, rem)
			if rem.Sign() != 0 {
				break
			}
			in.Set(quo)
			out.Mul(out, d)
		}
		d.Add(d, one)
	}
	return out, in
}

func (p *Pow) String() string {
	if isHalf(p.exp) {
		return "sqrt(" + p.base.String() + ")"
	}
	baseStr := p.base.String()
	if needsParens(p.base) {
		baseStr = "(" + baseStr + ")"
	}
	expStr := p.exp.String()
	switch v := p.exp.(type) {
	case *Sym, *Const:
	case *Num:
		if !v.IsInteger() || v.IsNegative() || v.approx {
			expStr = "(" + expStr + ")"
		}
	default:
		expStr = "(" + expStr + ")"
	}
	return baseStr + "^" + expStr
}

func (p *Pow) LaTeX() string {
	if en, ok := p.exp.(*Num); ok && !en.approx {
		if en.IsNegative() {
			return "\\frac{1}{" + PowOf(p.base, numNeg(en)).LaTeX() + "}"
		}
		if isHalf(en) {
			return "\\sqrt{" + p.base.LaTeX() + "}"
		}
		if en.val.Num().Cmp(big.NewInt(1)) == 0 {
			return "\\sqrt[" + en.val.Denom().String() + "]{" + p.base.LaTeX() + "}"
		}
	}
	if p.base == Expr(E) {
		return "e^{" + p.exp.LaTeX() + "}"
	}
	baseStr := p.base.LaTeX()
	if needsParens(p.base) {
		baseStr = "\\left(" + baseStr + "\\right)"
	}
	return baseStr + "^{" + p.exp.LaTeX() + "}"
}

func needsParens(e Expr) bool {
	switch v := e.(type) {
	case *Add, *Mul, *Pow:
		return true
	case *Num:
		return v.IsNegative() || !v.IsInteger() || v.approx
	}
	return false
}

func isHalf(e Expr) bool {
	n, ok := e.(*Num)
	return ok && !n.approx && n.val.Cmp(big.NewRat(1, 2)) == 0
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Diff(varName string) Expr {
	du := p.base.Diff(varName)
	dv := p.exp.Diff(varName)
	_, expIsNum := p.exp.(*Num)
	if expIsNum {
		newExp := AddOf(p.exp, N(-1))
		return MulOf(p.exp, PowOf(p.base, newExp), du)
	}
	if !hasSymbol(p.base, varName) {
		return MulOf(PowOf(p.base, p.exp), LogOf(p.base), dv)
	}
	logTerm := MulOf(dv, LogOf(p.base))
	divTerm := MulOf(p.exp, du, PowOf(p.base, N(-1)))
	return MulOf(PowOf(p.base, p.exp), AddOf(logTerm, divTerm))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) Base() Expr       { return p.base }
func (p *Pow) ExpExpr() Expr    { return p.exp }

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	arg  Expr
}

func funcOf(name string, arg Expr) *Func { return &Func{name: name, arg: arg} }

func SinOf(arg Expr) Expr   { return funcOf("sin", arg).Simplify() }
func CosOf(arg Expr) Expr   { return funcOf("cos", arg).Simplify() }
func TanOf(arg Expr) Expr   { return funcOf("tan", arg).Simplify() }
func ExpOf(arg Expr) Expr   { return funcOf("exp", arg).Simplify() }
func LogOf(arg Expr) Expr   { return funcOf("log", arg).Simplify() }
func SqrtOf(arg Expr) Expr  { return PowOf(arg, F(1, 2)) }
func AbsOf(arg Expr) Expr   { return funcOf("abs", arg).Simplify() }
func AsinOf(arg Expr) Expr  { return funcOf("asin", arg).Simplify() }
func AcosOf(arg Expr) Expr  { return funcOf("acos", arg).Simplify() }
func AtanOf(arg Expr) Expr  { return funcOf("atan", arg).Simplify() }
func SinhOf(arg Expr) Expr  { return funcOf("sinh", arg).Simplify() }
func CoshOf(arg Expr) Expr  { return funcOf("cosh", arg).Simplify() }
func TanhOf(arg Expr) Expr  { return funcOf("tanh", arg).Simplify() }
func FloorOf(arg Expr) Expr { return funcOf("floor", arg).Simplify() }
func CeilOf(arg Expr) Expr  { return funcOf("ceil", arg).Simplify() }
func SignOf(arg Expr) Expr  { return funcOf("sign", arg).Simplify() }

// FuncOf applies a function by name. ok is false for unknown names.
func FuncOf(name string, arg Expr) (Expr, bool) {
	if _, known := realFuncs[name]; !known {
		return nil, false
	}
	return funcOf(name, arg).Simplify(), true
}

var realFuncs = map[string]func(float64) float64{
	"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
	"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
	"sinh": math.Sinh, "cosh": math.Cosh, "tanh": math.Tanh,
	"exp": math.Exp, "log": math.Log, "abs": math.Abs,
	"floor": math.Floor, "ceil": math.Ceil,
	"sign": func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	},
}

// exactValues maps function(argument) to closed forms at special points.
var exactValues = map[string]Expr{}

func init() {
	half, negHalf := F(1, 2), F(-1, 2)
	set := func(name string, arg Expr, val Expr) {
		exactValues[name+"("+arg.String()+")"] = val
	}
	set("sin", N(0), N(0))
	set("sin", Pi, N(0))
	set("cos", N(0), N(1))
	set("cos", Pi, N(-1))
	set("tan", N(0), N(0))
	set("exp", N(0), N(1))
	set("exp", N(1), E)
	set("log", N(1), N(0))
	set("log", E, N(1))
	set("asin", N(0), N(0))
	set("asin", N(1), &Mul{factors: []Expr{F(1, 2), Pi}})
	set("asin", N(-1), &Mul{factors: []Expr{F(-1, 2), Pi}})
	set("asin", half, &Mul{factors: []Expr{F(1, 6), Pi}})
	set("asin", negHalf, &Mul{factors: []Expr{F(-1, 6), Pi}})
	set("acos", N(1), N(0))
	set("acos", N(0), &Mul{factors: []Expr{F(1, 2), Pi}})
	set("acos", N(-1), Pi)
	set("acos", half, &Mul{factors: []Expr{F(1, 3), Pi}})
	set("acos", negHalf, &Mul{factors: []Expr{F(2, 3), Pi}})
	set("atan", N(0), N(0))
	set("atan", N(1), &Mul{factors: []Expr{F(1, 4), Pi}})
	set("atan", N(-1), &Mul{factors: []Expr{F(-1, 4), Pi}})
	set("sinh", N(0), N(0))
	set("cosh", N(0), N(1))
	set("tanh", N(0), N(0))
}

func (f *Func) Simplify() Expr {
	arg := f.arg.Simplify()
	if n, ok := arg.(*Num); ok {
		if n.approx {
			if fn, known := realFuncs[f.name]; known {
				if v := fn(n.Float64()); !math.IsNaN(v) && !math.IsInf(v, 0) {
					return NFloat(v)
				}
			}
		} else {
			switch f.name {
			case "abs":
				return numAbs(n)
			case "sign":
				return N(int64(n.val.Sign()))
			case "floor":
				return ratNum(new(big.Rat).SetInt(ratFloor(n.val)), false)
			case "ceil":
				c := ratFloor(n.val)
				if !n.val.IsInt() {
					c.Add(c, big.NewInt(1))
				}
				return ratNum(new(big.Rat).SetInt(c), false)
			}
		}
	}
	if v, ok := exactValues[f.name+"("+arg.String()+")"]; ok {
		return v
	}
	switch f.name {
	case "log":
		if inner, ok := arg.(*Func); ok && inner.name == "exp" {
			return inner.arg
		}
	case "exp":
		if inner, ok := arg.(*Func); ok && inner.name == "log" {
			return inner.arg
		}
	case "abs":
		if m, ok := arg.(*Mul); ok {
			if coeff, ok2 := m.factors[0].(*Num); ok2 && coeff.IsNegative() {
				return AbsOf(MulOf(numNeg(coeff), &Mul{factors: m.factors[1:]}))
			}
		}
	}
	return &Func{name: f.name, arg: arg}
}

func ratFloor(r *big.Rat) *big.Int { return new(big.Int).Div(r.Num(), r.Denom()) }

func (f *Func) String() string { return f.name + "(" + f.arg.String() + ")" }

func (f *Func) LaTeX() string {
	switch f.name {
	case "sin", "cos", "tan", "log", "sinh", "cosh", "tanh":
		return "\\" + f.name + "\\left(" + f.arg.LaTeX() + "\\right)"
	case "exp":
		return "e^{" + f.arg.LaTeX() + "}"
	case "asin":
		return "\\arcsin\\left(" + f.arg.LaTeX() + "\\right)"
	case "acos":
		return "\\arccos\\left(" + f.arg.LaTeX() + "\\right)"
	case "atan":
		return "\\arctan\\left(" + f.arg.LaTeX() + "\\right)"
	case "abs":
		return "\\left|" + f.arg.LaTeX() + "\\right|"
	case "floor":
		return "\\lfloor " + f.arg.LaTeX() + " \\rfloor"
	case "ceil":
		return "\\lceil " + f.arg.LaTeX() + " \\rceil"
	case "sign":
		return "\\operatorname{sign}\\left(" + f.arg.LaTeX() + "\\right)"
	}
	return "\\operatorname{" + f.name + "}\\left(" + f.arg.LaTeX() + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	return funcOf(f.name, f.arg.Sub(varName, value)).Simplify()
}

func (f *Func) Diff(varName string) Expr {
	du := f.arg.Diff(varName)
	var outer Expr
	switch f.name {
	case "sin":
		outer = CosOf(f.arg)
	case "cos":
		outer = MulOf(N(-1), SinOf(f.arg))
	case "tan":
		outer = AddOf(N(1), PowOf(TanOf(f.arg), N(2)))
	case "exp":
		outer = ExpOf(f.arg)
	case "log":
		outer = PowOf(f.arg, N(-1))
	case "asin":
		outer = PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2))
	case "acos":
		outer = MulOf(N(-1), PowOf(AddOf(N(1), MulOf(N(-1), PowOf(f.arg, N(2)))), F(-1, 2)))
	case "atan":
		outer = PowOf(AddOf(N(1), PowOf(f.arg, N(2))), N(-1))
	case "sinh":
		outer = CoshOf(f.arg)
	case "cosh":
		outer = SinhOf(f.arg)
	case "tanh":
		outer = AddOf(N(1), MulOf(N(-1), PowOf(TanhOf(f.arg), N(2))))
	case "abs":
		outer = SignOf(f.arg)
	case "floor", "ceil", "sign":
		return N(0)
	default:
		return MulOf(funcOf("D["+f.name+"]", f.arg), du)
	}
	return MulOf(outer, du)
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	return ok && f.name == o.name && f.arg.Equal(o.arg)
}

func (f *Func) exprType() string { return "func" }
func (f *Func) FuncName() string { return f.name }
func (f *Func) Arg() Expr        { return f.arg }

// ============================================================
// Equation
// ============================================================

type Equation struct{ LHS, RHS Expr }

func Eq(lhs, rhs Expr) *Equation { return &Equation{LHS: lhs, RHS: rhs} }
func (e *Equation) String() string {
	return e.LHS.String() + " = " + e.RHS.String()
}
func (e *Equation) LaTeX() string { return e.LHS.LaTeX() + " = " + e.RHS.LaTeX() }

// Residual returns LHS - RHS.
func (e *Equation) Residual() Expr {
	return AddOf(e.LHS, MulOf(N(-1), e.RHS))
}

// FreeSymbols returns the sorted names of the symbols on either side.
func (e *Equation) FreeSymbols() []string {
	set := map[string]struct{}{}
	collectSymbols(e.LHS, set)
	collectSymbols(e.RHS, set)
	return sortedNames(set)
}
