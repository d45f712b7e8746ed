package eqsolve_test

import (
	"reflect"
	"testing"

	"github.com/njchilds90/eqsolve"
)

// ============================================================
// Expansion and polynomial tests
// ============================================================

func TestExpand(t *testing.T) {
	x := eqsolve.S("x")
	e := eqsolve.PowOf(eqsolve.AddOf(x, eqsolve.N(1)), eqsolve.N(2))
	if got := eqsolve.Expand(e).String(); got != "x^2 + 2*x + 1" {
		t.Errorf("want x^2 + 2*x + 1, got %s", got)
	}
}

func TestExpand_Product(t *testing.T) {
	x := eqsolve.S("x")
	e := eqsolve.MulOf(eqsolve.AddOf(x, eqsolve.N(-1)), eqsolve.AddOf(x, eqsolve.N(1)))
	if got := eqsolve.Expand(e).String(); got != "x^2 - 1" {
		t.Errorf("want x^2 - 1, got %s", got)
	}
}

func TestDegree(t *testing.T) {
	x := eqsolve.S("x")
	tests := []struct {
		name string
		expr eqsolve.Expr
		want int
	}{
		{"constant", eqsolve.N(7), 0},
		{"linear", eqsolve.AddOf(eqsolve.MulOf(eqsolve.N(2), x), eqsolve.N(3)), 1},
		{"cubic", eqsolve.AddOf(eqsolve.PowOf(x, eqsolve.N(3)), x), 3},
		{"other symbol", eqsolve.MulOf(x, eqsolve.S("y")), 1},
		{"transcendental", eqsolve.SinOf(x), -1},
		{"negative power", eqsolve.PowOf(x, eqsolve.N(-1)), -1},
	}
	for _, tt := range tests {
		if got := eqsolve.Degree(tt.expr, "x"); got != tt.want {
			t.Errorf("%s: Degree = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestPolyCoeffs(t *testing.T) {
	x := eqsolve.S("x")
	e := eqsolve.AddOf(eqsolve.MulOf(eqsolve.N(3), eqsolve.PowOf(x, eqsolve.N(2))), eqsolve.N(-2))
	coeffs, ok := eqsolve.PolyCoeffs(e, "x")
	if !ok {
		t.Fatal("3*x^2 - 2 should be a polynomial in x")
	}
	if !coeffs[2].Equal(eqsolve.N(3)) {
		t.Errorf("x^2 coefficient = %s, want 3", coeffs[2].String())
	}
	if !coeffs[0].Equal(eqsolve.N(-2)) {
		t.Errorf("constant = %s, want -2", coeffs[0].String())
	}
	if c, ok := coeffs[1]; ok && !c.Equal(eqsolve.N(0)) {
		t.Errorf("x coefficient = %s, want 0", c.String())
	}

	if _, ok := eqsolve.PolyCoeffs(eqsolve.ExpOf(x), "x"); ok {
		t.Error("exp(x) is not a polynomial in x")
	}
}

func TestFreeSymbols(t *testing.T) {
	e := eqsolve.AddOf(eqsolve.S("y"), eqsolve.SinOf(eqsolve.S("b")), eqsolve.MulOf(eqsolve.Pi, eqsolve.S("a")))
	want := []string{"a", "b", "y"}
	if got := eqsolve.FreeSymbols(e); !reflect.DeepEqual(got, want) {
		t.Errorf("want %v, got %v", want, got)
	}
	if got := eqsolve.FreeSymbols(eqsolve.MulOf(eqsolve.N(2), eqsolve.Pi)); len(got) != 0 {
		t.Errorf("constants carry no symbols, got %v", got)
	}
}

func TestHasImaginary(t *testing.T) {
	if !eqsolve.HasImaginary(eqsolve.AddOf(eqsolve.N(1), eqsolve.I)) {
		t.Error("1 + i contains the imaginary unit")
	}
	if eqsolve.HasImaginary(eqsolve.SqrtOf(eqsolve.N(2))) {
		t.Error("sqrt(2) is real")
	}
}
