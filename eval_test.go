package eqsolve_test

import (
	"errors"
	"math"
	"testing"

	"github.com/njchilds90/eqsolve"
)

func TestEvalf(t *testing.T) {
	tests := []struct {
		expr eqsolve.Expr
		want complex128
	}{
		{eqsolve.Pi, complex(math.Pi, 0)},
		{eqsolve.E, complex(math.E, 0)},
		{eqsolve.I, 1i},
		{eqsolve.F(1, 4), 0.25},
		{eqsolve.SqrtOf(eqsolve.N(2)), complex(math.Sqrt2, 0)},
		{eqsolve.MulOf(eqsolve.N(3), eqsolve.I), 3i},
	}
	for _, tt := range tests {
		got, err := eqsolve.Evalf(tt.expr)
		if err != nil {
			t.Fatalf("Evalf(%s): %v", tt.expr.String(), err)
		}
		if math.Abs(real(got)-real(tt.want)) > 1e-12 || math.Abs(imag(got)-imag(tt.want)) > 1e-12 {
			t.Errorf("Evalf(%s) = %v, want %v", tt.expr.String(), got, tt.want)
		}
	}
}

func TestEvalf_FreeSymbol(t *testing.T) {
	_, err := eqsolve.Evalf(eqsolve.S("x"))
	if !errors.Is(err, eqsolve.ErrEval) {
		t.Errorf("want ErrEval, got %v", err)
	}
}

func TestEvalAt(t *testing.T) {
	x := eqsolve.S("x")
	got, err := eqsolve.EvalAt(eqsolve.AddOf(eqsolve.PowOf(x, eqsolve.N(2)), eqsolve.N(1)), "x", 1i)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("i^2 + 1 should be 0, got %v", got)
	}
}

func TestCompile(t *testing.T) {
	x := eqsolve.S("x")

	f, err := eqsolve.Compile(eqsolve.AddOf(eqsolve.PowOf(x, eqsolve.N(2)), eqsolve.N(-4)), "x")
	if err != nil {
		t.Fatal(err)
	}
	if v, err := f(3); err != nil || v != 5 {
		t.Errorf("f(3) = %v, %v; want 5", v, err)
	}

	sqrt, err := eqsolve.Compile(eqsolve.SqrtOf(x), "x")
	if err != nil {
		t.Fatal(err)
	}
	if v, err := sqrt(-1); !errors.Is(err, eqsolve.ErrEval) || !math.IsNaN(v) {
		t.Errorf("sqrt(-1) should be a non-real ErrEval with NaN, got %v, %v", v, err)
	}

	inv, err := eqsolve.Compile(eqsolve.PowOf(x, eqsolve.N(-1)), "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := inv(0); !errors.Is(err, eqsolve.ErrEval) {
		t.Errorf("1/0 should fail with ErrEval, got %v", err)
	}

	log, err := eqsolve.Compile(eqsolve.LogOf(x), "x")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := log(-2); !errors.Is(err, eqsolve.ErrEval) {
		t.Errorf("log(-2) is not real, want ErrEval, got %v", err)
	}
}

func TestCompile_ExtraSymbol(t *testing.T) {
	_, err := eqsolve.Compile(eqsolve.AddOf(eqsolve.S("x"), eqsolve.S("y")), "x")
	if !errors.Is(err, eqsolve.ErrEval) {
		t.Errorf("want ErrEval, got %v", err)
	}
}

func TestIsReal(t *testing.T) {
	if !eqsolve.IsReal(complex(2, 1e-12)) {
		t.Error("rounding noise should count as real")
	}
	if eqsolve.IsReal(complex(2, 1e-3)) {
		t.Error("2 + 0.001i is not real")
	}
}
