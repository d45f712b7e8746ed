package eqsolve_test

import (
	"errors"
	"testing"

	"github.com/njchilds90/eqsolve"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1 + 1", "2"},
		{"2x", "2*x"},
		{"2(x + 1)", "2*x + 2"},
		{"x y", "x*y"},
		{"-x^2", "-x^2"},
		{"x**2", "x^2"},
		{"2^3^2", "512"},
		{"0.5", "1/2"},
		{".25x", "1/4*x"},
		{"1.5e3", "1500"},
		{"sin x", "sin(x)"},
		{"arcsin(x)", "asin(x)"},
		{"ln(E)", "1"},
		{"sqrt(9)", "3"},
		{"x - (3 - x)", "2*x - 3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			e, err := eqsolve.Parse(tt.in)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.in, err)
			}
			if got := e.String(); got != tt.want {
				t.Errorf("Parse(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	for _, in := range []string{
		"",
		"x^^2",
		"(x + 1",
		"x + 1)",
		"x $ 2",
		"sin",
		"3 +",
		"f(,)",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := eqsolve.Parse(in)
			if !errors.Is(err, eqsolve.ErrParse) {
				t.Errorf("Parse(%q): want ErrParse, got %v", in, err)
			}
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := eqsolve.Parse("x + #")
	if err == nil {
		t.Fatal("want error")
	}
	if want := `parse error: unexpected character '#' at position 5`; err.Error() != want {
		t.Errorf("want %q, got %q", want, err.Error())
	}
}
