package eqsolve

import (
	"fmt"
	"math"
	"math/cmplx"
	"strings"
)

// ============================================================
// Numeric evaluation
// ============================================================

// realTolerance is the relative size of an imaginary part still treated as
// rounding noise on a real value.
const realTolerance = 1e-9

// Evalf evaluates a closed expression to a complex number.
func Evalf(e Expr) (complex128, error) {
	return evalEnv(e, nil)
}

// EvalAt evaluates e with varName bound to x.
func EvalAt(e Expr, varName string, x complex128) (complex128, error) {
	return evalEnv(e, map[string]complex128{varName: x})
}

// Compile returns a real-valued function of varName. Each call reports an
// ErrEval when the expression is undefined or non-real at that point.
func Compile(e Expr, varName string) (func(float64) (float64, error), error) {
	for _, name := range FreeSymbols(e) {
		if name != varName {
			return nil, fmt.Errorf("%w: free symbol %s besides %s", ErrEval, name, varName)
		}
	}
	return func(x float64) (float64, error) {
		z, err := evalEnv(e, map[string]complex128{varName: complex(x, 0)})
		if err != nil {
			return math.NaN(), err
		}
		if !IsReal(z) {
			return math.NaN(), fmt.Errorf("%w: non-real value at %s = %g", ErrEval, varName, x)
		}
		return real(z), nil
	}, nil
}

// IsReal reports whether the imaginary part of z is negligible.
func IsReal(z complex128) bool {
	return math.Abs(imag(z)) <= realTolerance*math.Max(1, math.Abs(real(z)))
}

func evalEnv(e Expr, env map[string]complex128) (complex128, error) {
	z, err := evalNode(e, env)
	if err != nil {
		return 0, err
	}
	if cmplx.IsNaN(z) || cmplx.IsInf(z) {
		return 0, fmt.Errorf("%w: %s is undefined", ErrEval, e.String())
	}
	return z, nil
}

func evalNode(e Expr, env map[string]complex128) (complex128, error) {
	switch v := e.(type) {
	case *Num:
		return complex(v.Float64(), 0), nil
	case *Sym:
		z, ok := env[v.name]
		if !ok {
			return 0, fmt.Errorf("%w: free symbol %s", ErrEval, v.name)
		}
		return z, nil
	case *Const:
		switch v {
		case Pi:
			return complex(math.Pi, 0), nil
		case E:
			return complex(math.E, 0), nil
		case I:
			return 1i, nil
		}
	case *Add:
		var acc complex128
		for _, t := range v.terms {
			z, err := evalNode(t, env)
			if err != nil {
				return 0, err
			}
			acc += z
		}
		return acc, nil
	case *Mul:
		acc := complex(1, 0)
		for _, f := range v.factors {
			z, err := evalNode(f, env)
			if err != nil {
				return 0, err
			}
			acc *= z
		}
		return acc, nil
	case *Pow:
		b, err := evalNode(v.base, env)
		if err != nil {
			return 0, err
		}
		x, err := evalNode(v.exp, env)
		if err != nil {
			return 0, err
		}
		return evalPow(b, x)
	case *Func:
		z, err := evalNode(v.arg, env)
		if err != nil {
			return 0, err
		}
		return evalFunc(v.name, z)
	}
	return 0, fmt.Errorf("%w: cannot evaluate %s", ErrEval, e.String())
}

func evalPow(b, x complex128) (complex128, error) {
	if b == 0 {
		switch {
		case real(x) > 0:
			return 0, nil
		case x == 0:
			return 1, nil
		}
		return 0, fmt.Errorf("%w: division by zero", ErrEval)
	}
	if imag(x) == 0 && real(x) == math.Trunc(real(x)) && math.Abs(real(x)) <= 1024 {
		return powInt(b, int(real(x))), nil
	}
	if imag(b) == 0 && real(b) > 0 && imag(x) == 0 {
		return complex(math.Pow(real(b), real(x)), 0), nil
	}
	return cmplx.Pow(b, x), nil
}

// powInt uses repeated squaring so real bases stay exactly real.
func powInt(b complex128, n int) complex128 {
	if n < 0 {
		return 1 / powInt(b, -n)
	}
	acc := complex(1, 0)
	for n > 0 {
		if n&1 == 1 {
			acc *= b
		}
		b *= b
		n >>= 1
	}
	return acc
}

func evalFunc(name string, z complex128) (complex128, error) {
	if imag(z) == 0 {
		x := real(z)
		switch name {
		case "log":
			if x > 0 {
				return complex(math.Log(x), 0), nil
			}
			if x == 0 {
				return 0, fmt.Errorf("%w: log(0)", ErrEval)
			}
		case "asin", "acos":
			if x >= -1 && x <= 1 {
				return complex(realFuncs[name](x), 0), nil
			}
		default:
			if fn, ok := realFuncs[name]; ok {
				return complex(fn(x), 0), nil
			}
		}
	}
	switch name {
	case "sin":
		return cmplx.Sin(z), nil
	case "cos":
		return cmplx.Cos(z), nil
	case "tan":
		return cmplx.Tan(z), nil
	case "asin":
		return cmplx.Asin(z), nil
	case "acos":
		return cmplx.Acos(z), nil
	case "atan":
		return cmplx.Atan(z), nil
	case "sinh":
		return cmplx.Sinh(z), nil
	case "cosh":
		return cmplx.Cosh(z), nil
	case "tanh":
		return cmplx.Tanh(z), nil
	case "exp":
		return cmplx.Exp(z), nil
	case "log":
		return cmplx.Log(z), nil
	case "abs":
		return complex(cmplx.Abs(z), 0), nil
	case "floor", "ceil", "sign":
		if IsReal(z) {
			return complex(realFuncs[name](real(z)), 0), nil
		}
		return 0, fmt.Errorf("%w: %s of non-real value", ErrEval, name)
	}
	if strings.HasPrefix(name, "D[") {
		return 0, fmt.Errorf("%w: unknown derivative %s", ErrEval, name)
	}
	return 0, fmt.Errorf("%w: unknown function %s", ErrEval, name)
}
