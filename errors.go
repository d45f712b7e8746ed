package eqsolve

import "errors"

var (
	// ErrNotAnEquation is returned for input without an '=' sign.
	ErrNotAnEquation = errors.New("Not an equation") //nolint:staticcheck // client-facing message
	ErrParse         = errors.New("parse error")
	ErrSolve         = errors.New("solve error")
	ErrTimeout       = errors.New("solve timed out")
	// ErrEval reports a numeric evaluation failure: an undefined point, a
	// non-real value where a real one was required, or a free symbol.
	ErrEval = errors.New("evaluation error")
)

// ErrorKind classifies err into a short label for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrNotAnEquation):
		return "not_an_equation"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrEval):
		return "eval"
	case errors.Is(err, ErrSolve):
		return "solve"
	}
	return "internal"
}
