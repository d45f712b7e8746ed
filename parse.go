package eqsolve

import (
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// ============================================================
// Lexer
// ============================================================

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNum
	tokIdent
	tokOp
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) is(op string) bool { return t.kind == tokOp && t.text == op }

func (t token) describe() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q at position %d", t.text, t.pos)
}

func tokenize(src string) ([]token, error) {
	var toks []token
	rs := []rune(src)
	for i := 0; i < len(rs); {
		r := rs[i]
		pos := i + 1
		switch {
		case unicode.IsSpace(r):
			i++
		case unicode.IsDigit(r) || (r == '.' && i+1 < len(rs) && unicode.IsDigit(rs[i+1])):
			j := i
			for j < len(rs) && unicode.IsDigit(rs[j]) {
				j++
			}
			if j < len(rs) && rs[j] == '.' {
				j++
				for j < len(rs) && unicode.IsDigit(rs[j]) {
					j++
				}
			}
			// Scientific notation only when digits follow the exponent marker.
			if j < len(rs) && (rs[j] == 'e' || rs[j] == 'E') {
				k := j + 1
				if k < len(rs) && (rs[k] == '+' || rs[k] == '-') {
					k++
				}
				if k < len(rs) && unicode.IsDigit(rs[k]) {
					for k < len(rs) && unicode.IsDigit(rs[k]) {
						k++
					}
					j = k
				}
			}
			toks = append(toks, token{kind: tokNum, text: string(rs[i:j]), pos: pos})
			i = j
		case unicode.IsLetter(r) || r == '_':
			j := i
			for j < len(rs) && (unicode.IsLetter(rs[j]) || unicode.IsDigit(rs[j]) || rs[j] == '_') {
				j++
			}
			toks = append(toks, token{kind: tokIdent, text: string(rs[i:j]), pos: pos})
			i = j
		case r == '*' && i+1 < len(rs) && rs[i+1] == '*':
			toks = append(toks, token{kind: tokOp, text: "^", pos: pos})
			i += 2
		case strings.ContainsRune("+-*/^(),", r):
			toks = append(toks, token{kind: tokOp, text: string(r), pos: pos})
			i++
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrParse, r, pos)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(rs) + 1}), nil
}

// ============================================================
// Parser
// ============================================================

const maxNesting = 200

var constants = map[string]Expr{"pi": Pi, "E": E, "I": I}

var functionAliases = map[string]string{
	"ln": "log", "arcsin": "asin", "arccos": "acos", "arctan": "atan",
}

func isFunctionName(name string) bool {
	if _, ok := functionAliases[name]; ok {
		return true
	}
	if name == "sqrt" {
		return true
	}
	_, ok := realFuncs[name]
	return ok
}

type parser struct {
	toks  []token
	i     int
	depth int
}

// Parse reads an algebraic expression. It accepts + - * /, ^ and ** for
// powers, unary signs, parentheses, implicit multiplication (2x, 2(x+1),
// x y), implicit function application (sin x), the constants pi, E and I and
// exact decimal literals.
func Parse(src string) (Expr, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	if toks[0].kind == tokEOF {
		return nil, fmt.Errorf("%w: empty expression", ErrParse)
	}
	p := &parser{toks: toks}
	e, err := p.parseSum()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("%w: unexpected %s", ErrParse, t.describe())
	}
	return e, nil
}

func (p *parser) peek() token { return p.toks[p.i] }

func (p *parser) next() token {
	t := p.toks[p.i]
	if t.kind != tokEOF {
		p.i++
	}
	return t
}

func (p *parser) expect(op string) error {
	if t := p.next(); !t.is(op) {
		return fmt.Errorf("%w: expected %q, found %s", ErrParse, op, t.describe())
	}
	return nil
}

func startsOperand(t token) bool {
	return t.kind == tokNum || t.kind == tokIdent || t.is("(")
}

func (p *parser) parseSum() (Expr, error) {
	left, err := p.parseProduct()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if !t.is("+") && !t.is("-") {
			return left, nil
		}
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return nil, err
		}
		if t.is("-") {
			right = MulOf(N(-1), right)
		}
		left = AddOf(left, right)
	}
}

func (p *parser) parseProduct() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		switch {
		case t.is("*"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		case t.is("/"):
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, PowOf(right, N(-1)))
		case startsOperand(t):
			right, err := p.parsePower()
			if err != nil {
				return nil, err
			}
			left = MulOf(left, right)
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch t := p.peek(); {
	case t.is("-"):
		p.next()
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return MulOf(N(-1), e), nil
	case t.is("+"):
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (Expr, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if !p.peek().is("^") {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return PowOf(base, exp), nil
}

func (p *parser) parsePrimary() (Expr, error) {
	t := p.next()
	switch {
	case t.kind == tokNum:
		return parseNumber(t)
	case t.is("("):
		p.depth++
		if p.depth > maxNesting {
			return nil, fmt.Errorf("%w: nesting deeper than %d at position %d", ErrParse, maxNesting, t.pos)
		}
		e, err := p.parseSum()
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		p.depth--
		return e, nil
	case t.kind == tokIdent:
		if c, ok := constants[t.text]; ok {
			return c, nil
		}
		if isFunctionName(t.text) {
			return p.parseCall(t)
		}
		return S(t.text), nil
	}
	return nil, fmt.Errorf("%w: unexpected %s", ErrParse, t.describe())
}

func (p *parser) parseCall(name token) (Expr, error) {
	var arg, base Expr
	var err error
	switch {
	case p.peek().is("("):
		p.next()
		if arg, err = p.parseSum(); err != nil {
			return nil, err
		}
		if p.peek().is(",") && (name.text == "log" || name.text == "ln") {
			p.next()
			if base, err = p.parseSum(); err != nil {
				return nil, err
			}
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
	case startsOperand(p.peek()):
		if arg, err = p.parsePower(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: function %s at position %d needs an argument", ErrParse, name.text, name.pos)
	}

	fname := name.text
	if alias, ok := functionAliases[fname]; ok {
		fname = alias
	}
	if fname == "sqrt" {
		return SqrtOf(arg), nil
	}
	e, _ := FuncOf(fname, arg)
	if base != nil {
		return MulOf(e, PowOf(LogOf(base), N(-1))), nil
	}
	return e, nil
}

func parseNumber(t token) (Expr, error) {
	text := t.text
	if strings.HasPrefix(text, ".") {
		text = "0" + text
	}
	r, ok := new(big.Rat).SetString(text)
	if !ok {
		return nil, fmt.Errorf("%w: invalid number %s", ErrParse, t.describe())
	}
	return ratNum(r, false), nil
}
