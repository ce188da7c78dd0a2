package scaling

import (
	"fmt"
	"math"
	"strings"
)

// SyntaxError reports a formula that does not match the grammar.
type SyntaxError struct {
	Expr string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("scaling %q: %s at position %d", e.Expr, e.Msg, e.Pos)
}

// EvalError reports a formula that failed for a particular raw value.
type EvalError struct {
	Expr string
	Raw  float64
	Msg  string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("scaling %q: %s for raw value %g", e.Expr, e.Msg, e.Raw)
}

// Limits on formula text taken from definition files.
const (
	maxFormulaLen = 4096
	maxDepth      = 256
)

// Program is a compiled formula. It is immutable and safe for concurrent use.
type Program struct {
	expr string
	root node

	affine        bool
	scale, offset float64
}

// Compile parses a formula. An empty formula is the identity.
func Compile(expr string) (*Program, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		expr = "X"
	}
	if len(expr) > maxFormulaLen {
		return nil, &SyntaxError{Expr: expr[:32] + "...", Pos: maxFormulaLen, Msg: fmt.Sprintf("formula longer than %d bytes", maxFormulaLen)}
	}
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &exprParser{expr: expr, toks: toks}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %q", t.text)
	}

	prog := &Program{expr: expr, root: root}
	if lf, ok := root.linear(); ok && lf.a != 0 {
		prog.affine, prog.scale, prog.offset = true, lf.a, lf.b
	}
	return prog, nil
}

// MustCompile is like Compile but panics on error. Intended for tests and constants.
func MustCompile(expr string) *Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the formula text.
func (p *Program) String() string {
	return p.expr
}

// Eval applies the formula to a raw value.
func (p *Program) Eval(x float64) (float64, error) {
	v, err := p.root.eval(x)
	if err != nil {
		return 0, &EvalError{Expr: p.expr, Raw: x, Msg: err.Error()}
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &EvalError{Expr: p.expr, Raw: x, Msg: "result is not a finite number"}
	}
	return v, nil
}

// Affine reports whether the formula is raw*scale+offset and returns both terms.
// Constant formulas (no X) are not affine.
func (p *Program) Affine() (scale, offset float64, ok bool) {
	return p.scale, p.offset, p.affine
}

// exprParser is a recursive-descent parser:
//
//	expr    = term { ("+" | "-") term }
//	term    = unary { ("*" | "/" | "%") unary }
//	unary   = ("-" | "+") unary | power
//	power   = primary [ "^" unary ]
//	primary = number | "x" | ident "(" expr { "," expr } ")" | "(" expr ")"
type exprParser struct {
	expr  string
	toks  []token
	pos   int
	depth int
}

func (p *exprParser) peek() token {
	return p.toks[p.pos]
}

func (p *exprParser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) errorf(t token, format string, args ...any) error {
	return &SyntaxError{Expr: p.expr, Pos: t.pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *exprParser) parseExpr() (node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text[0], left: left, right: right}
	}
}

func (p *exprParser) parseTerm() (node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		p.next()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &binaryNode{op: t.text[0], left: left, right: right}
	}
}

// parseUnary sits on every recursive path of the grammar, so it owns the
// nesting limit.
func (p *exprParser) parseUnary() (node, error) {
	t := p.peek()
	if p.depth >= maxDepth {
		return nil, p.errorf(t, "formula nested too deeply")
	}
	p.depth++
	defer func() { p.depth-- }()

	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if t.text == "+" {
			return operand, nil
		}
		return &negNode{operand: operand}, nil
	}
	return p.parsePower()
}

func (p *exprParser) parsePower() (node, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind == tokOp && t.text == "^" {
		p.next()
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &binaryNode{op: '^', left: base, right: exp}, nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return numNode(t.num), nil

	case tokLParen:
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if c := p.next(); c.kind != tokRParen {
			return nil, p.errorf(c, "expected ')'")
		}
		return inner, nil

	case tokIdent:
		if t.text == "x" {
			return varNode{}, nil
		}
		fn, ok := functions[t.text]
		if !ok {
			return nil, p.errorf(t, "unknown identifier %q", t.text)
		}
		if o := p.next(); o.kind != tokLParen {
			return nil, p.errorf(o, "expected '(' after %s", t.text)
		}
		var args []node
		for {
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			sep := p.next()
			if sep.kind == tokRParen {
				break
			}
			if sep.kind != tokComma {
				return nil, p.errorf(sep, "expected ',' or ')'")
			}
		}
		if len(args) != fn.arity {
			return nil, p.errorf(t, "%s takes %d argument(s), got %d", t.text, fn.arity, len(args))
		}
		return &callNode{name: t.text, fn: fn, args: args}, nil

	case tokEOF:
		return nil, p.errorf(t, "unexpected end of formula")

	default:
		return nil, p.errorf(t, "unexpected %q", t.text)
	}
}
