package scaling

import (
	"errors"
	"math"
)

var errDivByZero = errors.New("division by zero")

// linearForm is a*X + b.
type linearForm struct {
	a, b float64
}

type node interface {
	eval(x float64) (float64, error)
	// linear returns the node as a*X+b when it is linear in X.
	linear() (linearForm, bool)
}

type numNode float64

func (n numNode) eval(float64) (float64, error) { return float64(n), nil }
func (n numNode) linear() (linearForm, bool)      { return linearForm{b: float64(n)}, true }

type varNode struct{}

func (varNode) eval(x float64) (float64, error) { return x, nil }
func (varNode) linear() (linearForm, bool)      { return linearForm{a: 1}, true }

type negNode struct {
	operand node
}

func (n *negNode) eval(x float64) (float64, error) {
	v, err := n.operand.eval(x)
	return -v, err
}

func (n *negNode) linear() (linearForm, bool) {
	lf, ok := n.operand.linear()
	return linearForm{a: -lf.a, b: -lf.b}, ok
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n *binaryNode) eval(x float64) (float64, error) {
	l, err := n.left.eval(x)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(x)
	if err != nil {
		return 0, err
	}
	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	case '/':
		if r == 0 {
			return 0, errDivByZero
		}
		return l / r, nil
	case '%':
		if r == 0 {
			return 0, errDivByZero
		}
		return math.Mod(l, r), nil
	case '^':
		return math.Pow(l, r), nil
	}
	return 0, errors.New("unknown operator")
}

func (n *binaryNode) linear() (linearForm, bool) {
	l, lok := n.left.linear()
	r, rok := n.right.linear()
	if !lok || !rok {
		return linearForm{}, false
	}
	switch n.op {
	case '+':
		return linearForm{a: l.a + r.a, b: l.b + r.b}, true
	case '-':
		return linearForm{a: l.a - r.a, b: l.b - r.b}, true
	case '*':
		switch {
		case l.a == 0:
			return linearForm{a: l.b * r.a, b: l.b * r.b}, true
		case r.a == 0:
			return linearForm{a: l.a * r.b, b: l.b * r.b}, true
		}
	case '/':
		if r.a == 0 && r.b != 0 {
			return linearForm{a: l.a / r.b, b: l.b / r.b}, true
		}
	case '^':
		if l.a == 0 && r.a == 0 {
			return linearForm{b: math.Pow(l.b, r.b)}, true
		}
		if r.a == 0 && r.b == 1 {
			return l, true
		}
	}
	return linearForm{}, false
}

type function struct {
	arity int
	apply func(args []float64) (float64, error)
}

var functions = map[string]function{
	"abs":   unary(math.Abs),
	"sqrt":  unary(math.Sqrt),
	"log":   unary(math.Log),
	"log10": unary(math.Log10),
	"exp":   unary(math.Exp),
	"round": unary(math.Round),
	"floor": unary(math.Floor),
	"ceil":  unary(math.Ceil),
	"min":   binary(math.Min),
	"max":   binary(math.Max),
	"pow":   binary(math.Pow),
}

func unary(f func(float64) float64) function {
	return function{arity: 1, apply: func(a []float64) (float64, error) { return f(a[0]), nil }}
}

func binary(f func(float64, float64) float64) function {
	return function{arity: 2, apply: func(a []float64) (float64, error) { return f(a[0], a[1]), nil }}
}

type callNode struct {
	name string
	fn   function
	args []node
}

func (n *callNode) eval(x float64) (float64, error) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		v, err := a.eval(x)
		if err != nil {
			return 0, err
		}
		vals[i] = v
	}
	return n.fn.apply(vals)
}

// linear folds calls whose arguments do not depend on X.
func (n *callNode) linear() (linearForm, bool) {
	vals := make([]float64, len(n.args))
	for i, a := range n.args {
		lf, ok := a.linear()
		if !ok || lf.a != 0 {
			return linearForm{}, false
		}
		vals[i] = lf.b
	}
	v, err := n.fn.apply(vals)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return linearForm{}, false
	}
	return linearForm{b: v}, true
}
