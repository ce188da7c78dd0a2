package scaling

import "strings"

// Capability describes a class of formulas the evaluator accepts.
type Capability uint8

const (
	// CapAffine covers raw*scale+offset.
	CapAffine Capability = 1 << iota
	// CapArithmetic covers + - * / % and parentheses.
	CapArithmetic
	// CapPower covers the ^ operator.
	CapPower
	// CapFunctions covers the built-in function calls.
	CapFunctions
)

// Capabilities is the set this package implements.
const Capabilities = CapAffine | CapArithmetic | CapPower | CapFunctions

// Has reports whether all bits of o are present in c.
func (c Capability) Has(o Capability) bool {
	return c&o == o
}

func (c Capability) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, n := range []struct {
		bit  Capability
		name string
	}{
		{CapAffine, "affine"},
		{CapArithmetic, "arithmetic"},
		{CapPower, "power"},
		{CapFunctions, "functions"},
	} {
		if c.Has(n.bit) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Requires returns the capabilities a compiled program needs.
func (p *Program) Requires() Capability {
	if p.affine {
		return CapAffine
	}
	return requires(p.root)
}

func requires(n node) Capability {
	switch v := n.(type) {
	case *negNode:
		return CapArithmetic | requires(v.operand)
	case *binaryNode:
		c := CapArithmetic | requires(v.left) | requires(v.right)
		if v.op == '^' {
			c |= CapPower
		}
		return c
	case *callNode:
		c := CapFunctions
		for _, a := range v.args {
			c |= requires(a)
		}
		return c
	}
	return 0
}

// Supported reports whether this package can evaluate formulas needing c.
func Supported(c Capability) bool {
	return Capabilities.Has(c)
}
