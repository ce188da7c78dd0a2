package scaling

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
)

func TestCompileEval(t *testing.T) {
	tests := []struct {
		expr string
		x    float64
		want float64
	}{
		{"X", 42, 42},
		{"", 7, 7},
		{"x*0.75-40", 100, 35},
		{"X * 0.5 - 40", 160, 40},
		{"(X/2)-40", 100, 10},
		{"0x10 + X", 1, 17},
		{"X*1e-2", 250, 2.5},
		{"-X", 3, -3},
		{"--X", 3, 3},
		{"+X", 3, 3},
		{"2^3^2", 0, 512},
		{"-2^2", 0, -4},
		{"X % 7", 23, 2},
		{"abs(X-10)", 4, 6},
		{"sqrt(X)", 81, 9},
		{"min(X*10, 6500)", 700, 6500},
		{"max(X, 0)", -3, 0},
		{"pow(X, 2)", 5, 25},
		{"round(X/3)", 10, 3},
		{"floor(X/3)", 11, 3},
		{"ceil(X/3)", 10, 4},
		{"log10(X)", 1000, 3},
		{"exp(0)+log(1)", 0, 1},
		{"0.0078125*X^2 + 0.5*X", 16, 10},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile(%q) error = %v", tt.expr, err)
			}
			got, err := p.Eval(tt.x)
			if err != nil {
				t.Fatalf("Eval(%v) error = %v", tt.x, err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Eval(%v) = %v, want %v", tt.x, got, tt.want)
			}
		})
	}
}

func TestCompileRejects(t *testing.T) {
	tests := []struct {
		name string
		expr string
	}{
		{"unknown identifier", "Y*2"},
		{"host call", "os.Exit(1)"},
		{"unbalanced open", "(X+1"},
		{"unbalanced close", "X+1)"},
		{"dangling operator", "X*"},
		{"bad character", "X & 1"},
		{"bad hex", "0x"},
		{"arity", "min(X)"},
		{"call without parens", "sqrt X"},
		{"trailing comma", "max(X,)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			if err == nil {
				t.Fatalf("Compile(%q) expected error", tt.expr)
			}
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Compile(%q) error = %T, want *SyntaxError", tt.expr, err)
			}
			if se.Expr == "" {
				t.Error("SyntaxError.Expr is empty")
			}
		})
	}
}

func TestCompileLimits(t *testing.T) {
	tests := []struct {
		name string
		expr string
		msg  string
	}{
		{"nested negation", strings.Repeat("-", maxDepth+1) + "X", "nested too deeply"},
		{"nested parens", strings.Repeat("(", maxDepth+1) + "X" + strings.Repeat(")", maxDepth+1), "nested too deeply"},
		{"nested calls", strings.Repeat("abs(", maxDepth+1) + "X" + strings.Repeat(")", maxDepth+1), "nested too deeply"},
		{"power chain", strings.Repeat("2^", maxDepth+1) + "X", "nested too deeply"},
		{"huge negation", strings.Repeat("-", 5_000_000) + "X", "longer than"},
		{"long sum", "X" + strings.Repeat("+X", maxFormulaLen), "longer than"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.expr)
			var se *SyntaxError
			if !errors.As(err, &se) {
				t.Fatalf("Compile() error = %v, want *SyntaxError", err)
			}
			if !strings.Contains(se.Msg, tt.msg) {
				t.Errorf("Msg = %q, want it to mention %q", se.Msg, tt.msg)
			}
			if len(se.Expr) > maxFormulaLen {
				t.Errorf("Expr holds %d bytes", len(se.Expr))
			}
		})
	}

	t.Run("within limit", func(t *testing.T) {
		expr := strings.Repeat("(", 100) + "X" + strings.Repeat(")", 100)
		p, err := Compile(expr)
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}
		if got, _ := p.Eval(3); got != 3 {
			t.Errorf("Eval(3) = %v, want 3", got)
		}
	})
}

func TestEvalErrors(t *testing.T) {
	tests := []struct {
		expr string
		x    float64
	}{
		{"100/X", 0},
		{"X % 0", 5},
		{"sqrt(X)", -1},
		{"log(X)", 0},
		{"X^1000", 10},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p := MustCompile(tt.expr)
			_, err := p.Eval(tt.x)
			var ee *EvalError
			if !errors.As(err, &ee) {
				t.Fatalf("Eval(%v) error = %v, want *EvalError", tt.x, err)
			}
			if ee.Raw != tt.x {
				t.Errorf("EvalError.Raw = %v, want %v", ee.Raw, tt.x)
			}
		})
	}
}

func TestAffine(t *testing.T) {
	tests := []struct {
		expr       string
		scale, off float64
		wantAffine bool
	}{
		{"X", 1, 0, true},
		{"X*0.75-40", 0.75, -40, true},
		{"(X/2)-40", 0.5, -40, true},
		{"-(X+1)", -1, -1, true},
		{"2*(X+3)", 2, 6, true},
		{"X*2^3", 8, 0, true},
		{"X^1", 1, 0, true},
		{"X*sqrt(4)", 2, 0, true},
		{"X*X", 0, 0, false},
		{"X^2", 0, 0, false},
		{"abs(X)", 0, 0, false},
		{"10/X", 0, 0, false},
		{"42", 0, 0, false},
		{"X-X", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			scale, off, ok := MustCompile(tt.expr).Affine()
			if ok != tt.wantAffine {
				t.Fatalf("Affine() ok = %v, want %v", ok, tt.wantAffine)
			}
			if !ok {
				return
			}
			if scale != tt.scale || off != tt.off {
				t.Errorf("Affine() = (%v, %v), want (%v, %v)", scale, off, tt.scale, tt.off)
			}
		})
	}
}

func TestRequires(t *testing.T) {
	tests := []struct {
		expr string
		want Capability
	}{
		{"X*0.5", CapAffine},
		{"X*X", CapArithmetic},
		{"X^2", CapArithmetic | CapPower},
		{"sqrt(X)", CapFunctions},
		{"abs(X)-X^2", CapArithmetic | CapPower | CapFunctions},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got := MustCompile(tt.expr).Requires()
			if got != tt.want {
				t.Errorf("Requires() = %s, want %s", got, tt.want)
			}
			if !Supported(got) {
				t.Errorf("Supported(%s) = false", got)
			}
		})
	}
}

func TestCapabilityString(t *testing.T) {
	if got := Capabilities.String(); got != "affine|arithmetic|power|functions" {
		t.Errorf("Capabilities.String() = %q", got)
	}
	if got := Capability(0).String(); got != "none" {
		t.Errorf("Capability(0).String() = %q", got)
	}
}

func TestCache(t *testing.T) {
	c := NewCache()

	p1, err := c.Compile("X*2")
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	p2, _ := c.Compile("  X*2 ")
	if p1 != p2 {
		t.Error("expected the same program for equivalent keys")
	}

	_, err1 := c.Compile("X*")
	_, err2 := c.Compile("X*")
	if err1 == nil || err1 != err2 {
		t.Errorf("expected cached compile error, got %v and %v", err1, err2)
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.Compile("X+1")
			if err != nil {
				t.Errorf("Compile() error = %v", err)
				return
			}
			if v, _ := p.Eval(1); v != 2 {
				t.Errorf("Eval(1) = %v, want 2", v)
			}
		}()
	}
	wg.Wait()
}
