package eval

import (
	"testing"

	"github.com/cwbudde/saulscript/internal/lexer"
	"github.com/cwbudde/saulscript/internal/parser"
	"github.com/cwbudde/saulscript/internal/runtime"
)

func run(t *testing.T, src string, ctx *runtime.Context) runtime.Value {
	t.Helper()
	toks, err := lexer.New(src).Lex()
	if err != nil {
		t.Fatalf("lex error: %v", err)
	}
	program, err := parser.Parse(toks)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	v, err := New().ExecBranch(program, ctx)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}
	return v
}

func runExpectErr(t *testing.T, src string, ctx *runtime.Context) error {
	t.Helper()
	toks, err := lexer.New(src).Lex()
	if err != nil {
		return err
	}
	program, err := parser.Parse(toks)
	if err != nil {
		return err
	}
	_, err = New().ExecBranch(program, ctx)
	return err
}

func number(t *testing.T, v runtime.Value) string {
	t.Helper()
	n, ok := v.(runtime.Number)
	if !ok {
		t.Fatalf("expected a number, got %#v", v)
	}
	return n.D.String()
}

func TestArithmeticPrecedence(t *testing.T) {
	ctx := runtime.NewContext()
	v := run(t, "return 1 + 2 * 3", ctx)
	if got := number(t, v); got != "7" {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestPowerRightAssociative(t *testing.T) {
	ctx := runtime.NewContext()
	// 2 ** 3 ** 2 = 2 ** (3 ** 2) = 2 ** 9 = 512, not (2**3)**2 = 64.
	v := run(t, "return 2 ** 3 ** 2", ctx)
	if got := number(t, v); got != "512" {
		t.Fatalf("expected 512, got %s", got)
	}
}

func TestUnaryMinusPrecedence(t *testing.T) {
	ctx := runtime.NewContext()
	v := run(t, "return -2 * 3", ctx)
	if got := number(t, v); got != "-6" {
		t.Fatalf("expected -6, got %s", got)
	}
}

func TestIfElseBranching(t *testing.T) {
	ctx := runtime.NewContext()
	v := run(t, "x = 5\nif x > 3\nreturn 1\nelse\nreturn 0\nend if", ctx)
	if got := number(t, v); got != "1" {
		t.Fatalf("expected 1, got %s", got)
	}
}

func TestForOverListSumsElements(t *testing.T) {
	ctx := runtime.NewContext()
	v := run(t, "total = 0\nfor x in [1, 2, 3, 4]\ntotal = total + x\nend for\nreturn total", ctx)
	if got := number(t, v); got != "10" {
		t.Fatalf("expected 10, got %s", got)
	}
}

func TestClosureSeesCallSiteRebinding(t *testing.T) {
	ctx := runtime.NewContext()
	src := "base = 10\nadder = function(n) { return n + base }\nbase = 20\nreturn adder(5)"
	// base is re-assigned after the closure is defined but before the call;
	// the call-site's live value for base (20) wins under the merge model.
	v := run(t, src, ctx)
	if got := number(t, v); got != "25" {
		t.Fatalf("expected 25, got %s", got)
	}
}

func TestDictLiteralAndDotAccess(t *testing.T) {
	ctx := runtime.NewContext()
	v := run(t, `d = {a: 1, b: 2}
return d.a + d.b`, ctx)
	if got := number(t, v); got != "3" {
		t.Fatalf("expected 3, got %s", got)
	}
}

func TestSubscriptAssignmentMutatesSharedList(t *testing.T) {
	ctx := runtime.NewContext()
	src := "xs = [1, 2, 3]\nxs[1] = 99\nreturn xs[1]"
	v := run(t, src, ctx)
	if got := number(t, v); got != "99" {
		t.Fatalf("expected 99, got %s", got)
	}
}

func TestOperationLimitTrips(t *testing.T) {
	ctx := runtime.NewContext()
	ctx.SetOpLimit(3)
	err := runExpectErr(t, "x = 1\ny = 2\nz = 3\nw = 4", ctx)
	if err == nil {
		t.Fatal("expected an operation-limit error")
	}
}

func TestTimeLimitTrips(t *testing.T) {
	ctx := runtime.NewContext()
	ctx.SetTimeLimit(0.0000001)
	err := runExpectErr(t, "x = 1\nwhile true\nx = x + 1\nend while", ctx)
	if err == nil {
		t.Fatal("expected a time-limit error")
	}
}

func TestReturnSentinelShortCircuitsWhileLoop(t *testing.T) {
	ctx := runtime.NewContext()
	src := "i = 0\nwhile true\ni = i + 1\nif i == 5\nreturn i\nend if\nend while"
	v := run(t, src, ctx)
	if got := number(t, v); got != "5" {
		t.Fatalf("expected the loop to stop at 5, got %s", got)
	}
}

func TestDivisionByZeroErrors(t *testing.T) {
	ctx := runtime.NewContext()
	if err := runExpectErr(t, "return 1 / 0", ctx); err == nil {
		t.Fatal("expected a division-by-zero error")
	}
}

func TestPowerEdgeCasesError(t *testing.T) {
	cases := []string{
		"return 0 ** 0",
		"return 0 ** -1",
		"return (-2) ** 0.5",
	}
	for _, src := range cases {
		ctx := runtime.NewContext()
		if err := runExpectErr(t, src, ctx); err == nil {
			t.Fatalf("expected an error for %q, decimal.Pow would silently return 0", src)
		}
	}
}

func TestUndefinedVariableErrors(t *testing.T) {
	ctx := runtime.NewContext()
	if err := runExpectErr(t, "return undefined_name", ctx); err == nil {
		t.Fatal("expected an object-resolution error")
	}
}

func TestTooFewArgumentsErrors(t *testing.T) {
	ctx := runtime.NewContext()
	if err := runExpectErr(t, "f = function(a, b) { return a + b }\nreturn f(1)", ctx); err == nil {
		t.Fatal("expected an arity error for too few arguments")
	}
}

func TestTooManyArgumentsErrors(t *testing.T) {
	ctx := runtime.NewContext()
	if err := runExpectErr(t, "f = function(a) { return a }\nreturn f(1, 2)", ctx); err == nil {
		t.Fatal("expected an arity error for too many arguments")
	}
}
