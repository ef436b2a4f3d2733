package saulscript

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cwbudde/saulscript/internal/runtime"
)

func TestPrintWritesToConfiguredOutput(t *testing.T) {
	var buf bytes.Buffer
	engine := New(WithOutput(&buf))

	result, err := engine.Eval(`print("hello", "world")`)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if !result.Success {
		t.Fatal("expected a successful result")
	}

	if got := strings.TrimSpace(buf.String()); got != "hello world" {
		t.Fatalf("expected %q, got %q", "hello world", got)
	}
}

func TestBindValueExposesHostData(t *testing.T) {
	engine := New()
	engine.BindValue("greeting", runtime.Str{S: "hi"})

	result, err := engine.Eval(`return greeting`)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	if s, ok := result.Value.(runtime.Str); !ok || s.S != "hi" {
		t.Fatalf("expected greeting back, got %#v", result.Value)
	}
}

func TestBindFunctionCallableFromScript(t *testing.T) {
	engine := New()
	engine.BindFunction("double", func(args []runtime.Value) (runtime.Value, error) {
		n, ok := args[0].(runtime.Number)
		if !ok {
			return nil, errors.New("double expects a number")
		}
		return runtime.Number{D: n.D.Mul(decimal.NewFromInt(2))}, nil
	})

	result, err := engine.Eval(`return double(21)`)
	if err != nil {
		t.Fatalf("execution failed: %v", err)
	}
	n, ok := result.Value.(runtime.Number)
	if !ok || n.D.String() != "42" {
		t.Fatalf("expected 42, got %#v", result.Value)
	}
}

func TestBindFunctionErrorPropagatesToCaller(t *testing.T) {
	engine := New()
	engine.BindFunction("boom", func(args []runtime.Value) (runtime.Value, error) {
		return nil, errors.New("boom failed")
	})

	_, err := engine.Eval(`return boom()`)
	if err == nil {
		t.Fatal("expected the native function's error to surface")
	}
}

func TestOpLimitStopsRunawayLoop(t *testing.T) {
	engine := New(WithOpLimit(10))
	_, err := engine.Eval("x = 0\nwhile true\nx = x + 1\nend while")
	if err == nil {
		t.Fatal("expected an operation-limit error")
	}
}

func TestBindingsPersistAcrossEvalCalls(t *testing.T) {
	engine := New()
	if _, err := engine.Eval("counter = 0"); err != nil {
		t.Fatalf("first eval failed: %v", err)
	}
	if _, err := engine.Eval("counter = counter + 1"); err != nil {
		t.Fatalf("second eval failed: %v", err)
	}
	result, err := engine.Eval("return counter")
	if err != nil {
		t.Fatalf("third eval failed: %v", err)
	}
	if n, ok := result.Value.(runtime.Number); !ok || n.D.String() != "1" {
		t.Fatalf("expected bindings to persist across Eval calls, got %#v", result.Value)
	}
}

func TestFormatErrorIncludesSourceExcerpt(t *testing.T) {
	engine := New()
	_, err := engine.Eval("return missing_name")
	if err == nil {
		t.Fatal("expected an undefined-variable error")
	}

	formatted := FormatError(err, "return missing_name", "script.saul")
	if !strings.Contains(formatted, "missing_name") {
		t.Fatalf("expected the formatted error to mention the name, got %q", formatted)
	}
	if !strings.Contains(formatted, "1 | return missing_name") {
		t.Fatalf("expected the formatted error to quote the source line, got %q", formatted)
	}
}
