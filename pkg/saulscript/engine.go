// Package saulscript is the embedding surface for hosts that want to run
// SaulScript programs: construct an Engine, bind host values and functions
// into it, and Eval source text. It mirrors CWBudde-go-dws's pkg/dwscript
// facade — a functional-options constructor over an internal evaluator.
package saulscript

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cwbudde/saulscript/internal/eval"
	"github.com/cwbudde/saulscript/internal/lexer"
	"github.com/cwbudde/saulscript/internal/natives"
	"github.com/cwbudde/saulscript/internal/parser"
	"github.com/cwbudde/saulscript/internal/runtime"
	"github.com/cwbudde/saulscript/internal/serr"
)

// Engine runs SaulScript source against a single persistent Context, so
// bindings and budgets set up before Eval are visible to every Eval call.
type Engine struct {
	ctx    *runtime.Context
	interp *eval.Evaluator
	output io.Writer
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithOpLimit caps the number of AST nodes a single Eval may reduce.
// n <= 0 disables the limit (§5).
func WithOpLimit(n int) Option {
	return func(e *Engine) { e.ctx.SetOpLimit(n) }
}

// WithTimeLimit caps wall-clock seconds an Eval may spend. seconds <= 0
// disables the limit (§5).
func WithTimeLimit(seconds float64) Option {
	return func(e *Engine) { e.ctx.SetTimeLimit(seconds) }
}

// WithOutput redirects the engine's "print" native to w instead of os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.output = w }
}

// New builds an Engine with the built-in natives (print, json_encode,
// json_decode) already bound.
func New(opts ...Option) *Engine {
	e := &Engine{
		ctx:    runtime.NewContext(),
		interp: eval.New(),
		output: os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	natives.Register(e.ctx)
	e.ctx.BindFunction("print", e.printNative)
	return e
}

func (e *Engine) printNative(args []runtime.Value) (runtime.Value, error) {
	parts := make([]any, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	fmt.Fprintln(e.output, parts...)
	return runtime.Unit{}, nil
}

// BindValue exposes a host value to scripts under name.
func (e *Engine) BindValue(name string, v runtime.Value) { e.ctx.BindValue(name, v) }

// BindFunction exposes a native Go callback to scripts under name (§6).
func (e *Engine) BindFunction(name string, fn runtime.NativeFunc) { e.ctx.BindFunction(name, fn) }

// SetOutput redirects the "print" native after construction.
func (e *Engine) SetOutput(w io.Writer) { e.output = w }

// Result reports the outcome of a single Eval call.
type Result struct {
	Success bool
	Value   runtime.Value
	Error   error
}

// Eval lexes, parses, and executes source against the Engine's Context.
func (e *Engine) Eval(source string) (*Result, error) {
	// Each Eval starts with a fresh operation count and budget clock.
	e.ctx.OperationsCounted = 0
	e.ctx.StartTime = time.Now()

	tokens, err := lexer.New(source).Lex()
	if err != nil {
		return &Result{Error: err}, err
	}

	program, err := parser.Parse(tokens)
	if err != nil {
		return &Result{Error: err}, err
	}

	v, err := e.interp.ExecBranch(program, e.ctx)
	if err != nil {
		return &Result{Error: err}, err
	}

	return &Result{Success: true, Value: v}, nil
}

// FormatError renders err with source-line context, the way CLI output and
// error tests expect (§7).
func FormatError(err error, source, file string) string {
	return serr.Format(err, source, file)
}
