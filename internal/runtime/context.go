package runtime

import (
	"time"

	"github.com/cwbudde/saulscript/internal/ast"
	"github.com/cwbudde/saulscript/internal/serr"
)

// Context is the script's environment: a flat map of bindings, a
// return-value slot, and the operation/time budget accounting described in
// §3 and §5. A Context created to evaluate a function body starts as a
// shallow copy of the enclosing Context (§4.7).
type Context struct {
	Bindings          map[string]Value
	ReturnValue       Value
	OperationsCounted int
	OperationLimit    int     // <= 0 means unbounded
	TimeLimit         float64 // seconds; <= 0 means unbounded
	StartTime         time.Time
}

// NewContext creates an empty root Context with its budget clock started.
func NewContext() *Context {
	return &Context{
		Bindings:  make(map[string]Value),
		StartTime: time.Now(),
	}
}

// BindValue exposes a host value to scripts under name.
func (c *Context) BindValue(name string, v Value) {
	c.Bindings[name] = v
}

// BindFunction exposes a native Go callable to scripts under name. Every
// argument expression is reduced against the caller's Context before fn
// sees it (§6).
func (c *Context) BindFunction(name string, fn NativeFunc) {
	c.Bindings[name] = &NativeFunction{Name: name, Fn: fn}
}

// SetOpLimit configures the operation budget; n <= 0 disables it.
func (c *Context) SetOpLimit(n int) { c.OperationLimit = n }

// SetTimeLimit configures the wall-clock budget in seconds; seconds <= 0
// disables it.
func (c *Context) SetTimeLimit(seconds float64) { c.TimeLimit = seconds }

// CheckLimits reports whether the Context has exceeded either budget.
func (c *Context) CheckLimits() error {
	if c.OperationLimit > 0 && c.OperationsCounted > c.OperationLimit {
		return serr.OperationLimitReached{Counted: c.OperationsCounted, Limit: c.OperationLimit}
	}
	if c.TimeLimit > 0 {
		elapsed := time.Since(c.StartTime).Seconds()
		if elapsed > c.TimeLimit {
			return serr.TimeLimitReached{Elapsed: elapsed, Limit: c.TimeLimit}
		}
	}
	return nil
}

// IncrementOps increments the operation counter by one and checks both
// budgets, in that order, as every reduced node must (§4.6).
func (c *Context) IncrementOps() error {
	c.OperationsCounted++
	return c.CheckLimits()
}

// snapshot returns a Context holding a shallow copy of c's bindings, used
// both to capture a closure's defining scope and to build the fresh
// Context a call runs against.
func (c *Context) snapshot() *Context {
	nc := &Context{
		Bindings:       make(map[string]Value, len(c.Bindings)),
		OperationLimit: c.OperationLimit,
		TimeLimit:      c.TimeLimit,
		StartTime:      c.StartTime,
	}
	for k, v := range c.Bindings {
		nc.Bindings[k] = v
	}
	return nc
}

// merge overlays other's bindings on top of a copy of c's bindings: the
// definition-time scope provides the base, the call-time scope overrides
// same-named bindings with their current (possibly mutated) value. This is
// the Context model's "lexical-at-definition + call-time merge" described
// in §3; see DESIGN.md for why the call site wins on conflicts.
func (c *Context) merge(other *Context) *Context {
	nc := c.snapshot()
	for k, v := range other.Bindings {
		nc.Bindings[k] = v
	}
	return nc
}

// ScriptFunction is a closure: a Function AST node plus a snapshot of the
// Context in effect when it was reduced (§4.7).
type ScriptFunction struct {
	Params   []string
	Body     ast.Branch
	Captured *Context
	Line     int
}

func NewScriptFunction(params []string, body ast.Branch, captured *Context, line int) *ScriptFunction {
	return &ScriptFunction{Params: params, Body: body, Captured: captured, Line: line}
}

func (f *ScriptFunction) Kind() string   { return "function" }
func (f *ScriptFunction) String() string { return "<function>" }

// Call implements §4.7's four steps: build a fresh Context from the
// captured scope merged with the caller's live scope, bind parameters by
// reducing each argument against the CALLER's Context, run the body, and
// propagate the callee's operation count back to the caller. The top-level
// StartTime is preserved rather than reset, so the time budget is spent
// across an entire top-level execution and not reset by every call (the
// Open Question resolution in §9: the original resets it per call, which
// would make the time budget unenforceable against many short calls).
func (f *ScriptFunction) Call(ip Interp, args []ast.Node, callerCtx *Context) (Value, error) {
	if len(args) < len(f.Params) {
		return nil, serr.RuntimeError{Line: f.Line, Msg: "Not enough arguments supplied."}
	}
	if len(args) > len(f.Params) {
		return nil, serr.RuntimeError{Line: f.Line, Msg: "Too many arguments supplied."}
	}

	newCtx := f.Captured.merge(callerCtx)
	newCtx.StartTime = callerCtx.StartTime

	for i, param := range f.Params {
		v, err := ip.ReduceNode(args[i], callerCtx)
		if err != nil {
			return nil, err
		}
		newCtx.Bindings[param] = v
	}
	newCtx.OperationsCounted = callerCtx.OperationsCounted

	result, err := ip.ExecBranch(f.Body, newCtx)
	callerCtx.OperationsCounted = newCtx.OperationsCounted
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Snapshot captures ctx for use as a closure's defining scope. Exported for
// the evaluator's Function-node case.
func Snapshot(ctx *Context) *Context { return ctx.snapshot() }

// NativeFunc is the shape a host callback must have once its arguments
// have already been reduced to Values.
type NativeFunc func(args []Value) (Value, error)

// NativeFunction adapts a host Go function to Callable, reducing each
// argument expression against the caller's Context before invoking Fn, as
// required by §6.
type NativeFunction struct {
	Name string
	Fn   NativeFunc
}

func (n *NativeFunction) Kind() string   { return "function" }
func (n *NativeFunction) String() string { return "<native " + n.Name + ">" }

func (n *NativeFunction) Call(ip Interp, args []ast.Node, callerCtx *Context) (Value, error) {
	reduced := make([]Value, len(args))
	for i, a := range args {
		v, err := ip.ReduceNode(a, callerCtx)
		if err != nil {
			return nil, err
		}
		reduced[i] = v
	}
	return n.Fn(reduced)
}
