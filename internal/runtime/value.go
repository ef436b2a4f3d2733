// Package runtime holds SaulScript's runtime value model, the script
// Context, and closures. The evaluator (internal/eval) is the only caller
// that exercises this package's control-flow-carrying methods; everything
// here is otherwise inert data.
package runtime

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cwbudde/saulscript/internal/ast"
)

// Value is the result of reducing a node: a number, string, boolean, list,
// dict, callable, or unit. List and Dict are held behind pointers so that
// copying a Value (e.g. into another Context binding) preserves the
// reference semantics §4.5 requires for subscript assignment.
type Value interface {
	Kind() string
	String() string
}

// Number wraps an arbitrary-precision decimal.
type Number struct{ D decimal.Decimal }

func (n Number) Kind() string   { return "number" }
func (n Number) String() string { return n.D.String() }

// Str is a UTF-8 string value. Named Str (not String) to avoid colliding
// with the Kind()/fmt.Stringer method name.
type Str struct{ S string }

func (s Str) Kind() string   { return "string" }
func (s Str) String() string { return s.S }

// Bool is a boolean value.
type Bool struct{ B bool }

func (b Bool) Kind() string   { return "boolean" }
func (b Bool) String() string { return fmt.Sprintf("%t", b.B) }

// Unit is the "no value" result of a function that never hit a Return, or
// of a bare control-flow statement.
type Unit struct{}

func (Unit) Kind() string   { return "unit" }
func (Unit) String() string { return "" }

// List is a mutable, reference-typed sequence of values.
type List struct {
	Elements []Value
}

func NewList(elems []Value) *List { return &List{Elements: elems} }

func (l *List) Kind() string { return "list" }
func (l *List) String() string {
	parts := make([]string, len(l.Elements))
	for i, e := range l.Elements {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Dict is a mutable, reference-typed, insertion-ordered string-keyed map.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: make(map[string]Value)}
}

// Set stores v under key, recording insertion order the first time key is
// seen. A later Set on an existing key overwrites the value in place,
// matching dict-literal semantics where duplicate keys keep only the last
// value (§4.5).
func (d *Dict) Set(key string, v Value) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Keys() []string { return d.keys }

func (d *Dict) Kind() string { return "dict" }
func (d *Dict) String() string {
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = fmt.Sprintf("%s: %s", k, d.values[k].String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Interp is the subset of the evaluator a Callable needs to invoke script
// code: reducing a single argument expression against the caller's
// Context, and running a closure body to completion. Defining it here
// (rather than importing the eval package) keeps runtime free of a
// dependency on eval, which itself depends on runtime.
type Interp interface {
	ReduceNode(n ast.Node, ctx *Context) (Value, error)
	ExecBranch(b ast.Branch, ctx *Context) (Value, error)
}

// Callable is a value that can be invoked from an Invocation node.
type Callable interface {
	Value
	Call(ip Interp, args []ast.Node, callerCtx *Context) (Value, error)
}
