// Package eval implements the tree-walk reduction of a SaulScript AST
// against a runtime.Context (§4.6). Evaluator is stateless; all mutable
// state lives in the Context it is handed.
package eval

import (
	"github.com/cwbudde/saulscript/internal/ast"
	"github.com/cwbudde/saulscript/internal/runtime"
	"github.com/cwbudde/saulscript/internal/serr"
)

// outcome reports whether executing a node (or a Branch of them) ran to
// completion normally or hit a Return. This realizes §9's design note that
// "ReturnRequested" should be an explicit return sentinel threaded through
// Branch execution rather than unwound via the error channel.
type outcome int

const (
	stepNormal outcome = iota
	stepReturned
)

// Evaluator walks an AST against a Context. It implements runtime.Interp
// so that closures and native functions can reduce argument expressions
// and run call bodies without runtime importing eval (which would create
// an import cycle).
type Evaluator struct{}

func New() *Evaluator { return &Evaluator{} }

// ReduceNode reduces a single node to a Value, discarding any Return
// outcome information — used for argument/condition/index expressions
// that cannot themselves contain a top-level Return.
func (e *Evaluator) ReduceNode(n ast.Node, ctx *runtime.Context) (runtime.Value, error) {
	v, _, err := e.step(n, ctx)
	return v, err
}

// ExecBranch runs a Branch (a function body, or a whole program) to
// completion, returning its Return value or runtime.Unit{} if no Return
// fired.
func (e *Evaluator) ExecBranch(b ast.Branch, ctx *runtime.Context) (runtime.Value, error) {
	out, err := e.execBranch(b, ctx)
	if err != nil {
		return nil, err
	}
	if out == stepReturned {
		return ctx.ReturnValue, nil
	}
	return runtime.Unit{}, nil
}

func (e *Evaluator) execBranch(b ast.Branch, ctx *runtime.Context) (outcome, error) {
	for _, n := range b {
		_, out, err := e.step(n, ctx)
		if err != nil {
			return stepNormal, err
		}
		if out == stepReturned {
			return stepReturned, nil
		}
	}
	return stepNormal, nil
}

// step reduces one node, reporting the Value it produced and whether a
// Return fired anywhere within it. Every node increments the Context's
// operation counter and is checked against both budgets before any work
// happens (§4.6, §5).
func (e *Evaluator) step(n ast.Node, ctx *runtime.Context) (runtime.Value, outcome, error) {
	if err := ctx.IncrementOps(); err != nil {
		return nil, stepNormal, err
	}

	switch node := n.(type) {
	case *ast.Nop:
		return runtime.Unit{}, stepNormal, nil

	case *ast.Number:
		return runtime.Number{D: node.Value}, stepNormal, nil

	case *ast.String:
		return runtime.Str{S: node.Value}, stepNormal, nil

	case *ast.Bool:
		return runtime.Bool{B: node.Value}, stepNormal, nil

	case *ast.Variable:
		v, ok := ctx.Bindings[node.Name]
		if !ok {
			return nil, stepNormal, serr.ObjectResolutionError{Line: node.Ln, Name: node.Name}
		}
		return v, stepNormal, nil

	case *ast.List:
		elems := make([]runtime.Value, len(node.Elements))
		for i, elemNode := range node.Elements {
			v, _, err := e.step(elemNode, ctx)
			if err != nil {
				return nil, stepNormal, err
			}
			elems[i] = v
		}
		return runtime.NewList(elems), stepNormal, nil

	case *ast.Dict:
		d := runtime.NewDict()
		for _, entry := range node.Entries {
			v, _, err := e.step(entry.Value, ctx)
			if err != nil {
				return nil, stepNormal, err
			}
			d.Set(entry.Key, v)
		}
		return d, stepNormal, nil

	case *ast.Unary:
		return e.evalUnary(node, ctx)

	case *ast.Binary:
		return e.evalBinary(node, ctx)

	case *ast.If:
		condV, _, err := e.step(node.Cond, ctx)
		if err != nil {
			return nil, stepNormal, err
		}
		if truthy(condV) {
			out, err := e.execBranch(node.Then, ctx)
			return runtime.Unit{}, out, err
		}
		if len(node.Else) > 0 {
			out, err := e.execBranch(node.Else, ctx)
			return runtime.Unit{}, out, err
		}
		return runtime.Unit{}, stepNormal, nil

	case *ast.While:
		for {
			condV, _, err := e.step(node.Cond, ctx)
			if err != nil {
				return nil, stepNormal, err
			}
			if !truthy(condV) {
				break
			}
			out, err := e.execBranch(node.Body, ctx)
			if err != nil {
				return nil, stepNormal, err
			}
			if out == stepReturned {
				return runtime.Unit{}, stepReturned, nil
			}
		}
		return runtime.Unit{}, stepNormal, nil

	case *ast.For:
		iterV, _, err := e.step(node.Iterable, ctx)
		if err != nil {
			return nil, stepNormal, err
		}
		list, ok := iterV.(*runtime.List)
		if !ok {
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "'for' requires a list-valued iterable"}
		}
		for _, item := range list.Elements {
			ctx.Bindings[node.Name] = item
			out, err := e.execBranch(node.Body, ctx)
			if err != nil {
				return nil, stepNormal, err
			}
			if out == stepReturned {
				return runtime.Unit{}, stepReturned, nil
			}
		}
		return runtime.Unit{}, stepNormal, nil

	case *ast.Function:
		fn := runtime.NewScriptFunction(node.Params, node.Body, runtime.Snapshot(ctx), node.Ln)
		return fn, stepNormal, nil

	case *ast.Invocation:
		callee, ok := ctx.Bindings[node.Callee]
		if !ok {
			return nil, stepNormal, serr.ObjectResolutionError{Line: node.Ln, Name: node.Callee}
		}
		callable, ok := callee.(runtime.Callable)
		if !ok {
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: node.Callee + " is not callable"}
		}
		v, err := callable.Call(e, node.Args, ctx)
		return v, stepNormal, err

	case *ast.Return:
		v, _, err := e.step(node.Value, ctx)
		if err != nil {
			return nil, stepNormal, err
		}
		ctx.ReturnValue = v
		return v, stepReturned, nil

	default:
		return nil, stepNormal, serr.RuntimeError{Line: n.Line(), Msg: "unhandled node type"}
	}
}

func truthy(v runtime.Value) bool {
	switch t := v.(type) {
	case runtime.Bool:
		return t.B
	case runtime.Number:
		return !t.D.IsZero()
	case runtime.Str:
		return t.S != ""
	case *runtime.List:
		return len(t.Elements) > 0
	case *runtime.Dict:
		return len(t.Keys()) > 0
	case runtime.Unit:
		return false
	default:
		return true
	}
}
