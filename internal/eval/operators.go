package eval

import (
	"github.com/cwbudde/saulscript/internal/ast"
	"github.com/cwbudde/saulscript/internal/runtime"
	"github.com/cwbudde/saulscript/internal/serr"
)

func (e *Evaluator) evalUnary(node *ast.Unary, ctx *runtime.Context) (runtime.Value, outcome, error) {
	v, _, err := e.step(node.Target, ctx)
	if err != nil {
		return nil, stepNormal, err
	}
	num, ok := v.(runtime.Number)
	if !ok {
		return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "unary '-' requires a number"}
	}
	return runtime.Number{D: num.D.Neg()}, stepNormal, nil
}

func (e *Evaluator) evalBinary(node *ast.Binary, ctx *runtime.Context) (runtime.Value, outcome, error) {
	switch node.Op {
	case ast.OpAssign:
		return e.evalAssign(node, ctx)
	case ast.OpDot:
		return e.evalDot(node, ctx)
	case ast.OpSubscript:
		return e.evalSubscriptRead(node, ctx)
	}

	left, _, err := e.step(node.Left, ctx)
	if err != nil {
		return nil, stepNormal, err
	}
	right, _, err := e.step(node.Right, ctx)
	if err != nil {
		return nil, stepNormal, err
	}

	if node.Op == ast.OpEq {
		return runtime.Bool{B: valuesEqual(left, right)}, stepNormal, nil
	}

	ln, lok := left.(runtime.Number)
	rn, rok := right.(runtime.Number)
	if !lok || !rok {
		return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "operator " + node.Op.String() + " requires two numbers"}
	}

	switch node.Op {
	case ast.OpAdd:
		return runtime.Number{D: ln.D.Add(rn.D)}, stepNormal, nil
	case ast.OpSub:
		return runtime.Number{D: ln.D.Sub(rn.D)}, stepNormal, nil
	case ast.OpMul:
		return runtime.Number{D: ln.D.Mul(rn.D)}, stepNormal, nil
	case ast.OpDiv:
		if rn.D.IsZero() {
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "division by zero"}
		}
		return runtime.Number{D: ln.D.Div(rn.D)}, stepNormal, nil
	case ast.OpPow:
		if ln.D.IsZero() && rn.D.Sign() <= 0 {
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "undefined power: 0 raised to a non-positive exponent"}
		}
		if ln.D.Sign() < 0 && !rn.D.Equal(rn.D.Truncate(0)) {
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "undefined power: negative base with a fractional exponent"}
		}
		return runtime.Number{D: ln.D.Pow(rn.D)}, stepNormal, nil
	case ast.OpLt:
		return runtime.Bool{B: ln.D.Cmp(rn.D) < 0}, stepNormal, nil
	case ast.OpGt:
		return runtime.Bool{B: ln.D.Cmp(rn.D) > 0}, stepNormal, nil
	case ast.OpLe:
		return runtime.Bool{B: ln.D.Cmp(rn.D) <= 0}, stepNormal, nil
	case ast.OpGe:
		return runtime.Bool{B: ln.D.Cmp(rn.D) >= 0}, stepNormal, nil
	default:
		return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "unsupported operator " + node.Op.String()}
	}
}

func valuesEqual(a, b runtime.Value) bool {
	switch av := a.(type) {
	case runtime.Number:
		bv, ok := b.(runtime.Number)
		return ok && av.D.Equal(bv.D)
	case runtime.Str:
		bv, ok := b.(runtime.Str)
		return ok && av.S == bv.S
	case runtime.Bool:
		bv, ok := b.(runtime.Bool)
		return ok && av.B == bv.B
	case runtime.Unit:
		_, ok := b.(runtime.Unit)
		return ok
	case *runtime.List:
		bv, ok := b.(*runtime.List)
		return ok && av == bv
	case *runtime.Dict:
		bv, ok := b.(*runtime.Dict)
		return ok && av == bv
	default:
		return false
	}
}

func (e *Evaluator) evalDot(node *ast.Binary, ctx *runtime.Context) (runtime.Value, outcome, error) {
	objV, _, err := e.step(node.Left, ctx)
	if err != nil {
		return nil, stepNormal, err
	}
	dict, ok := objV.(*runtime.Dict)
	if !ok {
		return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "'.' target is not a dict"}
	}
	member, ok := node.Right.(*ast.Variable)
	if !ok {
		return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "'.' right-hand side must be a member name"}
	}
	v, ok := dict.Get(member.Name)
	if !ok {
		return nil, stepNormal, serr.ObjectResolutionError{Line: node.Ln, Name: member.Name}
	}
	return v, stepNormal, nil
}

func (e *Evaluator) evalSubscriptRead(node *ast.Binary, ctx *runtime.Context) (runtime.Value, outcome, error) {
	collV, _, err := e.step(node.Left, ctx)
	if err != nil {
		return nil, stepNormal, err
	}
	idxV, _, err := e.step(node.Right, ctx)
	if err != nil {
		return nil, stepNormal, err
	}
	return subscriptGet(collV, idxV, node.Ln)
}

func subscriptGet(coll, idx runtime.Value, line int) (runtime.Value, outcome, error) {
	switch c := coll.(type) {
	case *runtime.List:
		i, err := indexOf(idx, line)
		if err != nil {
			return nil, stepNormal, err
		}
		if i < 0 || i >= len(c.Elements) {
			return nil, stepNormal, serr.RuntimeError{Line: line, Msg: "list index out of range"}
		}
		return c.Elements[i], stepNormal, nil
	case *runtime.Dict:
		key, err := keyOf(idx, line)
		if err != nil {
			return nil, stepNormal, err
		}
		v, ok := c.Get(key)
		if !ok {
			return nil, stepNormal, serr.ObjectResolutionError{Line: line, Name: key}
		}
		return v, stepNormal, nil
	default:
		return nil, stepNormal, serr.RuntimeError{Line: line, Msg: "value is not subscriptable"}
	}
}

func indexOf(v runtime.Value, line int) (int, error) {
	n, ok := v.(runtime.Number)
	if !ok {
		return 0, serr.RuntimeError{Line: line, Msg: "list index must be a number"}
	}
	return int(n.D.IntPart()), nil
}

func keyOf(v runtime.Value, line int) (string, error) {
	s, ok := v.(runtime.Str)
	if !ok {
		return "", serr.RuntimeError{Line: line, Msg: "dict key must be a string"}
	}
	return s.S, nil
}

// evalAssign implements §4.6's Binary(Assign, L, R) case: the left operand
// is either a Variable or a Subscript(target, index) node (enforced by the
// parser, §3's invariant), never anything else.
func (e *Evaluator) evalAssign(node *ast.Binary, ctx *runtime.Context) (runtime.Value, outcome, error) {
	val, _, err := e.step(node.Right, ctx)
	if err != nil {
		return nil, stepNormal, err
	}

	switch left := node.Left.(type) {
	case *ast.Variable:
		ctx.Bindings[left.Name] = val
		return val, stepNormal, nil

	case *ast.Binary:
		if left.Op != ast.OpSubscript {
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "invalid assignment target"}
		}
		targetV, _, err := e.step(left.Left, ctx)
		if err != nil {
			return nil, stepNormal, err
		}
		idxV, _, err := e.step(left.Right, ctx)
		if err != nil {
			return nil, stepNormal, err
		}
		switch t := targetV.(type) {
		case *runtime.List:
			i, err := indexOf(idxV, node.Ln)
			if err != nil {
				return nil, stepNormal, err
			}
			if i < 0 || i >= len(t.Elements) {
				return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "list index out of range"}
			}
			t.Elements[i] = val
		case *runtime.Dict:
			key, err := keyOf(idxV, node.Ln)
			if err != nil {
				return nil, stepNormal, err
			}
			t.Set(key, val)
		default:
			return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "value is not subscriptable"}
		}
		return val, stepNormal, nil

	default:
		return nil, stepNormal, serr.RuntimeError{Line: node.Ln, Msg: "invalid assignment target"}
	}
}
