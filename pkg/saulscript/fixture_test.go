package saulscript

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/cwbudde/saulscript/internal/runtime"
)

// fixture pairs a short SaulScript program with a name used for both the
// sub-test and the on-disk snapshot file, mirroring the (source, expected)
// pairing CWBudde-go-dws's fixture_test.go reads from testdata/fixtures.
type fixture struct {
	name   string
	source string
}

var fixtures = []fixture{
	{
		name: "arithmetic_precedence",
		source: `total = 1 + 2 * 3
return total`,
	},
	{
		name: "fibonacci_via_loop",
		source: `a = 0
b = 1
n = 0
while n < 10
next = a + b
a = b
b = next
n = n + 1
end while
return a`,
	},
	{
		name: "list_accumulation",
		source: `xs = [1, 2, 3, 4, 5]
total = 0
for x in xs
total = total + x
end for
return total`,
	},
	{
		// Mutation goes through subscript assignment, not dot assignment:
		// isValidAssignTarget only accepts a Variable or a Subscript target
		// (§3's invariant), so `person.age = ...` is rejected by the parser.
		name: "dict_lookup_and_mutation",
		source: `person = {name: "Ada", age: 30}
person["age"] = person["age"] + 1
return person["age"]`,
	},
	{
		name: "function_call",
		source: `make_adder = function(n) { return n + 1 }
a = make_adder(41)
return a`,
	},
}

// serializeResult renders a sorted dump of every non-function binding left
// in ctx plus the final Value, giving go-snaps a deterministic text blob to diff (§2).
func serializeResult(ctx *runtime.Context, v runtime.Value, evalErr error) string {
	var b strings.Builder

	if evalErr != nil {
		fmt.Fprintf(&b, "error: %s\n", evalErr.Error())
		return b.String()
	}

	names := make([]string, 0, len(ctx.Bindings))
	for name := range ctx.Bindings {
		switch ctx.Bindings[name].(type) {
		case *runtime.ScriptFunction, *runtime.NativeFunction:
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintf(&b, "return: %s\n", v.String())
	fmt.Fprintln(&b, "bindings:")
	for _, name := range names {
		fmt.Fprintf(&b, "  %s = %s\n", name, ctx.Bindings[name].String())
	}
	return b.String()
}

func TestFixtures(t *testing.T) {
	for _, fx := range fixtures {
		t.Run(fx.name, func(t *testing.T) {
			engine := New(WithOpLimit(100000), WithTimeLimit(5))
			result, err := engine.Eval(fx.source)

			var v runtime.Value
			if result != nil {
				v = result.Value
			}
			snaps.MatchSnapshot(t, serializeResult(engine.ctx, v, err))
		})
	}
}
