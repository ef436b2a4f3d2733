package natives

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/cwbudde/saulscript/internal/runtime"
)

func call(t *testing.T, fn runtime.NativeFunc, args ...runtime.Value) runtime.Value {
	t.Helper()
	v, err := fn(args)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return v
}

func str(t *testing.T, v runtime.Value) string {
	t.Helper()
	s, ok := v.(runtime.Str)
	if !ok {
		t.Fatalf("expected a string, got %#v", v)
	}
	return s.S
}

func TestJSONEncodeScalars(t *testing.T) {
	tests := []struct {
		name string
		v    runtime.Value
		want string
	}{
		{"number", runtime.Number{D: decimal.NewFromInt(42)}, "42"},
		{"string", runtime.Str{S: `hi "there"`}, `"hi \"there\""`},
		{"bool true", runtime.Bool{B: true}, "true"},
		{"bool false", runtime.Bool{B: false}, "false"},
		{"unit", runtime.Unit{}, "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := str(t, call(t, jsonEncode, tt.v))
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONEncodeListOfScalars(t *testing.T) {
	list := runtime.NewList([]runtime.Value{
		runtime.Number{D: decimal.NewFromInt(1)},
		runtime.Str{S: "two"},
		runtime.Bool{B: true},
	})
	got := str(t, call(t, jsonEncode, list))
	want := `[1,"two",true]`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJSONEncodeDictWithNestedList(t *testing.T) {
	d := runtime.NewDict()
	d.Set("name", runtime.Str{S: "Ada"})
	d.Set("scores", runtime.NewList([]runtime.Value{
		runtime.Number{D: decimal.NewFromInt(10)},
		runtime.Number{D: decimal.NewFromInt(20)},
	}))

	got := str(t, call(t, jsonEncode, d))
	want := `{"name":"Ada","scores":[10,20]}`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestJSONDecodeRoundTripsThroughEncode(t *testing.T) {
	d := runtime.NewDict()
	d.Set("ok", runtime.Bool{B: true})
	d.Set("count", runtime.Number{D: decimal.NewFromInt(3)})

	encoded := str(t, call(t, jsonEncode, d))
	decoded := call(t, jsonDecode, runtime.Str{S: encoded})

	back, ok := decoded.(*runtime.Dict)
	if !ok {
		t.Fatalf("expected a dict, got %#v", decoded)
	}
	ok1, present := back.Get("ok")
	if !present || ok1.(runtime.Bool).B != true {
		t.Fatalf("expected ok=true, got %#v", ok1)
	}
	count, present := back.Get("count")
	if !present || count.(runtime.Number).D.String() != "3" {
		t.Fatalf("expected count=3, got %#v", count)
	}
}

func TestJSONEncodeDictKeyWithPathSyntaxCharacters(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"a.b", `{"a.b":1}`},
		{"a*b", `{"a*b":1}`},
		{"a?b", `{"a?b":1}`},
		{"a#b", `{"a#b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			d := runtime.NewDict()
			d.Set(tt.key, runtime.Number{D: decimal.NewFromInt(1)})
			got := str(t, call(t, jsonEncode, d))
			if got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONDecodeList(t *testing.T) {
	decoded := call(t, jsonDecode, runtime.Str{S: `[1, 2, 3]`})
	list, ok := decoded.(*runtime.List)
	if !ok || len(list.Elements) != 3 {
		t.Fatalf("expected a 3-element list, got %#v", decoded)
	}
	if list.Elements[1].(runtime.Number).D.String() != "2" {
		t.Fatalf("expected second element 2, got %s", list.Elements[1].String())
	}
}

func TestJSONDecodeInvalidJSONErrors(t *testing.T) {
	_, err := jsonDecode([]runtime.Value{runtime.Str{S: ""}})
	if err == nil {
		t.Fatal("expected an error for empty/invalid JSON")
	}
}

func TestJSONEncodeWrongArgCountErrors(t *testing.T) {
	if _, err := jsonEncode(nil); err == nil {
		t.Fatal("expected an error for zero arguments")
	}
	if _, err := jsonEncode([]runtime.Value{runtime.Bool{B: true}, runtime.Bool{B: false}}); err == nil {
		t.Fatal("expected an error for too many arguments")
	}
}
