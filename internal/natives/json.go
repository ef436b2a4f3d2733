// Package natives implements the built-in native functions bound into every
// root Context by pkg/saulscript, grounded on §6's host-interface contract.
package natives

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/cwbudde/saulscript/internal/runtime"
)

// Register binds every native function this package provides into ctx.
func Register(ctx *runtime.Context) {
	ctx.BindFunction("json_encode", jsonEncode)
	ctx.BindFunction("json_decode", jsonDecode)
}

// jsonEncode serializes a script Value to a JSON string. Lists and Dicts
// are built one sjson path-set per element/key rather than through a single
// marshal call, so nesting composes without an intermediate Go struct;
// scalars render straight to their JSON literal.
func jsonEncode(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("json_encode expects exactly one argument")
	}
	out, err := encodeValue(args[0])
	if err != nil {
		return nil, err
	}
	return runtime.Str{S: out}, nil
}

func encodeValue(v runtime.Value) (string, error) {
	switch val := v.(type) {
	case runtime.Number:
		return val.D.String(), nil
	case runtime.Str:
		return strconv.Quote(val.S), nil
	case runtime.Bool:
		return strconv.FormatBool(val.B), nil
	case runtime.Unit:
		return "null", nil
	case *runtime.List:
		doc := "[]"
		for i, elem := range val.Elements {
			elemJSON, err := encodeValue(elem)
			if err != nil {
				return "", err
			}
			doc, err = sjson.SetRaw(doc, fmt.Sprintf("%d", i), elemJSON)
			if err != nil {
				return "", err
			}
		}
		return doc, nil
	case *runtime.Dict:
		doc := "{}"
		for _, key := range val.Keys() {
			member, _ := val.Get(key)
			memberJSON, err := encodeValue(member)
			if err != nil {
				return "", err
			}
			doc, err = sjson.SetRaw(doc, escapeSjsonKey(key), memberJSON)
			if err != nil {
				return "", err
			}
		}
		return doc, nil
	default:
		return "", fmt.Errorf("json_encode: unsupported value kind %q", v.Kind())
	}
}

// escapeSjsonKey backslash-escapes the characters sjson's path syntax treats
// specially (wildcards, separators, array/query modifiers) so a dict key
// like "a.b" or "a*b" sets a literal object member instead of being parsed
// as a nested path.
func escapeSjsonKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '\\', '.', '*', '?', '#', '@', '|':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// jsonDecode parses a JSON string into script Values using gjson, walking
// the parsed tree into Lists/Dicts/Numbers/Strs/Bools.
func jsonDecode(args []runtime.Value) (runtime.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("json_decode expects exactly one argument")
	}
	s, ok := args[0].(runtime.Str)
	if !ok {
		return nil, fmt.Errorf("json_decode expects a string argument")
	}
	result := gjson.Parse(s.S)
	if !result.Exists() {
		return nil, fmt.Errorf("json_decode: invalid JSON")
	}
	return decodeResult(result), nil
}

func decodeResult(r gjson.Result) runtime.Value {
	switch r.Type {
	case gjson.Null:
		return runtime.Unit{}
	case gjson.False:
		return runtime.Bool{B: false}
	case gjson.True:
		return runtime.Bool{B: true}
	case gjson.Number:
		d, err := decimal.NewFromString(r.Raw)
		if err != nil {
			d = decimal.NewFromFloat(r.Float())
		}
		return runtime.Number{D: d}
	case gjson.String:
		return runtime.Str{S: r.String()}
	case gjson.JSON:
		if r.IsArray() {
			var elems []runtime.Value
			r.ForEach(func(_, item gjson.Result) bool {
				elems = append(elems, decodeResult(item))
				return true
			})
			return runtime.NewList(elems)
		}
		d := runtime.NewDict()
		r.ForEach(func(key, item gjson.Result) bool {
			d.Set(key.String(), decodeResult(item))
			return true
		})
		return d
	default:
		return runtime.Unit{}
	}
}
