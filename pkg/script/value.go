// Package script implements the tiny def/assert scripting language used to
// build request templates and validate responses: a dynamic value tree, a
// layered local/global variable store, a pure function library and a
// line-oriented parser.
package script

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindList
	KindMap
	KindNull
)

// Value is a tagged sum of String, Int (32-bit signed), List, Map and Null,
// mirroring the dynamic value tree the embedded scripts operate on.
type Value struct {
	kind Kind
	str  string
	i    int32
	list []Value
	m    map[string]Value
}

func String(s string) Value { return Value{kind: KindString, str: s} }
func Int(i int32) Value     { return Value{kind: KindInt, i: i} }
func List(v []Value) Value  { return Value{kind: KindList, list: v} }
func Map(m map[string]Value) Value {
	return Value{kind: KindMap, m: m}
}
func Null() Value { return Value{kind: KindNull} }

func (v Value) Kind() Kind { return v.kind }

// AsString coerces the value to a string. Int is its decimal form, Null is
// the empty string; Map and List do not coerce.
func (v Value) AsString() (string, error) {
	switch v.kind {
	case KindString:
		return v.str, nil
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10), nil
	case KindNull:
		return "", nil
	case KindMap:
		return "", NewScriptError("Map cannot be converted to String")
	case KindList:
		return "", NewScriptError("List cannot be converted to String")
	default:
		return "", NewScriptError("unknown value kind")
	}
}

// AsInt coerces the value to an int32. Null coerces to zero; a String must
// parse as a base-10 integer.
func (v Value) AsInt() (int32, error) {
	switch v.kind {
	case KindInt:
		return v.i, nil
	case KindString:
		n, err := strconv.ParseInt(v.str, 10, 32)
		if err != nil {
			return 0, NewScriptError("String '%s' cannot be converted to Int", v.str)
		}
		return int32(n), nil
	case KindNull:
		return 0, nil
	case KindMap:
		return 0, NewScriptError("Map cannot be converted to Int")
	case KindList:
		return 0, NewScriptError("List cannot be converted to Int")
	default:
		return 0, NewScriptError("unknown value kind")
	}
}

// AsList coerces the value to a list. Null coerces to an empty list.
func (v Value) AsList() ([]Value, error) {
	switch v.kind {
	case KindString:
		return nil, NewScriptError("String '%s' cannot be converted to List", v.str)
	case KindInt:
		return nil, NewScriptError("Int '%d' cannot be converted to List", v.i)
	case KindMap:
		return nil, NewScriptError("Map cannot be converted to List")
	case KindList:
		return v.list, nil
	case KindNull:
		return nil, nil
	default:
		return nil, NewScriptError("unknown value kind")
	}
}

// AsMap coerces the value to a map. Null coerces to an empty map.
func (v Value) AsMap() (map[string]Value, error) {
	switch v.kind {
	case KindString:
		return nil, NewScriptError("String '%s' cannot be converted to Map", v.str)
	case KindInt:
		return nil, NewScriptError("Int '%d' cannot be converted to Map", v.i)
	case KindMap:
		return v.m, nil
	case KindList:
		return nil, NewScriptError("List cannot be converted to Map")
	case KindNull:
		return nil, nil
	default:
		return nil, NewScriptError("unknown value kind")
	}
}

// Clone deep-copies List/Map values; String/Int/Null are copied by value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		out := make([]Value, len(v.list))
		for i, e := range v.list {
			out[i] = e.Clone()
		}
		return List(out)
	case KindMap:
		out := make(map[string]Value, len(v.m))
		for k, e := range v.m {
			out[k] = e.Clone()
		}
		return Map(out)
	default:
		return v
	}
}

// Equal implements the assert == / != comparison.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		// Int/String are comparable as text so 'x == 123' style asserts
		// work regardless of which literal form was parsed.
		as, aerr := v.AsString()
		bs, berr := other.AsString()
		if aerr == nil && berr == nil && v.kind != KindMap && v.kind != KindList &&
			other.kind != KindMap && other.kind != KindList {
			return as == bs
		}
		return false
	}
	switch v.kind {
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.i == other.i
	case KindNull:
		return true
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, a := range v.m {
			b, ok := other.m[k]
			if !ok || !a.Equal(b) {
				return false
			}
		}
		return true
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// String renders the value for diagnostics (error messages, debug mode).
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(int64(v.i), 10)
	case KindNull:
		return "null"
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindMap:
		keys := make([]string, 0, len(v.m))
		for k := range v.m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s: %s", k, v.m[k].String())
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return ""
	}
}
