package script

import (
	"strconv"
	"strings"
)

// AccessorKind distinguishes the two link types that can appear in a chained
// variable reference such as headers['content-type'][0].
type AccessorKind int

const (
	AccessMap AccessorKind = iota
	AccessList
)

// Accessor is one link in a NestedVariables chain.
type Accessor struct {
	Kind  AccessorKind
	Key   string // valid when Kind == AccessMap
	Index int32  // valid when Kind == AccessList
}

// VariableRef is a parsed reference to either a literal value or a value
// reachable from the script context, possibly through a chain of map/list
// accessors (responseHeaders['content-type'][0]).
type VariableRef struct {
	constant   *Value
	name       string
	accessors  []Accessor
}

// ParseVariableRef parses a single token from script source into a
// VariableRef. It recognizes, in order: a quoted string constant ('hello'),
// a bracket-chained reference (name['key'][0]...), an integer constant, and
// otherwise a plain variable name.
func ParseVariableRef(tok string) VariableRef {
	if len(tok) >= 2 && strings.HasPrefix(tok, "'") && strings.HasSuffix(tok, "'") {
		v := String(tok[1 : len(tok)-1])
		return VariableRef{constant: &v}
	}

	if name, accessors, ok := parseChain(tok); ok {
		return VariableRef{name: name, accessors: accessors}
	}

	if n, err := strconv.ParseInt(tok, 10, 32); err == nil {
		v := Int(int32(n))
		return VariableRef{constant: &v}
	}

	return VariableRef{name: tok}
}

// parseChain hand-walks a token looking for a root identifier followed by
// zero or more ['key'] or [index] accessors. It returns ok == false (and the
// caller falls through to plain-variable handling) unless at least one
// accessor was found, matching the original single-level regexes while
// generalizing to arbitrary chain depth.
func parseChain(tok string) (string, []Accessor, bool) {
	i := 0
	for i < len(tok) && isIdentChar(tok[i]) {
		i++
	}
	if i == 0 || i >= len(tok) || tok[i] != '[' {
		return "", nil, false
	}
	name := tok[:i]

	var accessors []Accessor
	for i < len(tok) {
		if tok[i] != '[' {
			return "", nil, false
		}
		i++ // consume '['
		if i < len(tok) && tok[i] == '\'' {
			end := strings.IndexByte(tok[i+1:], '\'')
			if end < 0 {
				return "", nil, false
			}
			key := tok[i+1 : i+1+end]
			i = i + 1 + end + 1
			if i >= len(tok) || tok[i] != ']' {
				return "", nil, false
			}
			i++
			accessors = append(accessors, Accessor{Kind: AccessMap, Key: key})
		} else {
			start := i
			for i < len(tok) && tok[i] != ']' {
				i++
			}
			if i >= len(tok) {
				return "", nil, false
			}
			idx, err := strconv.ParseInt(tok[start:i], 10, 32)
			if err != nil {
				return "", nil, false
			}
			i++
			accessors = append(accessors, Accessor{Kind: AccessList, Index: int32(idx)})
		}
	}
	if len(accessors) == 0 {
		return "", nil, false
	}
	return name, accessors, true
}

func isIdentChar(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// GetValue resolves the reference against a context.
func (r VariableRef) GetValue(ctx *Context) (Value, error) {
	if r.constant != nil {
		return r.constant.Clone(), nil
	}

	v, err := ctx.MustGet(r.name)
	if err != nil {
		return Value{}, err
	}

	cur := v
	for _, acc := range r.accessors {
		switch acc.Kind {
		case AccessMap:
			m, err := cur.AsMap()
			if err != nil {
				return Value{}, err
			}
			next, ok := m[acc.Key]
			if !ok {
				return Value{}, NewScriptError("Key '%s' not found in map '%s'", acc.Key, r.name)
			}
			cur = next
		case AccessList:
			list, err := cur.AsList()
			if err != nil {
				return Value{}, err
			}
			if acc.Index < 0 || int(acc.Index) >= len(list) {
				return Value{}, NewScriptError("Index '%d' out of range in list '%s'", acc.Index, r.name)
			}
			cur = list[acc.Index]
		}
	}
	return cur.Clone(), nil
}

// Name returns the root variable name referenced, or "" for a constant.
func (r VariableRef) Name() string { return r.name }

// IsConstant reports whether the reference is a literal value.
func (r VariableRef) IsConstant() bool { return r.constant != nil }
