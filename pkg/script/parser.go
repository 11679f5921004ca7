package script

import "strings"

// Op is an assert comparison operator.
type Op int

const (
	OpEqual Op = iota
	OpNotEqual
)

// Stmt is one parsed script line: either a def (compute and bind) or an
// assert (compare and fail the request on mismatch).
type Stmt interface {
	Execute(ctx *Context) error
}

// DefStmt assigns the result of calling Func with Args (resolved against
// ctx) to ReturnVar.
type DefStmt struct {
	ReturnVar string
	Fn        Func
	FnName    string
	Args      []VariableRef
}

func (s DefStmt) Execute(ctx *Context) error {
	args := make([]Value, len(s.Args))
	for i, a := range s.Args {
		v, err := a.GetValue(ctx)
		if err != nil {
			return err
		}
		args[i] = v
	}
	result, err := s.Fn(args)
	if err != nil {
		return err
	}
	ctx.Set(s.ReturnVar, result)
	return nil
}

// AssertStmt compares Lhs and Rhs with Op, failing with an AssertError on
// mismatch.
type AssertStmt struct {
	Lhs, Rhs VariableRef
	Op       Op
}

func (s AssertStmt) Execute(ctx *Context) error {
	lhs, err := s.Lhs.GetValue(ctx)
	if err != nil {
		return err
	}
	rhs, err := s.Rhs.GetValue(ctx)
	if err != nil {
		return err
	}
	eq := lhs.Equal(rhs)
	switch s.Op {
	case OpEqual:
		if !eq {
			return NewAssertError("expected %s == %s", lhs.String(), rhs.String())
		}
	case OpNotEqual:
		if eq {
			return NewAssertError("expected %s != %s", lhs.String(), rhs.String())
		}
	}
	return nil
}

// Program is a parsed, ordered sequence of statements sharing one context
// when executed.
type Program struct {
	stmts []Stmt
}

// Parse compiles raw script source: one statement per non-blank,
// non-comment (#) line, single-space-token-delimited per line.
func Parse(src string) (*Program, error) {
	var stmts []Stmt
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		stmt, err := parseLine(line)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return &Program{stmts: stmts}, nil
}

// Execute runs every statement in order against ctx, stopping at the first
// error (either a ScriptError or an AssertError).
func (p *Program) Execute(ctx *Context) error {
	for _, s := range p.stmts {
		if err := s.Execute(ctx); err != nil {
			return err
		}
	}
	return nil
}

func parseLine(line string) (Stmt, error) {
	parts := strings.Split(line, " ")
	if len(parts) < 4 {
		return nil, NewScriptError("invalid script, expected at least 4 parts")
	}
	switch parts[0] {
	case "def":
		return parseDef(parts)
	case "assert":
		return parseAssert(parts)
	default:
		return nil, NewScriptError("invalid script, expected 'def' or 'assert'")
	}
}

func parseAssert(parts []string) (Stmt, error) {
	var op Op
	switch parts[2] {
	case "==":
		op = OpEqual
	case "!=":
		op = OpNotEqual
	default:
		return nil, NewScriptError("invalid script, operator '==' or '!=' expected")
	}
	return AssertStmt{
		Lhs: ParseVariableRef(parts[1]),
		Rhs: ParseVariableRef(parts[3]),
		Op:  op,
	}, nil
}

func parseDef(parts []string) (Stmt, error) {
	if parts[2] != "=" {
		return nil, NewScriptError("invalid script, expected '='")
	}

	var fnName string
	var args []VariableRef

	switch len(parts) {
	case 4:
		rhs := parts[3]
		if name, receiver, argStr, ok := splitMethodCall(rhs); ok {
			fnName = name
			args = append(args, ParseVariableRef(receiver))
			args = append(args, parseArgList(argStr)...)
		} else if name, argStr, ok := splitCall(rhs); ok {
			fnName = name
			args = parseArgList(argStr)
		} else {
			fnName = "copy"
			args = []VariableRef{ParseVariableRef(rhs)}
		}
	case 6:
		if parts[4] != "+" {
			return nil, NewScriptError("invalid script, only '+' operator is supported")
		}
		fnName = "plus"
		args = []VariableRef{ParseVariableRef(parts[3]), ParseVariableRef(parts[5])}
	default:
		return nil, NewScriptError("invalid script, expected function")
	}

	fn, ok := Functions[fnName]
	if !ok {
		return nil, NewScriptError("invalid script, function '%s' not found", fnName)
	}

	return DefStmt{
		ReturnVar: parts[1],
		Fn:        fn,
		FnName:    fnName,
		Args:      args,
	}, nil
}

// splitMethodCall recognizes receiver.func(args), e.g.
// location.substring(index) or contentType.split(';',0). It requires
// exactly one '.' outside of parens, matching the original grammar's
// location.substring(...) shape.
func splitMethodCall(rhs string) (fnName, receiver, argStr string, ok bool) {
	dot := strings.IndexByte(rhs, '.')
	if dot < 0 {
		return "", "", "", false
	}
	receiver = rhs[:dot]
	rest := rhs[dot+1:]
	if strings.ContainsAny(receiver, "()") {
		return "", "", "", false
	}
	open := strings.IndexByte(rest, '(')
	if open < 0 || !strings.HasSuffix(rest, ")") {
		return "", "", "", false
	}
	fnName = rest[:open]
	argStr = rest[open+1 : len(rest)-1]
	return fnName, receiver, argStr, true
}

// splitCall recognizes a bare call, e.g. now() or random(100,999).
func splitCall(rhs string) (fnName, argStr string, ok bool) {
	open := strings.IndexByte(rhs, '(')
	if open < 0 || !strings.HasSuffix(rhs, ")") {
		return "", "", false
	}
	fnName = rhs[:open]
	if fnName == "" {
		return "", "", false
	}
	argStr = rhs[open+1 : len(rhs)-1]
	return fnName, argStr, true
}

func parseArgList(argStr string) []VariableRef {
	if strings.TrimSpace(argStr) == "" {
		return nil
	}
	parts := strings.Split(argStr, ",")
	refs := make([]VariableRef, len(parts))
	for i, p := range parts {
		refs[i] = ParseVariableRef(strings.TrimSpace(p))
	}
	return refs
}
