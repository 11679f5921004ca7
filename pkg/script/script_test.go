package script

import (
	"strings"
	"testing"
	"time"
)

func newTestContext() *Context {
	return NewContext(NewGlobal())
}

func TestScriptingNow(t *testing.T) {
	ctx := newTestContext()
	prog, err := Parse("def now = now()")
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	now, _ := ctx.Get("now")
	s, _ := now.AsString()
	today := time.Now().UTC().Format("2006-01-02")
	if !strings.HasPrefix(s, today) {
		t.Fatalf("expected now %q to start with %q", s, today)
	}
}

func TestScriptingRandom(t *testing.T) {
	ctx := newTestContext()
	prog, err := Parse("def random = random(100,999)")
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Execute(ctx); err != nil {
		t.Fatal(err)
	}
	v, _ := ctx.Get("random")
	n, _ := v.AsInt()
	if n < 100 || n > 999 {
		t.Fatalf("random %d out of range", n)
	}
}

func TestScriptingExtractLocationHeader(t *testing.T) {
	ctx := newTestContext()
	prog, err := Parse(`
		def location = 'http://localhost:8080/chargingData/123'
		def index = location.lastIndexOf('/')
		def index = index + 1
		def chargingDataRef = location.substring(index)
	`)
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	loc, _ := ctx.Get("location")
	locStr, _ := loc.AsString()
	if locStr != "http://localhost:8080/chargingData/123" {
		t.Fatalf("unexpected location %q", locStr)
	}

	idx, _ := ctx.Get("index")
	idxN, _ := idx.AsInt()
	if idxN != 35 {
		t.Fatalf("expected index 35, got %d", idxN)
	}

	ref, _ := ctx.Get("chargingDataRef")
	refStr, _ := ref.AsString()
	if refStr != "123" {
		t.Fatalf("expected chargingDataRef '123', got %q", refStr)
	}
}

func TestScriptingAssertStatus(t *testing.T) {
	ctx := newTestContext()
	ctx.SetLocal("responseStatus", Int(200))

	prog, err := Parse("assert responseStatus == 200")
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Execute(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestScriptAssertHeaders(t *testing.T) {
	ctx := newTestContext()
	headers := map[string]Value{
		"contentType": List([]Value{String("application/json")}),
	}
	ctx.Set("responseHeaders", Map(headers))

	prog, err := Parse(`
		def contentTypes = responseHeaders['contentType']
		def contentType = contentTypes[0]
		assert contentType == 'application/json'
	`)
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Execute(ctx); err != nil {
		t.Fatal(err)
	}

	ct, _ := ctx.Get("contentType")
	s, _ := ct.AsString()
	if s != "application/json" {
		t.Fatalf("unexpected contentType %q", s)
	}
}

func TestAssertFailureIsAssertError(t *testing.T) {
	ctx := newTestContext()
	ctx.SetLocal("responseStatus", Int(200))

	prog, err := Parse("assert responseStatus == 500")
	if err != nil {
		t.Fatal(err)
	}
	err = prog.Execute(ctx)
	if err == nil {
		t.Fatal("expected assertion failure")
	}
	if _, ok := err.(*AssertError); !ok {
		t.Fatalf("expected *AssertError, got %T", err)
	}
}

func TestNestedVariableAccess(t *testing.T) {
	ctx := newTestContext()
	ctx.Set("responseHeaders", Map(map[string]Value{
		"content-type": List([]Value{String("application/json"), String("charset=utf-8")}),
	}))

	ref := ParseVariableRef("responseHeaders['content-type'][1]")
	v, err := ref.GetValue(ctx)
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.AsString()
	if s != "charset=utf-8" {
		t.Fatalf("expected charset=utf-8, got %q", s)
	}
}

func TestVariableMapKeyNotFound(t *testing.T) {
	ctx := newTestContext()
	ctx.Set("responseHeaders", Map(map[string]Value{
		"content-type": String("applicaiton/json"),
	}))

	ref := ParseVariableRef("responseHeaders['content-length']")
	_, err := ref.GetValue(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Script error: Key 'content-length' not found in map 'responseHeaders'"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestVariableListIndexOutOfRange(t *testing.T) {
	ctx := newTestContext()
	ctx.Set("numbers", List([]Value{Int(1), Int(2), Int(3)}))

	ref := ParseVariableRef("numbers[3]")
	_, err := ref.GetValue(ctx)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "Script error: Index '3' out of range in list 'numbers'"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestGlobalConditionalWrite(t *testing.T) {
	global := NewGlobal()
	ctx := NewContext(global)

	// Not yet declared in global: Set should not leak it there.
	ctx.Set("token", String("abc"))
	if _, ok := global.get("token"); ok {
		t.Fatal("expected token to not be visible in global before promotion")
	}

	ctx.PromoteLocalToGlobal()
	if v, ok := global.get("token"); !ok || v.String() != "abc" {
		t.Fatal("expected token in global after promotion")
	}

	// Now that it exists in global, a fresh per-request context can refresh it.
	req := NewContext(global)
	req.Set("token", String("def"))
	if v, ok := global.get("token"); !ok || v.String() != "def" {
		t.Fatal("expected global token refreshed to def")
	}

	// But a brand-new name from a request context still never leaks.
	req.Set("requestOnly", String("x"))
	if _, ok := global.get("requestOnly"); ok {
		t.Fatal("expected requestOnly to remain request-local")
	}
}

func TestLastIndexOfFunction(t *testing.T) {
	v, err := fnLastIndexOf([]Value{
		String("http://localhost:8080/test/v1/foo/12345"),
		String("/"),
	})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := v.AsInt()
	if n != 33 {
		t.Fatalf("expected 33, got %d", n)
	}
}

func TestLastIndexOfNoMatchReturnsZero(t *testing.T) {
	v, err := fnLastIndexOf([]Value{String("abc"), String("z")})
	if err != nil {
		t.Fatal(err)
	}
	n, _ := v.AsInt()
	if n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestSubstringCodepoints(t *testing.T) {
	v, err := fnSubstring([]Value{String("abcdef"), Int(1), Int(3)})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.AsString()
	if s != "bc" {
		t.Fatalf("expected 'bc', got %q", s)
	}

	v, err = fnSubstring([]Value{String("http://location:8080/test/v1/foo/123456"), Int(33)})
	if err != nil {
		t.Fatal(err)
	}
	s, _ = v.AsString()
	if s != "123456" {
		t.Fatalf("expected '123456', got %q", s)
	}
}

func TestSplitMethodCall(t *testing.T) {
	v, err := fnSplit([]Value{String("a,b,c"), String(","), String("1")})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.AsString()
	if s != "b" {
		t.Fatalf("expected 'b', got %q", s)
	}

	v, _ = fnSplit([]Value{String("a,b,c"), String(","), String("last")})
	s, _ = v.AsString()
	if s != "c" {
		t.Fatalf("expected 'c', got %q", s)
	}
}

func TestValueCoercion(t *testing.T) {
	if _, err := Map(nil).AsString(); err == nil {
		t.Fatal("expected map->string to error")
	}
	if _, err := List(nil).AsInt(); err == nil {
		t.Fatal("expected list->int to error")
	}
	s, err := Null().AsString()
	if err != nil || s != "" {
		t.Fatalf("expected null->string to be empty, got %q, %v", s, err)
	}
	n, err := Null().AsInt()
	if err != nil || n != 0 {
		t.Fatalf("expected null->int to be 0, got %d, %v", n, err)
	}
}

func TestBuiltinExtraFunctions(t *testing.T) {
	if _, err := fnUUID(nil); err != nil {
		t.Fatal(err)
	}
	v, err := fnMD5([]Value{String("abc")})
	if err != nil {
		t.Fatal(err)
	}
	s, _ := v.AsString()
	if s != "900150983cd24fb0d6963f7d28e17f72" {
		t.Fatalf("unexpected md5 %q", s)
	}
}
