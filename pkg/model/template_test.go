package model

import (
	"testing"
	"time"

	"github.com/surgeproj/surge/pkg/script"
)

func TestPlaceholderFidelity(t *testing.T) {
	tmpl := NewRequestTemplate("get-user", "GET", "/users/${id}/profile/${id}", nil, "", 5*time.Second, nil, nil)
	if got := tmpl.PathPlaceholders(); len(got) != 2 || got[0] != "id" || got[1] != "id" {
		t.Fatalf("unexpected placeholders: %v", got)
	}

	global := script.NewGlobal()
	ctx := script.NewContext(global)
	ctx.SetLocal("id", script.String("42"))

	req, err := tmpl.NewHTTPRequest(ctx, "http://api.test")
	if err != nil {
		t.Fatal(err)
	}
	want := "http://api.test/users/42/profile/42"
	if req.URI != want {
		t.Fatalf("got %q, want %q", req.URI, want)
	}
}

func TestBodyMustBeValidJSON(t *testing.T) {
	tmpl := NewRequestTemplate("create", "POST", "/things", nil, `{"id": ${id}}`, 5*time.Second, nil, nil)

	global := script.NewGlobal()
	ctx := script.NewContext(global)
	ctx.SetLocal("id", script.Int(7))

	req, err := tmpl.NewHTTPRequest(ctx, "http://api.test")
	if err != nil {
		t.Fatal(err)
	}
	if string(req.Body) != `{"id": 7}` {
		t.Fatalf("unexpected body %q", req.Body)
	}
}

func TestBodyPlaceholderMustResolve(t *testing.T) {
	tmpl := NewRequestTemplate("create", "POST", "/things", nil, `{"id": ${missing}}`, 5*time.Second, nil, nil)

	global := script.NewGlobal()
	ctx := script.NewContext(global)

	if _, err := tmpl.NewHTTPRequest(ctx, "http://api.test"); err == nil {
		t.Fatal("expected error for unresolved placeholder")
	}
}

func TestMalformedBodyIsScriptError(t *testing.T) {
	tmpl := NewRequestTemplate("create", "POST", "/things", nil, `{"id": ${id}`, 5*time.Second, nil, nil)

	global := script.NewGlobal()
	ctx := script.NewContext(global)
	ctx.SetLocal("id", script.Int(7))

	_, err := tmpl.NewHTTPRequest(ctx, "http://api.test")
	if err == nil {
		t.Fatal("expected JSON parse error")
	}
	if _, ok := err.(*script.ScriptError); !ok {
		t.Fatalf("expected *script.ScriptError, got %T", err)
	}
}
