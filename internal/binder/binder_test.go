package binder

import (
	"testing"

	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
)

func TestFromResponseHeaderExtraction(t *testing.T) {
	resp := &model.HTTPResponse{
		StatusCode: 200,
		Headers: map[string][]string{
			"Location": {"http://x/y/42", "http://x/y/43"},
		},
	}

	ctx := script.NewContext(script.NewGlobal())
	FromResponse(ctx, resp)

	prog, err := script.Parse(`
		def loc = responseHeaders['location'][0]
		def i = loc.lastIndexOf('/')
		def i = i + 1
		def ref = loc.substring(i)
		assert ref == '42'
	`)
	if err != nil {
		t.Fatal(err)
	}
	if err := prog.Execute(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestFromResponseJSONBody(t *testing.T) {
	resp := &model.HTTPResponse{
		StatusCode: 200,
		Headers:    map[string][]string{},
		Body:       []byte(`{"id": 7, "active": true, "tags": ["a","b"], "meta": null}`),
	}

	ctx := script.NewContext(script.NewGlobal())
	FromResponse(ctx, resp)

	v, ok := ctx.Get("response")
	if !ok {
		t.Fatal("expected response to be bound")
	}
	m, err := v.AsMap()
	if err != nil {
		t.Fatal(err)
	}
	id, _ := m["id"].AsInt()
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
	if m["active"].Kind() != script.KindNull {
		t.Fatalf("expected bool to project to Null, got %v", m["active"].Kind())
	}
	if m["meta"].Kind() != script.KindNull {
		t.Fatalf("expected json null to project to Null")
	}
	tags, err := m["tags"].AsList()
	if err != nil || len(tags) != 2 {
		t.Fatalf("expected 2 tags, got %v, %v", tags, err)
	}
}

func TestAssertStatusMismatch(t *testing.T) {
	resp := &model.HTTPResponse{StatusCode: 500, Headers: map[string][]string{}}
	ctx := script.NewContext(script.NewGlobal())
	FromResponse(ctx, resp)

	prog, err := script.Parse("assert responseStatus == 200")
	if err != nil {
		t.Fatal(err)
	}
	err = prog.Execute(ctx)
	if err == nil {
		t.Fatal("expected assert failure")
	}
	if _, ok := err.(*script.AssertError); !ok {
		t.Fatalf("expected *script.AssertError, got %T", err)
	}
}
