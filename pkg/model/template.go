package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/surgeproj/surge/pkg/script"
)

// Header is a single header name/value pair. Templates keep headers as a
// list rather than a map so a repeated name (e.g. two Set-Cookie-style
// headers) survives compilation.
type Header struct {
	Name  string
	Value string
}

// RequestTemplate is a request definition, parsed and pre-compiled once at
// config-load time. NewHTTPRequest is called once per dispatch.
type RequestTemplate struct {
	Name    string
	Method  string
	Path    string
	Headers []Header
	Body    string // optional, may be empty
	Timeout time.Duration // resolved once at config-build time

	Before *script.Program // optional
	After  *script.Program // optional

	pathPlaceholders []string
	bodyPlaceholders []string
}

// NewRequestTemplate pre-computes the placeholder lists for path and body,
// exposed through PathPlaceholders and BodyPlaceholders. NewHTTPRequest does
// not consult these lists; it resolves placeholders by scanning the template
// text on every call.
func NewRequestTemplate(name, method, path string, headers []Header, body string, timeout time.Duration, before, after *script.Program) *RequestTemplate {
	return &RequestTemplate{
		Name:             name,
		Method:           method,
		Path:             path,
		Headers:          headers,
		Body:             body,
		Timeout:          timeout,
		Before:           before,
		After:            after,
		pathPlaceholders: findPlaceholders(path),
		bodyPlaceholders: findPlaceholders(body),
	}
}

// PathPlaceholders returns the ${name} tokens found in Path at compile time.
func (t *RequestTemplate) PathPlaceholders() []string { return t.pathPlaceholders }

// BodyPlaceholders returns the ${name} tokens found in Body at compile time.
func (t *RequestTemplate) BodyPlaceholders() []string { return t.bodyPlaceholders }

// findPlaceholders scans for ${name} tokens, hand-walking braces rather than
// using a regex so the grammar stays easy to reason about and extend.
func findPlaceholders(s string) []string {
	var out []string
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 >= len(s) || s[i+1] != '{' {
			continue
		}
		end := strings.IndexByte(s[i+2:], '}')
		if end < 0 {
			break
		}
		out = append(out, s[i+2:i+2+end])
		i += 2 + end
	}
	return out
}

// substitute replaces every ${name} occurrence in s with ctx.must_get(name)
// rendered as a string. A placeholder with no resolvable variable fails the
// whole substitution with a ScriptError.
func substitute(s string, resolve func(name string) (string, error)) (string, error) {
	var sb strings.Builder
	sb.Grow(len(s))
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end >= 0 {
				name := s[i+2 : i+2+end]
				v, err := resolve(name)
				if err != nil {
					return "", err
				}
				sb.WriteString(v)
				i += 2 + end + 1
				continue
			}
		}
		sb.WriteByte(s[i])
		i++
	}
	return sb.String(), nil
}

// NewHTTPRequest materializes a ready-to-send HTTPRequest: body placeholders
// are substituted then JSON-validated, path placeholders are substituted
// then concatenated onto baseURL.
func (t *RequestTemplate) NewHTTPRequest(ctx *script.Context, baseURL string) (*HTTPRequest, error) {
	resolve := func(name string) (string, error) {
		v, err := ctx.MustGet(name)
		if err != nil {
			return "", err
		}
		return v.AsString()
	}

	var body []byte
	if t.Body != "" {
		rendered, err := substitute(t.Body, resolve)
		if err != nil {
			return nil, err
		}
		var js any
		if err := json.Unmarshal([]byte(rendered), &js); err != nil {
			return nil, script.NewScriptError("request body is not valid JSON: %s", err)
		}
		body = []byte(rendered)
	}

	path, err := substitute(t.Path, resolve)
	if err != nil {
		return nil, err
	}

	headers := make([]Header, len(t.Headers))
	copy(headers, t.Headers)

	return &HTTPRequest{
		Method:  t.Method,
		URI:     baseURL + path,
		Headers: headers,
		Body:    body,
		Timeout: t.Timeout,
	}, nil
}
