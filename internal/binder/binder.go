// Package binder projects an HTTP response onto a script context: status
// code, multi-valued headers, and a recursive JSON body projection into the
// script value domain.
package binder

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/surgeproj/surge/pkg/model"
	"github.com/surgeproj/surge/pkg/script"
)

// FromResponse binds resp onto ctx, setting the reserved top-level names
// responseStatus, responseHeaders and (when the body parses as JSON)
// response.
func FromResponse(ctx *script.Context, resp *model.HTTPResponse) {
	ctx.SetLocal("responseStatus", script.Int(int32(resp.StatusCode)))
	ctx.SetLocal("responseHeaders", script.Map(projectHeaders(resp.Headers)))

	if len(resp.Body) > 0 && gjson.ValidBytes(resp.Body) {
		parsed := gjson.ParseBytes(resp.Body)
		ctx.SetLocal("response", projectJSON(parsed))
	}
}

func projectHeaders(headers map[string][]string) map[string]script.Value {
	out := make(map[string]script.Value, len(headers))
	for name, values := range headers {
		list := make([]script.Value, len(values))
		for i, v := range values {
			list[i] = script.String(v)
		}
		out[strings.ToLower(name)] = script.List(list)
	}
	return out
}

// projectJSON recursively converts a gjson.Result into a script.Value.
// Booleans and JSON null have no corresponding Value variant and project to
// Null, matching the original binder's behavior.
func projectJSON(r gjson.Result) script.Value {
	switch {
	case r.IsObject():
		m := make(map[string]script.Value)
		r.ForEach(func(key, value gjson.Result) bool {
			m[key.String()] = projectJSON(value)
			return true
		})
		return script.Map(m)
	case r.IsArray():
		var list []script.Value
		r.ForEach(func(_, value gjson.Result) bool {
			list = append(list, projectJSON(value))
			return true
		})
		return script.List(list)
	case r.Type == gjson.String:
		return script.String(r.String())
	case r.Type == gjson.Number:
		return script.Int(int32(r.Int()))
	default:
		// Bool, Null, and anything else project to Null.
		return script.Null()
	}
}
