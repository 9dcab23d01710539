// params.go
package openapi2mcp

import (
	"github.com/spf13/cast"
)

// ParamCore holds the fields every parameter kind shares.
type ParamCore struct {
	Name           string
	Description    string
	HasDescription bool
	Required       bool
}

// Parameter is one declared operation parameter. The concrete type is one of PathParam,
// QueryParam, BodyParam or OtherParam.
type Parameter interface {
	Core() ParamCore
	isParameter()
}

// PathParam is substituted into the route template.
type PathParam struct {
	ParamCore
	Type string
}

// QueryParam is sent in the query string.
type QueryParam struct {
	ParamCore
	Type string
}

// BodyParam contributes to the JSON request body. Schema is the parameter's resolved JSON Schema.
type BodyParam struct {
	ParamCore
	Schema map[string]any
}

// OtherParam is any parameter located elsewhere (header, formData, cookie, ...). It is described
// to the model but never routed.
type OtherParam struct {
	ParamCore
	In   string
	Type string
}

func (p PathParam) Core() ParamCore  { return p.ParamCore }
func (p QueryParam) Core() ParamCore { return p.ParamCore }
func (p BodyParam) Core() ParamCore  { return p.ParamCore }
func (p OtherParam) Core() ParamCore { return p.ParamCore }

func (PathParam) isParameter()  {}
func (QueryParam) isParameter() {}
func (BodyParam) isParameter()  {}
func (OtherParam) isParameter() {}

// ParseParameters converts an expanded parameter list into typed parameters.
// Entries that are not mappings are skipped.
func ParseParameters(raw []any) []Parameter {
	params := make([]Parameter, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		params = append(params, ParseParameter(m))
	}
	return params
}

// ParseParameter converts one expanded parameter object.
func ParseParameter(raw map[string]any) Parameter {
	core := ParamCore{
		Name:     cast.ToString(raw["name"]),
		Required: truthy(raw["required"]),
	}
	if desc, ok := raw["description"]; ok && desc != nil {
		core.Description = cast.ToString(desc)
		core.HasDescription = true
	}

	switch in := cast.ToString(raw["in"]); in {
	case "path":
		return PathParam{ParamCore: core, Type: simpleType(raw)}
	case "query":
		return QueryParam{ParamCore: core, Type: simpleType(raw)}
	case "body":
		schema, _ := raw["schema"].(map[string]any)
		if schema == nil {
			schema = map[string]any{}
		}
		return BodyParam{ParamCore: core, Schema: schema}
	default:
		return OtherParam{ParamCore: core, In: in, Type: simpleType(raw)}
	}
}

// simpleType prefers the OpenAPI 3 schema.type, then the Swagger 2.0 type, then "string".
func simpleType(raw map[string]any) string {
	if schema, ok := raw["schema"].(map[string]any); ok {
		if t := typeName(schema["type"]); t != "" {
			return t
		}
	}
	if t := typeName(raw["type"]); t != "" {
		return t
	}
	return "string"
}

// typeName handles the OpenAPI 3.1 list form (["string", "null"]) by taking the first non-null entry.
func typeName(v any) string {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if s := cast.ToString(item); s != "" && s != "null" {
				return s
			}
		}
		return ""
	}
	return cast.ToString(v)
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	b, err := cast.ToBoolE(v)
	if err != nil {
		return false
	}
	return b
}
