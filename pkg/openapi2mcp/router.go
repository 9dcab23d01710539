package openapi2mcp

import "reflect"

// NamedValue is one routed argument.
type NamedValue struct {
	Name  string
	Value any
}

// APIParams holds the arguments of one call split by destination, in declaration order.
type APIParams struct {
	Path  []NamedValue
	Query []NamedValue
	Body  []NamedValue
}

// Values flattens a bucket into a map.
func Values(bucket []NamedValue) map[string]any {
	out := make(map[string]any, len(bucket))
	for _, nv := range bucket {
		out[nv.Name] = nv.Value
	}
	return out
}

// RouteArguments assigns each argument to the bucket of the parameter that declares it.
// Undeclared arguments and empty values (nil, "", empty list or map) are dropped. Parameters that
// are not path, query or body produce nothing. When a name is declared twice the last declaration
// decides where it goes.
func RouteArguments(args map[string]any, params []Parameter) APIParams {
	var out APIParams
	if len(args) == 0 {
		return out
	}

	declared := make(map[string]Parameter, len(params))
	for _, p := range params {
		declared[p.Core().Name] = p
	}

	seen := make(map[string]bool, len(params))
	for _, p := range params {
		name := p.Core().Name
		if seen[name] {
			continue
		}
		seen[name] = true

		value, ok := args[name]
		if !ok || isEmpty(value) {
			continue
		}
		nv := NamedValue{Name: name, Value: value}
		switch declared[name].(type) {
		case PathParam:
			out.Path = append(out.Path, nv)
		case QueryParam:
			out.Query = append(out.Query, nv)
		case BodyParam:
			out.Body = append(out.Body, nv)
		case OtherParam:
		}
	}
	return out
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
