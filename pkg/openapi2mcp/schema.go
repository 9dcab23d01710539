// schema.go
package openapi2mcp

import (
	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

// DefaultDescription is used for parameters that carry no description of their own.
const DefaultDescription = "(No description provided)"

// BuildInputSchema builds the JSON Schema object a model fills in to call an operation.
// Every parameter becomes a top-level property; required parameters are listed in encounter order.
//
// Body parameters expose their whole schema, so a model sees the body's nested properties.
// Other parameters expose only a type and a description.
func BuildInputSchema(params []Parameter) map[string]any {
	properties := make(map[string]any, len(params))
	required := make([]string, 0)

	for _, p := range params {
		core := p.Core()
		switch v := p.(type) {
		case BodyParam:
			properties[core.Name] = bodyProperty(v)
		case PathParam:
			properties[core.Name] = simpleProperty(core, v.Type)
		case QueryParam:
			properties[core.Name] = simpleProperty(core, v.Type)
		case OtherParam:
			properties[core.Name] = simpleProperty(core, v.Type)
		}
		if core.Required {
			required = append(required, core.Name)
		}
	}

	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func simpleProperty(core ParamCore, typ string) map[string]any {
	desc := DefaultDescription
	if core.HasDescription {
		desc = core.Description
	}
	return map[string]any{
		"type":        typ,
		"description": desc,
	}
}

// bodyProperty copies the body schema and sets one description: the parameter's own,
// else the schema's, else the default.
func bodyProperty(p BodyParam) map[string]any {
	prop := swagger.Clone(p.Schema).(map[string]any)
	switch {
	case p.HasDescription:
		prop["description"] = p.Description
	case prop["description"] != nil:
	default:
		prop["description"] = DefaultDescription
	}
	return prop
}

// ToTool converts an operation into its tool description.
func ToTool(op swagger.OperationDefinition) Tool {
	return Tool{
		Name:        op.Name,
		Description: op.Description(),
		InputSchema: BuildInputSchema(ParseParameters(op.Parameters())),
	}
}
