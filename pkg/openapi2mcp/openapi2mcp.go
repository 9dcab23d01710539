// Package openapi2mcp turns Swagger/OpenAPI operations into LLM-callable tools and executes
// tool calls as HTTP requests.
//
// Each operation with an operationId becomes one Tool whose input schema lists the operation's
// parameters as flat properties. A tool call carries a flat argument object; the router splits it
// back into path, query and body values and the executor sends exactly one request, returning the
// raw response text.
//
// # Quick Start
//
//	doc, _ := swagger.LoadFile("swagger.yaml")
//	doc, _ = swagger.Resolve(doc)
//	ops := swagger.ExtractOperations(doc)
//
//	table := openapi2mcp.NewToolTable(ops, nil, logger)
//	inv := openapi2mcp.NewInvoker(table, openapi2mcp.NewExecutor(), openapi2mcp.InvokerConfig{
//		BaseURL: "https://connect.example.com/__api__",
//		APIKey:  os.Getenv("API_KEY"),
//	})
//	text, err := inv.Invoke(ctx, "getUser", map[string]any{"guid": "42"})
//
// # Serving
//
// NewServer registers every tool of a table on a Model Context Protocol server which can be run
// over stdio (ServeStdio) or mounted as a streamable HTTP handler (HandlerForStreamableHTTP).
//
// # Limitations
//
// Only path, query and body parameters are routed. Header, formData and cookie parameters appear
// in the input schema but are never sent.
package openapi2mcp

// Tool is the LLM-facing description of one operation.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ToolGenOptions controls which operations become tools and how their schemas are finished.
//
// Include: only operations with these ids (if non-empty)
// TagFilter: only include operations with at least one of these tags (if non-empty)
// PostProcessSchema: optional hook to modify each tool's input schema before registration/output
// ValidateArguments: if true, arguments are checked against the input schema before routing
//
//	func(toolName string, schema map[string]any) map[string]any
type ToolGenOptions struct {
	Include           []string
	TagFilter         []string
	PostProcessSchema func(toolName string, schema map[string]any) map[string]any
	ValidateArguments bool
}
