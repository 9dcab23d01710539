// server.go
package openapi2mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// NewServer creates a new MCP server with one tool per entry of the invoker's table.
// Example usage for NewServer:
//
//	srv := openapi2mcp.NewServer("connect", "1.0.0", inv)
//	openapi2mcp.ServeStdio(ctx, srv)
func NewServer(name, version string, inv *Invoker) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: name, Version: version}, nil)
	RegisterTools(srv, inv)
	inv.logger.Info("registered tools on MCP server",
		zap.String("server", name), zap.Int("tools", inv.Table().Len()))
	return srv
}

// RegisterTools adds every tool of the invoker's table to srv.
func RegisterTools(srv *mcp.Server, inv *Invoker) {
	for _, tool := range inv.Table().Tools() {
		srv.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, toolHandler(inv, tool.Name))
	}
}

// toolHandler answers a tool call with the upstream response text. Argument and usage problems
// are returned as plain text; transport failures become an error result.
func toolHandler(inv *Invoker, name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := decodeArguments(req.Params.Arguments)
		if err != nil {
			return errorResult(err), nil
		}
		text, err := inv.HandleOperation(ctx, name, args)
		if err != nil {
			return errorResult(err), nil
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}, nil
	}
}

func decodeArguments(raw json.RawMessage) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("tool arguments must be a JSON object: %w", err)
	}
	return args, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: ErrorText(err)}},
	}
}

// ServeStdio runs the MCP server over stdin/stdout until the client disconnects or ctx is done.
func ServeStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// HandlerForStreamableHTTP returns an http.Handler serving MCP over streamable HTTP.
// pick is called per request, so the served server can be swapped at runtime or chosen by path.
// A nil result rejects the request.
// Example usage:
//
//	handler := openapi2mcp.HandlerForStreamableHTTP(func(*http.Request) *mcp.Server { return srv })
//	mux.Handle("/mcp", handler)
func HandlerForStreamableHTTP(pick func(*http.Request) *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(pick, nil)
}

// GetStreamableHTTPURL returns the URL for the Streamable HTTP endpoint of the MCP server.
// addr is the address the server is listening on (e.g., ":8080", "0.0.0.0:8080", "localhost:8080").
// basePath is the base HTTP path (e.g., "/mcp").
// Example usage:
//
//	url := openapi2mcp.GetStreamableHTTPURL(":8080", "/custom-base")
//	// Returns: "http://localhost:8080/custom-base"
func GetStreamableHTTPURL(addr, basePath string) string {
	if basePath == "" {
		basePath = "/mcp"
	}
	host := normalizeAddrToHost(addr)
	return "http://" + host + basePath
}

// normalizeAddrToHost converts an addr (as used by net/http) to a host:port string suitable for URLs.
// If addr is just ":8080", returns "localhost:8080". If it already includes a host, returns as is.
func normalizeAddrToHost(addr string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "localhost"
	}
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
