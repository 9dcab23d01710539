package openapi2mcp

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startTestSession connects an in-memory client to a server built from inv.
func startTestSession(t *testing.T, inv *Invoker) *mcp.ClientSession {
	t.Helper()

	server := NewServer("connect-test", "test", inv)
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	done := make(chan error, 1)
	go func() {
		done <- server.Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = session.Close()
		cancel()
		<-done
	})
	return session
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestServer_ListTools(t *testing.T) {
	session := startTestSession(t, newTestInvoker(t, "http://127.0.0.1:1", nil))

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Tools))
	for _, tool := range result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"getContents", "searchUsers", "createUser", "getUser"}, names)
}

func TestServer_CallTool(t *testing.T) {
	session := startTestSession(t, newTestInvoker(t, echoUpstream(t).URL, nil))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "getUser",
		Arguments: map[string]any{"guid": "42"},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, "GET /users/42?", textOf(t, result))
}

func TestServer_CallTool_MissingPathParameterIsText(t *testing.T) {
	session := startTestSession(t, newTestInvoker(t, "http://127.0.0.1:1", nil))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "getUser",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Contains(t, textOf(t, result), "guid")
}

func TestServer_CallTool_TransportErrorIsErrorResult(t *testing.T) {
	upstream := httptest.NewServer(nil)
	base := upstream.URL
	upstream.Close()

	session := startTestSession(t, newTestInvoker(t, base, nil))

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "getUser",
		Arguments: map[string]any{"guid": "1"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textOf(t, result), "Error:")
}

func TestDecodeArguments(t *testing.T) {
	args, err := decodeArguments(nil)
	require.NoError(t, err)
	assert.Nil(t, args)

	args, err = decodeArguments([]byte(`{"guid":"42"}`))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"guid": "42"}, args)

	_, err = decodeArguments([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestGetStreamableHTTPURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080/mcp", GetStreamableHTTPURL(":8080", ""))
	assert.Equal(t, "http://0.0.0.0:9000/connect", GetStreamableHTTPURL("0.0.0.0:9000", "/connect"))
}
