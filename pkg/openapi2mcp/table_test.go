package openapi2mcp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

const connectDoc = `
swagger: "2.0"
info:
  title: Connect
  version: "1.0"
paths:
  /users/{guid}:
    get:
      operationId: getUser
      tags: [users]
      description: Get user details.
      parameters:
        - name: guid
          in: path
          required: true
          type: string
  /users:
    get:
      operationId: searchUsers
      tags: [users]
      summary: Search users.
      parameters:
        - name: prefix
          in: query
          type: string
        - name: page_size
          in: query
          type: integer
    post:
      operationId: createUser
      tags: [users, admin]
      parameters:
        - name: X-Trace
          in: header
          type: string
        - name: user
          in: body
          required: true
          schema:
            $ref: '#/definitions/NewUser'
  /content:
    get:
      operationId: getContents
      tags: [content]
definitions:
  NewUser:
    type: object
    properties:
      username: {type: string}
      first_name: {type: string}
    required: [username]
`

func connectOperations(t *testing.T) *swagger.Operations {
	t.Helper()
	doc, err := swagger.Parse([]byte(connectDoc))
	require.NoError(t, err)
	doc, err = swagger.Resolve(doc)
	require.NoError(t, err)
	return swagger.ExtractOperations(doc)
}

func TestNewToolTable_AllOperations(t *testing.T) {
	table := NewToolTable(connectOperations(t), nil, nil)

	assert.Equal(t, []string{"getContents", "searchUsers", "createUser", "getUser"}, table.Names())
	assert.Equal(t, 4, table.Len())

	tool, ok := table.Tool("searchUsers")
	require.True(t, ok)
	assert.Equal(t, "Search users.", tool.Description)
	props := tool.InputSchema["properties"].(map[string]any)
	assert.Equal(t, "integer", props["page_size"].(map[string]any)["type"])

	create, ok := table.Tool("createUser")
	require.True(t, ok)
	user := create.InputSchema["properties"].(map[string]any)["user"].(map[string]any)
	assert.Contains(t, user["properties"], "username")
	assert.Equal(t, []string{"user"}, create.InputSchema["required"])
}

func TestNewToolTable_Filters(t *testing.T) {
	ops := connectOperations(t)

	byTag := NewToolTable(ops, &ToolGenOptions{TagFilter: []string{"admin", "content"}}, nil)
	assert.Equal(t, []string{"getContents", "createUser"}, byTag.Names())

	included := NewToolTable(ops, &ToolGenOptions{Include: []string{"getUser", "nope"}}, nil)
	assert.Equal(t, []string{"getUser"}, included.Names())
}

func TestNewToolTable_LogsUnroutableParameters(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewToolTable(connectOperations(t), nil, zap.New(core))

	entries := logs.FilterMessage("parameter is described but not sent").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "X-Trace", entries[0].ContextMap()["parameter"])
	assert.Equal(t, "header", entries[0].ContextMap()["in"])
}

func TestNewToolTable_PostProcessSchema(t *testing.T) {
	table := NewToolTable(connectOperations(t), &ToolGenOptions{
		PostProcessSchema: func(name string, schema map[string]any) map[string]any {
			schema["additionalProperties"] = false
			return schema
		},
	}, nil)

	tool, _ := table.Tool("getUser")
	assert.Equal(t, false, tool.InputSchema["additionalProperties"])
}

func TestToolTable_Lookup(t *testing.T) {
	table := NewToolTable(connectOperations(t), nil, nil)

	op, params, err := table.Lookup("getUser")
	require.NoError(t, err)
	assert.Equal(t, "/users/{guid}", op.Route)
	require.Len(t, params, 1)
	assert.IsType(t, PathParam{}, params[0])

	_, _, err = table.Lookup("deleteEverything")
	var unsupported *UnsupportedOperationError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "Operation 'deleteEverything' is not supported.", err.Error())
}

func TestToolTable_ValidateArguments(t *testing.T) {
	ops := connectOperations(t)

	t.Run("disabled", func(t *testing.T) {
		table := NewToolTable(ops, nil, nil)
		assert.NoError(t, table.ValidateArguments("getUser", nil))
	})

	t.Run("enabled", func(t *testing.T) {
		table := NewToolTable(ops, &ToolGenOptions{ValidateArguments: true}, nil)

		assert.NoError(t, table.ValidateArguments("getUser", map[string]any{"guid": "42"}))

		err := table.ValidateArguments("getUser", map[string]any{})
		var invalid *ArgumentValidationError
		require.True(t, errors.As(err, &invalid))
		assert.NotEmpty(t, invalid.Problems)
		assert.True(t, IsUsageError(err))

		err = table.ValidateArguments("createUser", map[string]any{"user": map[string]any{"first_name": "Matt"}})
		require.True(t, errors.As(err, &invalid))
	})
}

func TestPrintToolSummary(t *testing.T) {
	var buf bytes.Buffer
	PrintToolSummary(&buf, connectOperations(t).All())
	assert.Equal(t, "Total tools: 4\nTags:\n  admin: 1\n  content: 1\n  users: 3\n", buf.String())
}
