package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
)

const doc = `swagger: "2.0"
info:
  title: Users
  version: "1"
paths:
  /users/{id}:
    get:
      operationId: getUser
      tags: [users]
      description: "Get   one
        user"
      parameters:
        - $ref: "#/parameters/id"
  /content:
    get:
      operationId: getContents
      tags: [content]
      responses:
        NotFound:
          $ref: "#/responses/NotFound"
parameters:
  id:
    name: id
    in: path
    required: true
    type: string
responses:
  NotFound:
    description: not found
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	for _, name := range []string{server.EnvSwaggerFile, server.EnvDatabaseURL, server.EnvBaseURL, server.EnvBaseURLFallback} {
		t.Setenv(name, "")
	}
	c := New()
	var out bytes.Buffer
	c.rootCmd.SetOut(&out)
	c.rootCmd.SetErr(&out)
	c.rootCmd.SetArgs(append(args, "--log-level", "error", "--env-file", ""))
	err := c.Execute(context.Background())
	return out.String(), err
}

func writeDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestToolsCommand(t *testing.T) {
	out, err := run(t, "tools", "-f", writeDoc(t), "--base-url", "https://api.example.com/")
	require.NoError(t, err)

	var tools []openapi2mcp.Tool
	require.NoError(t, json.Unmarshal([]byte(out), &tools))
	require.Len(t, tools, 2)
	assert.Equal(t, "getContents", tools[0].Name)
	assert.Equal(t, "getUser", tools[1].Name)
	assert.Equal(t, "Get one user", tools[1].Description)
	assert.Equal(t, []any{"id"}, tools[1].InputSchema["required"])
}

func TestToolsCommand_Filters(t *testing.T) {
	out, err := run(t, "tools", "-f", writeDoc(t), "--tag", "users", "--summary")
	require.NoError(t, err)
	assert.Equal(t, "Total tools: 1\nTags:\n  users: 1\n", out)

	out, err = run(t, "tools", "-f", writeDoc(t), "--include", "getContents")
	require.NoError(t, err)
	assert.Contains(t, out, `"getContents"`)
	assert.NotContains(t, out, `"getUser"`)
}

func TestToolsCommand_NoSource(t *testing.T) {
	_, err := run(t, "tools")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no document source")
}

func TestExpandCommand(t *testing.T) {
	input := writeDoc(t)
	output := filepath.Join(t.TempDir(), "expanded.yaml")

	_, err := run(t, "expand", input, output)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var expanded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &expanded))

	paths := expanded["paths"].(map[string]any)
	get := paths["/users/{id}"].(map[string]any)["get"].(map[string]any)
	assert.Equal(t, "Get one user", get["description"])
	param := get["parameters"].([]any)[0].(map[string]any)
	assert.Equal(t, "id", param["name"])

	content := paths["/content"].(map[string]any)["get"].(map[string]any)
	notFound := content["responses"].(map[string]any)["NotFound"].(map[string]any)
	assert.Equal(t, "#/responses/NotFound", notFound["$ref"])

	out, err := run(t, "expand", input)
	require.NoError(t, err)
	assert.Contains(t, out, "operationId: getUser")
}
