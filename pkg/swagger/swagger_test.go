package swagger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		doc, err := Parse([]byte(`{"swagger":"2.0","paths":{}}`))
		require.NoError(t, err)
		assert.Equal(t, "2.0", doc["swagger"])
	})

	t.Run("yaml with non-string keys", func(t *testing.T) {
		doc, err := Parse([]byte("openapi: 3.0.0\npaths:\n  /a:\n    get:\n      responses:\n        200:\n          description: ok\n"))
		require.NoError(t, err)
		responses := doc["paths"].(map[string]any)["/a"].(map[string]any)["get"].(map[string]any)["responses"].(map[string]any)
		assert.Contains(t, responses, "200")
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Parse([]byte("  \n"))
		assert.Error(t, err)
	})

	t.Run("non-mapping root", func(t *testing.T) {
		_, err := Parse([]byte("- a\n- b\n"))
		assert.Error(t, err)
	})

	t.Run("broken json", func(t *testing.T) {
		_, err := Parse([]byte(`{"swagger":`))
		assert.Error(t, err)
	})
}

func TestCleanText(t *testing.T) {
	doc := Document{
		"info": map[string]any{
			"description": "  Line one\n\n   line\ttwo\u00a0 ",
			"x-count":     3,
		},
		"tags": []any{" a  b ", "c"},
		"  key  ": "x",
	}

	cleaned := CleanText(doc)
	assert.Equal(t, "Line one line two", cleaned["info"].(map[string]any)["description"])
	assert.Equal(t, 3, cleaned["info"].(map[string]any)["x-count"])
	assert.Equal(t, []any{"a b", "c"}, cleaned["tags"])
	assert.Contains(t, cleaned, "  key  ")

	assert.Equal(t, cleaned, CleanText(cleaned))
	assert.Equal(t, "  Line one\n\n   line\ttwo\u00a0 ", doc["info"].(map[string]any)["description"])
}

func TestExtractOperations(t *testing.T) {
	doc := Document{
		"paths": map[string]any{
			"/users/{guid}": map[string]any{
				"parameters": []any{map[string]any{"name": "guid", "in": "path"}},
				"get": map[string]any{
					"operationId": "getUser",
					"tags":        []any{"users"},
				},
				"delete": map[string]any{"summary": "no id"},
				"x-note": "not an operation",
			},
			"/a": map[string]any{
				"post": map[string]any{"operationId": "shared"},
			},
			"/b": map[string]any{
				"put": map[string]any{"operationId": "shared", "description": "second"},
			},
			"/broken": "nope",
		},
	}

	ops := ExtractOperations(doc)
	assert.Equal(t, []string{"shared", "getUser"}, ops.Names())
	assert.Equal(t, 2, ops.Len())
	assert.Equal(t, []string{"shared"}, ops.Duplicates())

	shared, ok := ops.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "put", shared.Method)
	assert.Equal(t, "/b", shared.Route)
	assert.Equal(t, "second", shared.Description())

	user, ok := ops.Get("getUser")
	require.True(t, ok)
	assert.Equal(t, "/users/{guid}", user.Route)
	assert.Equal(t, "get", user.Method)
	assert.Equal(t, []string{"users"}, user.Tags)
	assert.True(t, user.HasTag("admin", "users"))

	_, ok = ops.Get("missing")
	assert.False(t, ok)

	filtered := ops.Filter(func(op OperationDefinition) bool { return op.HasTag("users") })
	assert.Equal(t, []string{"getUser"}, filtered.Names())
}

func TestExtractOperations_NoPaths(t *testing.T) {
	ops := ExtractOperations(Document{"swagger": "2.0"})
	assert.Zero(t, ops.Len())
	assert.Empty(t, ops.All())
}

func TestOperationDefinition_DescriptionFallsBackToSummary(t *testing.T) {
	op := OperationDefinition{Definition: map[string]any{"summary": "List things"}}
	assert.Equal(t, "List things", op.Description())

	op = OperationDefinition{Definition: map[string]any{}}
	assert.Equal(t, "", op.Description())
}

func TestDescribe(t *testing.T) {
	t.Run("swagger 2.0", func(t *testing.T) {
		info, err := Describe(mustParse(t, petstoreV2))
		require.NoError(t, err)
		assert.Equal(t, "Pet   Store", info.Title)
		assert.Equal(t, "1.0", info.Version)
		assert.Equal(t, "2.0", info.SpecVersion)
		assert.Equal(t, "http://api.example.com/v1", info.BaseURL)
	})

	t.Run("openapi 3", func(t *testing.T) {
		info, err := Describe(Document{
			"openapi": "3.0.1",
			"info":    map[string]any{"title": "Items", "version": "2.1.0"},
			"servers": []any{map[string]any{"url": "https://items.example.com/api"}},
			"paths":   map[string]any{},
		})
		require.NoError(t, err)
		assert.Equal(t, "Items", info.Title)
		assert.Equal(t, "2.1.0", info.Version)
		assert.Equal(t, "https://items.example.com/api", info.BaseURL)
	})

	t.Run("numeric scalars", func(t *testing.T) {
		info, err := Describe(mustParse(t, "swagger: 2.0\ninfo:\n  title: Connect\n  version: 1.5\nhost: 10.0.0.1\n"))
		require.NoError(t, err)
		assert.Equal(t, "Connect", info.Title)
		assert.Equal(t, "1.5", info.Version)
		assert.Equal(t, "2", info.SpecVersion)
		assert.Equal(t, "https://10.0.0.1", info.BaseURL)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Describe(Document{"info": map[string]any{}})
		assert.ErrorIs(t, err, ErrUnknownVersion)
	})
}

func TestWriteYAML_RoundTrip(t *testing.T) {
	doc := Document{"swagger": "2.0", "paths": map[string]any{"/a": map[string]any{}}}
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, doc))

	parsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, doc, parsed)
}
