// Package swagger prepares Swagger 2.0 and OpenAPI 3.x documents for tool generation.
//
// Documents are held untyped, exactly as decoded from JSON or YAML, so that nothing the
// document declares is lost on the way to a tool schema. The preparation pipeline is:
//
//	doc, err := swagger.Parse(data)
//	doc, err = swagger.ExpandReferences(doc)
//	doc = swagger.CleanText(doc)
//	ops := swagger.ExtractOperations(doc)
//
// Resolve runs the two middle steps together.
package swagger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Document is a decoded Swagger/OpenAPI document. Values are map[string]any, []any or scalars.
type Document map[string]any

// Parse decodes a JSON or YAML document. Content starting with '{' is read as JSON,
// anything else as YAML (which also accepts JSON).
func Parse(data []byte) (Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}

	var raw any
	if trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON document: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(trimmed, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML document: %w", err)
		}
	}

	root, ok := normalize(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("document root must be a mapping, got %T", raw)
	}
	return Document(root), nil
}

// LoadFile reads and parses a document from disk.
func LoadFile(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// WriteYAML encodes the document as YAML with two-space indentation.
func WriteYAML(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]any(doc)); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return enc.Close()
}

// Clone returns a deep copy of a decoded value.
func Clone(v any) any {
	switch t := v.(type) {
	case Document:
		return Document(Clone(map[string]any(t)).(map[string]any))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	default:
		return v
	}
}

// normalize turns YAML's map[any]any (and map[string]any with nested YAML maps) into
// map[string]any all the way down.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[cast.ToString(k)] = normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalize(val)
		}
		return out
	default:
		return v
	}
}
