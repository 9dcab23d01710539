package swagger

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/cast"
)

// Info is the document metadata used to name a tool server and find a default upstream.
type Info struct {
	Title       string `json:"title"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	SpecVersion string `json:"spec_version"`
	BaseURL     string `json:"base_url,omitempty"`
}

// ErrUnknownVersion is returned by Describe for documents without a 'swagger' or 'openapi' key.
var ErrUnknownVersion = errors.New("document declares neither 'swagger' nor 'openapi' version")

// Describe reads the info block and server location of a Swagger 2.0 or OpenAPI 3.x document.
// For Swagger 2.0 the base URL is scheme://host+basePath (https when no scheme is listed);
// for OpenAPI 3.x it is the first server URL.
func Describe(doc Document) (Info, error) {
	if v, ok := doc["swagger"]; ok {
		return describeV2(doc, cast.ToString(v))
	}
	if v, ok := doc["openapi"]; ok {
		return describeV3(doc, cast.ToString(v))
	}
	return Info{}, ErrUnknownVersion
}

// header carries only the keys needed for Describe; the rest of the document may use
// constructs the typed model rejects. YAML reads unquoted values such as "version: 1.0" as
// numbers, so scalars are stringified before the typed decode.
func header(doc Document, keys ...string) ([]byte, error) {
	subset := map[string]any{"info": map[string]any{}}
	for _, key := range keys {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		switch key {
		case "info":
			if info, ok := v.(map[string]any); ok {
				subset[key] = stringifyScalars(info)
			}
		case "schemes", "servers":
			subset[key] = v
		default:
			subset[key] = cast.ToString(v)
		}
	}
	return json.Marshal(subset)
}

func stringifyScalars(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		switch v.(type) {
		case map[string]any, []any, nil:
			out[k] = v
		default:
			out[k] = cast.ToString(v)
		}
	}
	return out
}

func describeV2(doc Document, version string) (Info, error) {
	data, err := header(doc, "swagger", "info", "host", "basePath", "schemes")
	if err != nil {
		return Info{}, fmt.Errorf("failed to encode document header: %w", err)
	}
	var spec openapi2.T
	if err := json.Unmarshal(data, &spec); err != nil {
		return Info{}, fmt.Errorf("failed to read Swagger 2.0 header: %w", err)
	}

	info := Info{
		Title:       spec.Info.Title,
		Version:     spec.Info.Version,
		Description: spec.Info.Description,
		SpecVersion: version,
	}
	if spec.Host != "" {
		scheme := "https"
		if len(spec.Schemes) > 0 {
			scheme = spec.Schemes[0]
		}
		info.BaseURL = scheme + "://" + spec.Host + spec.BasePath
	}
	return info, nil
}

func describeV3(doc Document, version string) (Info, error) {
	data, err := header(doc, "openapi", "info", "servers")
	if err != nil {
		return Info{}, fmt.Errorf("failed to encode document header: %w", err)
	}
	var spec openapi3.T
	if err := json.Unmarshal(data, &spec); err != nil {
		return Info{}, fmt.Errorf("failed to read OpenAPI 3 header: %w", err)
	}

	info := Info{SpecVersion: version}
	if spec.Info != nil {
		info.Title = spec.Info.Title
		info.Version = spec.Info.Version
		info.Description = spec.Info.Description
	}
	for _, server := range spec.Servers {
		if server != nil && server.URL != "" {
			info.BaseURL = strings.TrimSpace(server.URL)
			break
		}
	}
	return info, nil
}
