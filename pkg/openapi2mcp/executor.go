package openapi2mcp

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"github.com/yosida95/uritemplate/v3"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/auth"
	"github.com/ubermorgenland/swagger-mcp/pkg/memory"
	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

// DefaultMaxResponseBytes caps how much of an upstream response body is read.
const DefaultMaxResponseBytes = 10 << 20

// Response is the outcome of one upstream call.
type Response struct {
	StatusCode int
	Body       string
}

// Executor sends one HTTP request per tool call. It keeps no connections between calls.
type Executor struct {
	newTransport     func() http.RoundTripper
	strictPathParams bool
	insecureTLS      bool
	reader           *memory.LimitedReader
	logger           *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTransport sets the factory for the per-call base transport.
func WithTransport(factory func() http.RoundTripper) ExecutorOption {
	return func(e *Executor) { e.newTransport = factory }
}

// WithStrictPathParams controls whether unfilled route placeholders are an error (default)
// or left in the URL as written.
func WithStrictPathParams(strict bool) ExecutorOption {
	return func(e *Executor) { e.strictPathParams = strict }
}

// WithInsecureTLS disables upstream certificate verification.
func WithInsecureTLS(insecure bool) ExecutorOption {
	return func(e *Executor) { e.insecureTLS = insecure }
}

// WithMaxResponseBytes caps the response body size (0 means unlimited).
func WithMaxResponseBytes(n int64) ExecutorOption {
	return func(e *Executor) { e.reader = memory.NewLimitedReader(n) }
}

// WithExecutorLogger sets the logger.
func WithExecutorLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExecutor creates an executor with strict path parameters and verified TLS.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{
		strictPathParams: true,
		reader:           memory.NewLimitedReader(DefaultMaxResponseBytes),
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.newTransport == nil {
		e.newTransport = e.defaultTransport
	}
	e.logger = e.logger.With(zap.String("component", "executor"))
	return e
}

func (e *Executor) defaultTransport() http.RoundTripper {
	t := http.DefaultTransport.(*http.Transport).Clone()
	if e.insecureTLS {
		t.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in
	}
	return t
}

// Execute sends the request for op and returns the response body text whatever the status code.
// Only transport failures and caller mistakes are errors.
func (e *Executor) Execute(ctx context.Context, baseURL string, op swagger.OperationDefinition, params APIParams, apiKey string) (string, error) {
	resp, err := e.Do(ctx, baseURL, op, params, apiKey)
	if err != nil {
		return "", err
	}
	return resp.Body, nil
}

// Do is Execute with the status code kept.
func (e *Executor) Do(ctx context.Context, baseURL string, op swagger.OperationDefinition, params APIParams, apiKey string) (*Response, error) {
	route, err := e.BuildRoute(op, params.Path)
	if err != nil {
		return nil, err
	}

	target, err := url.Parse(JoinURL(baseURL, route))
	if err != nil {
		return nil, fmt.Errorf("invalid request URL for '%s': %w", op.Name, err)
	}
	if query := BuildQuery(params.Query); len(query) > 0 {
		merged := target.Query()
		for key, values := range query {
			merged[key] = values
		}
		target.RawQuery = merged.Encode()
	}

	var body io.Reader
	payload := BuildBody(params.Body)
	if len(payload) > 0 {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode body for '%s': %w", op.Name, err)
		}
		body = bytes.NewReader(data)
	}

	method := strings.ToUpper(op.Method)
	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for '%s': %w", op.Name, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{
		Transport: auth.NewSecureRoundTripper(e.newTransport(), auth.NewKeyProvider(apiKey)),
	}
	defer client.CloseIdleConnections()

	e.logger.Debug("sending request",
		zap.String("operation", op.Name),
		zap.String("method", method),
		zap.String("url", target.Redacted()))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, target.Redacted(), err)
	}
	defer resp.Body.Close()

	data, err := e.reader.ReadAll(ctx, resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response of '%s': %w", op.Name, err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: string(data)}, nil
}

// BuildRoute substitutes path values into the operation's route template.
func (e *Executor) BuildRoute(op swagger.OperationDefinition, path []NamedValue) (string, error) {
	values := Values(path)
	route := op.Route
	var missing []string
	for _, name := range placeholders(op.Route) {
		value, ok := values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		route = strings.ReplaceAll(route, "{"+name+"}", url.PathEscape(stringify(value)))
	}
	if len(missing) > 0 && e.strictPathParams {
		return "", &MissingPathParameterError{Operation: op.Name, Route: op.Route, Names: missing}
	}
	return route, nil
}

// placeholders lists the {name} variables of a route in order of appearance.
func placeholders(route string) []string {
	if tmpl, err := uritemplate.New(route); err == nil {
		return tmpl.Varnames()
	}
	// Routes that are not valid URI templates are scanned for plain {name} pairs.
	var names []string
	for rest := route; ; {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return names
		}
		names = append(names, rest[open+1:open+end])
		rest = rest[open+end+1:]
	}
}

// BuildQuery turns the query bucket into url.Values. Lists become repeated keys; a later value
// for the same name replaces an earlier one.
func BuildQuery(query []NamedValue) url.Values {
	out := url.Values{}
	for _, nv := range query {
		if list, ok := asList(nv.Value); ok {
			values := make([]string, 0, len(list))
			for _, item := range list {
				values = append(values, stringify(item))
			}
			out[nv.Name] = values
			continue
		}
		out[nv.Name] = []string{stringify(nv.Value)}
	}
	return out
}

// BuildBody merges body values into one JSON object. Object values are merged key by key with
// later keys winning; any other value is placed under its parameter name.
func BuildBody(body []NamedValue) map[string]any {
	out := make(map[string]any)
	for _, nv := range body {
		if obj, ok := nv.Value.(map[string]any); ok {
			for k, v := range obj {
				out[k] = v
			}
			continue
		}
		out[nv.Name] = nv.Value
	}
	return out
}

// JoinURL joins a base URL and a route with exactly one slash between them.
func JoinURL(baseURL, route string) string {
	if baseURL == "" {
		return route
	}
	if route == "" {
		return baseURL
	}
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(route, "/")
}

func asList(v any) ([]any, bool) {
	if list, ok := v.([]any); ok {
		return list, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// stringify renders scalars with cast and anything structured as JSON.
func stringify(v any) string {
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
