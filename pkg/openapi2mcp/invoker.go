package openapi2mcp

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ubermorgenland/swagger-mcp/pkg/metrics"
)

// DefaultMaxConcurrency bounds InvokeAll when no limit is configured.
const DefaultMaxConcurrency = 4

// InvokerConfig configures an Invoker.
type InvokerConfig struct {
	BaseURL        string
	APIKey         string
	MaxConcurrency int
	Metrics        *metrics.Collector
	Logger         *zap.Logger
}

// Invoker answers tool calls against one tool table and one upstream API.
type Invoker struct {
	table          *ToolTable
	executor       *Executor
	baseURL        string
	apiKey         string
	maxConcurrency int
	metrics        *metrics.Collector
	logger         *zap.Logger
}

// NewInvoker creates an invoker. A nil executor gets NewExecutor defaults.
func NewInvoker(table *ToolTable, executor *Executor, cfg InvokerConfig) *Invoker {
	if executor == nil {
		executor = NewExecutor()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := cfg.MaxConcurrency
	if limit <= 0 {
		limit = DefaultMaxConcurrency
	}
	if cfg.Metrics != nil {
		cfg.Metrics.SetToolsRegistered(table.Len())
	}
	return &Invoker{
		table:          table,
		executor:       executor,
		baseURL:        cfg.BaseURL,
		apiKey:         cfg.APIKey,
		maxConcurrency: limit,
		metrics:        cfg.Metrics,
		logger:         logger.With(zap.String("component", "invoker")),
	}
}

// Table returns the tool table served by the invoker.
func (i *Invoker) Table() *ToolTable {
	return i.table
}

// BaseURL returns the upstream base URL.
func (i *Invoker) BaseURL() string {
	return i.baseURL
}

// Invoke runs the tool called name with args and returns the upstream response text.
// Unknown tools yield *UnsupportedOperationError; transport failures are returned as is.
func (i *Invoker) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	start := time.Now()
	logger := i.logger.With(zap.String("request_id", uuid.NewString()), zap.String("tool", name))

	op, params, err := i.table.Lookup(name)
	if err != nil {
		logger.Warn("unknown tool requested")
		i.record("", metrics.OutcomeUnsupported, start)
		return "", err
	}
	if err := i.table.ValidateArguments(name, args); err != nil {
		logger.Info("arguments rejected", zap.Error(err))
		i.record(name, metrics.OutcomeInvalid, start)
		return "", err
	}

	routed := RouteArguments(args, params)
	resp, err := i.executor.Do(ctx, i.baseURL, op, routed, i.apiKey)
	if err != nil {
		outcome := metrics.OutcomeTransportError
		if IsUsageError(err) {
			outcome = metrics.OutcomeInvalid
		}
		logger.Error("invocation failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		i.record(name, outcome, start)
		return "", err
	}

	if i.metrics != nil {
		i.metrics.RecordUpstreamStatus(name, resp.StatusCode)
	}
	i.record(name, metrics.OutcomeSuccess, start)
	logger.Info("invocation completed",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
		zap.Duration("duration", time.Since(start)))
	return resp.Body, nil
}

// HandleOperation is Invoke for callers that only deal in text: caller mistakes come back as
// their message. Transport failures are still returned as errors.
func (i *Invoker) HandleOperation(ctx context.Context, name string, args map[string]any) (string, error) {
	text, err := i.Invoke(ctx, name, args)
	if err != nil && IsUsageError(err) {
		return err.Error(), nil
	}
	return text, err
}

// Call is one entry of a batch.
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// CallResult is the outcome of one batch entry.
type CallResult struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
	Err  error  `json:"-"`
}

// InvokeAll runs calls concurrently, at most MaxConcurrency at a time. A failing call does not
// cancel the others; results are returned in input order.
func (i *Invoker) InvokeAll(ctx context.Context, calls []Call) []CallResult {
	results := make([]CallResult, len(calls))

	var g errgroup.Group
	g.SetLimit(i.maxConcurrency)
	for idx, call := range calls {
		g.Go(func() error {
			text, err := i.HandleOperation(ctx, call.Name, call.Arguments)
			results[idx] = CallResult{Name: call.Name, Text: text, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (i *Invoker) record(name, outcome string, start time.Time) {
	if i.metrics != nil {
		i.metrics.RecordInvocation(name, outcome, time.Since(start))
	}
}

// ErrorText renders an invocation error for a text-only consumer.
func ErrorText(err error) string {
	var unsupported *UnsupportedOperationError
	if errors.As(err, &unsupported) {
		return unsupported.Error()
	}
	return "Error: " + err.Error()
}
