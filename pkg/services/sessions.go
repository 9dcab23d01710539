package services

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/loader"
	"github.com/ubermorgenland/swagger-mcp/pkg/metrics"
	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
)

// SourceFunc produces the documents a reload builds sessions from.
type SourceFunc func(ctx context.Context) ([]*loader.LoadedSpec, error)

// Session is the tool surface built from one loaded document.
type Session struct {
	Spec    *loader.LoadedSpec
	Table   *openapi2mcp.ToolTable
	Invoker *openapi2mcp.Invoker
	Server  *mcp.Server
}

// SessionConfig is shared by every session a manager builds.
type SessionConfig struct {
	// Name and Version override the MCP server identity; by default the document title and
	// version are used.
	Name           string
	Version        string
	Tools          openapi2mcp.ToolGenOptions
	Executor       *openapi2mcp.Executor
	MaxConcurrency int
	Metrics        *metrics.Collector
	Logger         *zap.Logger
}

type sessionSet struct {
	byEndpoint map[string]*Session
	order      []string
}

// SessionManager holds the current sessions. Reload builds a complete new set and swaps it in,
// so readers never see a partially built table.
type SessionManager struct {
	source SourceFunc
	cfg    SessionConfig
	logger *zap.Logger

	reloadMu sync.Mutex
	state    atomic.Pointer[sessionSet]
}

// NewSessionManager creates a manager with no sessions; call Reload to load them.
func NewSessionManager(source SourceFunc, cfg SessionConfig) *SessionManager {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Executor == nil {
		cfg.Executor = openapi2mcp.NewExecutor(openapi2mcp.WithExecutorLogger(logger))
	}
	m := &SessionManager{
		source: source,
		cfg:    cfg,
		logger: logger.With(zap.String("component", "sessions")),
	}
	m.state.Store(&sessionSet{byEndpoint: map[string]*Session{}})
	return m
}

// Reload rebuilds every session from the source and returns the loaded endpoints. On error the
// previous sessions stay in place.
func (m *SessionManager) Reload(ctx context.Context) ([]string, error) {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	specs, err := m.source(ctx)
	if err != nil {
		return nil, err
	}

	next := &sessionSet{byEndpoint: make(map[string]*Session, len(specs))}
	total := 0
	for _, spec := range specs {
		if _, dup := next.byEndpoint[spec.Endpoint]; dup {
			m.logger.Warn("duplicate endpoint, later document ignored", zap.String("endpoint", spec.Endpoint))
			continue
		}
		session := m.build(spec)
		next.byEndpoint[spec.Endpoint] = session
		next.order = append(next.order, spec.Endpoint)
		total += session.Table.Len()
	}

	m.state.Store(next)
	if m.cfg.Metrics != nil {
		m.cfg.Metrics.SetToolsRegistered(total)
	}
	m.logger.Info("sessions loaded", zap.Strings("endpoints", next.order), zap.Int("tools", total))
	return append([]string(nil), next.order...), nil
}

func (m *SessionManager) build(spec *loader.LoadedSpec) *Session {
	logger := m.cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("endpoint", spec.Endpoint))

	opts := m.cfg.Tools
	table := openapi2mcp.NewToolTable(spec.Operations, &opts, logger)
	inv := openapi2mcp.NewInvoker(table, m.cfg.Executor, openapi2mcp.InvokerConfig{
		BaseURL:        spec.BaseURL,
		APIKey:         spec.APIKey,
		MaxConcurrency: m.cfg.MaxConcurrency,
		Metrics:        m.cfg.Metrics,
		Logger:         logger,
	})

	name := firstNonEmpty(m.cfg.Name, spec.Info.Title, spec.Endpoint)
	version := firstNonEmpty(m.cfg.Version, spec.Info.Version, "0.0.0")
	return &Session{
		Spec:    spec,
		Table:   table,
		Invoker: inv,
		Server:  openapi2mcp.NewServer(name, version, inv),
	}
}

// Poll reloads every interval until ctx is done. Failed reloads are logged and the current
// sessions stay in place.
func (m *SessionManager) Poll(ctx context.Context, interval time.Duration) {
	m.logger.Info("polling for document changes", zap.Duration("interval", interval))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Reload(ctx); err != nil {
				m.logger.Warn("periodic reload failed", zap.Error(err))
			}
		}
	}
}

// Default returns the first session, or nil before a successful reload.
func (m *SessionManager) Default() *Session {
	set := m.state.Load()
	if len(set.order) == 0 {
		return nil
	}
	return set.byEndpoint[set.order[0]]
}

// Session returns the session for an endpoint.
func (m *SessionManager) Session(endpoint string) (*Session, bool) {
	s, ok := m.state.Load().byEndpoint[endpoint]
	return s, ok
}

// Sessions returns all sessions in load order.
func (m *SessionManager) Sessions() []*Session {
	set := m.state.Load()
	out := make([]*Session, 0, len(set.order))
	for _, endpoint := range set.order {
		out = append(out, set.byEndpoint[endpoint])
	}
	return out
}

// Tools returns the tools of every session in load order.
func (m *SessionManager) Tools() []openapi2mcp.Tool {
	tools := []openapi2mcp.Tool{}
	for _, s := range m.Sessions() {
		tools = append(tools, s.Table.Tools()...)
	}
	return tools
}

// ServerFor picks the MCP server for a request: basePath serves the default session and
// basePath/<endpoint> serves the named one.
func (m *SessionManager) ServerFor(r *http.Request, basePath string) *mcp.Server {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, strings.TrimSuffix(basePath, "/")), "/")
	if rest == "" {
		if s := m.Default(); s != nil {
			return s.Server
		}
		return nil
	}
	if s, ok := m.Session(rest); ok {
		return s.Server
	}
	return nil
}

// HTTPHandler serves the sessions over streamable HTTP below basePath.
func (m *SessionManager) HTTPHandler(basePath string) http.Handler {
	return openapi2mcp.HandlerForStreamableHTTP(func(r *http.Request) *mcp.Server {
		return m.ServerFor(r, basePath)
	})
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
