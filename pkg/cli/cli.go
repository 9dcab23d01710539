// Package cli provides the swagger-mcp command-line interface.
package cli

import (
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/database"
	"github.com/ubermorgenland/swagger-mcp/pkg/loader"
	"github.com/ubermorgenland/swagger-mcp/pkg/logging"
	"github.com/ubermorgenland/swagger-mcp/pkg/metrics"
	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
	"github.com/ubermorgenland/swagger-mcp/pkg/services"
)

// Version is reported by --version.
var Version = "dev"

// flagValues holds flag values until they are applied over the environment configuration.
type flagValues struct {
	swaggerFile       string
	baseURL           string
	apiKey            string
	databaseURL       string
	fetchRemote       bool
	include           []string
	tags              []string
	strictPathParams  bool
	insecureTLS       bool
	validateArguments bool
	maxConcurrency    int
	logLevel          string
	logFormat         string
	httpAddr          string
	basePath          string
	pollInterval      time.Duration
}

// CLI holds the command-line interface state.
type CLI struct {
	rootCmd *cobra.Command
	envFile string
	flags   flagValues
	stdin   io.Reader

	cfg    *server.Config
	logger *zap.Logger
}

// New creates the command tree.
func New() *CLI {
	c := &CLI{stdin: os.Stdin, logger: zap.NewNop()}

	c.rootCmd = &cobra.Command{
		Use:   "swagger-mcp",
		Short: "Expose a Swagger/OpenAPI document as MCP tools",
		Long: `swagger-mcp resolves a Swagger 2.0 or OpenAPI 3.x document, turns every operation into a
tool with a flat JSON input schema and answers tool calls by sending one HTTP request
to the API, authenticated with "Authorization: Key <api_key>".`,
		Version:           Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
	}

	c.setupFlags()
	c.rootCmd.AddCommand(c.serveCommand(), c.toolsCommand(), c.expandCommand(), c.consoleCommand())
	return c
}

func (c *CLI) setupFlags() {
	f := c.rootCmd.PersistentFlags()
	f.StringVar(&c.envFile, "env-file", server.DefaultEnvFile, "Optional .env file loaded before reading the environment")
	f.StringVarP(&c.flags.swaggerFile, "swagger-file", "f", "", "Path or URL of the Swagger/OpenAPI document ("+server.EnvSwaggerFile+")")
	f.StringVar(&c.flags.baseURL, "base-url", "", "API base URL ("+server.EnvBaseURL+")")
	f.StringVar(&c.flags.apiKey, "api-key", "", "API key sent as 'Authorization: Key <key>' ("+server.EnvAPIKey+")")
	f.StringVar(&c.flags.databaseURL, "database-url", "", "PostgreSQL URL of the document store ("+server.EnvDatabaseURL+")")
	f.BoolVar(&c.flags.fetchRemote, "fetch-remote", false, "Load the document from <base-url>openapi.json")
	f.StringSliceVar(&c.flags.include, "include", nil, "Only expose these operation ids")
	f.StringSliceVar(&c.flags.tags, "tag", nil, "Only expose operations with one of these tags")
	f.BoolVar(&c.flags.strictPathParams, "strict-path-params", true, "Reject calls that leave route placeholders unfilled")
	f.BoolVar(&c.flags.insecureTLS, "insecure-tls", false, "Skip upstream TLS certificate verification")
	f.BoolVar(&c.flags.validateArguments, "validate-args", false, "Validate tool arguments against the input schema")
	f.IntVar(&c.flags.maxConcurrency, "max-concurrency", openapi2mcp.DefaultMaxConcurrency, "Concurrent calls in a batch")
	f.StringVar(&c.flags.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	f.StringVar(&c.flags.logFormat, "log-format", "", "Log format: json, console")
}

// Execute runs the CLI.
func (c *CLI) Execute(ctx context.Context) error {
	return c.rootCmd.ExecuteContext(ctx)
}

// loadConfig reads the environment, then applies the flags that were set on the command line.
func (c *CLI) loadConfig(cmd *cobra.Command, _ []string) error {
	cfg, err := server.LoadConfig(c.envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("swagger-file") {
		cfg.SwaggerFile = c.flags.swaggerFile
	}
	if flags.Changed("base-url") {
		cfg.BaseURL = c.flags.baseURL
	}
	if flags.Changed("api-key") {
		cfg.APIKey = c.flags.apiKey
	}
	if flags.Changed("database-url") {
		cfg.DatabaseURL = c.flags.databaseURL
	}
	if flags.Changed("fetch-remote") {
		cfg.FetchRemote = c.flags.fetchRemote
	}
	if flags.Changed("include") {
		cfg.Include = c.flags.include
	}
	if flags.Changed("tag") {
		cfg.Tags = c.flags.tags
	}
	if flags.Changed("strict-path-params") {
		cfg.StrictPathParams = c.flags.strictPathParams
	}
	if flags.Changed("insecure-tls") {
		cfg.InsecureTLS = c.flags.insecureTLS
	}
	if flags.Changed("validate-args") {
		cfg.ValidateArguments = c.flags.validateArguments
	}
	if flags.Changed("max-concurrency") {
		cfg.MaxConcurrency = c.flags.maxConcurrency
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = c.flags.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = c.flags.logFormat
	}
	if flags.Lookup("http") != nil && flags.Changed("http") {
		cfg.HTTPAddr = c.flags.httpAddr
	}
	if flags.Lookup("base-path") != nil && flags.Changed("base-path") {
		cfg.BasePath = c.flags.basePath
	}
	if flags.Lookup("poll-interval") != nil && flags.Changed("poll-interval") {
		cfg.PollInterval = c.flags.pollInterval
	}

	cfg.Normalize()
	c.cfg = cfg
	c.logger = logging.New(cfg.LogLevel, cfg.LogFormat)
	return nil
}

// runtime is everything a serving command needs.
type runtime struct {
	sessions  *services.SessionManager
	documents *services.DocumentService
	metrics   *metrics.Collector
	db        *sql.DB
}

func (r *runtime) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// buildRuntime loads the configured documents and builds their sessions.
func (c *CLI) buildRuntime(ctx context.Context) (*runtime, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}
	c.cfg.LogConfiguration(c.logger)

	rt := &runtime{metrics: metrics.NewCollector("swagger_mcp", c.logger)}
	opts := []loader.Option{
		loader.WithUpstream(c.cfg.BaseURL, c.cfg.APIKey),
		loader.WithMaxDocumentBytes(c.cfg.MaxDocumentBytes),
		loader.WithLogger(c.logger),
	}

	if c.cfg.DatabaseMode {
		db, err := database.Initialize(ctx, c.cfg.DatabaseURL, c.logger)
		if err != nil {
			return nil, server.WrapWithContext(ctx, err, server.ErrorTypeDatabase, "failed to initialize database")
		}
		rt.db = db
		repo := repository.NewSwaggerDocumentRepository(db)
		rt.documents = services.NewDocumentService(repo, c.logger)
		opts = append(opts, loader.WithStore(repo))
	}

	l := loader.New(opts...)
	var source services.SourceFunc
	switch {
	case c.cfg.DatabaseMode:
		source = l.LoadFromDatabase
	case c.cfg.FetchRemote:
		source = func(ctx context.Context) ([]*loader.LoadedSpec, error) {
			spec, err := l.LoadRemote(ctx)
			if err != nil {
				return nil, err
			}
			return []*loader.LoadedSpec{spec}, nil
		}
	default:
		source = func(ctx context.Context) ([]*loader.LoadedSpec, error) {
			spec, err := l.Load(ctx, c.cfg.SwaggerFile)
			if err != nil {
				return nil, err
			}
			return []*loader.LoadedSpec{spec}, nil
		}
	}

	executor := openapi2mcp.NewExecutor(
		openapi2mcp.WithStrictPathParams(c.cfg.StrictPathParams),
		openapi2mcp.WithInsecureTLS(c.cfg.InsecureTLS),
		openapi2mcp.WithMaxResponseBytes(c.cfg.MaxResponseBytes),
		openapi2mcp.WithExecutorLogger(c.logger),
	)
	rt.sessions = services.NewSessionManager(source, services.SessionConfig{
		Tools: openapi2mcp.ToolGenOptions{
			Include:           c.cfg.Include,
			TagFilter:         c.cfg.Tags,
			ValidateArguments: c.cfg.ValidateArguments,
		},
		Executor:       executor,
		MaxConcurrency: c.cfg.MaxConcurrency,
		Metrics:        rt.metrics,
		Logger:         c.logger,
	})

	if _, err := rt.sessions.Reload(ctx); err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}
