package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 25 * time.Second

func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tools over MCP (stdio by default, streamable HTTP with --http)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&c.flags.httpAddr, "http", "", "Serve streamable HTTP on this address (e.g. :8080)")
	cmd.Flags().StringVar(&c.flags.basePath, "base-path", server.DefaultBasePath, "HTTP path of the MCP endpoint")
	cmd.Flags().DurationVar(&c.flags.pollInterval, "poll-interval", 0, "Reload stored documents at this interval (database mode)")
	return cmd
}

func (c *CLI) serve(ctx context.Context) error {
	rt, err := c.buildRuntime(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	if c.cfg.DatabaseMode && c.cfg.PollInterval > 0 {
		go rt.sessions.Poll(ctx, c.cfg.PollInterval)
	}

	if !c.cfg.HTTPMode {
		sessions := rt.sessions.Sessions()
		if len(sessions) > 1 {
			c.logger.Warn("stdio serves a single document, using the first",
				zap.String("endpoint", sessions[0].Spec.Endpoint), zap.Int("documents", len(sessions)))
		}
		c.logger.Info("serving MCP over stdio", zap.Int("tools", sessions[0].Table.Len()))
		return openapi2mcp.ServeStdio(ctx, sessions[0].Server)
	}

	routes := server.Routes{
		BasePath: c.cfg.BasePath,
		MCP:      rt.sessions.HTTPHandler(c.cfg.BasePath),
		Metrics:  rt.metrics.Handler(),
		Tools:    rt.sessions.Tools,
		Reload:   rt.sessions.Reload,
		Logger:   c.logger,
	}
	if rt.documents != nil {
		routes.Documents = func(ctx context.Context) (any, error) {
			return rt.documents.List(ctx)
		}
	}

	srv := &http.Server{
		Addr:              c.cfg.HTTPAddr,
		Handler:           routes.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	c.logger.Info("serving MCP over streamable HTTP",
		zap.String("url", openapi2mcp.GetStreamableHTTPURL(c.cfg.HTTPAddr, c.cfg.BasePath)))
	return c.listenAndServe(ctx, srv)
}

// listenAndServe runs srv until ctx is done, then shuts it down gracefully.
func (c *CLI) listenAndServe(ctx context.Context, srv *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		c.logger.Info("shutting down server", zap.Duration("timeout", shutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		c.logger.Info("server shut down gracefully")
		return nil
	}
}
