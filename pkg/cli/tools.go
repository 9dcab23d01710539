package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ubermorgenland/swagger-mcp/pkg/console"
	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/swagger-mcp/pkg/swagger"
)

func (c *CLI) toolsCommand() *cobra.Command {
	var summary bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Print the generated tools as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := c.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			if summary {
				var ops []swagger.OperationDefinition
				for _, session := range rt.sessions.Sessions() {
					for _, name := range session.Table.Names() {
						op, _, err := session.Table.Lookup(name)
						if err != nil {
							return err
						}
						ops = append(ops, op)
					}
				}
				openapi2mcp.PrintToolSummary(out, ops)
				return nil
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(rt.sessions.Tools())
		},
	}
	cmd.Flags().BoolVar(&summary, "summary", false, "Print a count of tools per tag instead of the tools")
	return cmd
}

func (c *CLI) expandCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "expand <input.yaml> [output.yaml]",
		Short: "Expand references and normalize text, writing the document as YAML",
		Long: `expand reads a Swagger/OpenAPI document, replaces every $ref (except the shared error
responses) with its target, collapses whitespace in all strings and writes the result as
YAML to the output file or stdout.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := swagger.LoadFile(args[0])
			if err != nil {
				return err
			}
			resolved, err := swagger.Resolve(doc)
			if err != nil {
				return err
			}

			if len(args) == 1 {
				return swagger.WriteYAML(cmd.OutOrStdout(), resolved)
			}
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			if err := swagger.WriteYAML(f, resolved); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}
}

func (c *CLI) consoleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Interactively list and call tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.BaseURL == "" {
				baseURL, err := console.Prompt("API base URL", io.NopCloser(c.stdin), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				c.cfg.BaseURL = baseURL
			}

			rt, err := c.buildRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			session := rt.sessions.Default()
			return console.New(session.Invoker, c.logger).Run(cmd.Context(), io.NopCloser(c.stdin), cmd.OutOrStdout())
		},
	}
}
