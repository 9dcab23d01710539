// Package console is an interactive shell for listing and calling tools.
package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/chzyer/readline"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
)

// ErrExit is returned by Execute for the exit command.
var ErrExit = errors.New("exit")

const helpText = `Commands:
  list                     list tools
  schema <tool>            show the input schema of a tool
  call <tool> [json]       call a tool with a JSON object of arguments
  batch <json>             call several tools: [{"name": "...", "arguments": {...}}, ...]
  help                     show this help
  exit                     leave the console
`

// Console runs commands against one invoker.
type Console struct {
	inv    *openapi2mcp.Invoker
	logger *zap.Logger
}

// New creates a console.
func New(inv *openapi2mcp.Invoker, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{inv: inv, logger: logger.With(zap.String("component", "console"))}
}

// Execute runs one command line and writes its output to w.
func (c *Console) Execute(ctx context.Context, line string, w io.Writer) error {
	cmd, rest := splitWord(strings.TrimSpace(line))
	switch cmd {
	case "":
		return nil
	case "help", "?":
		_, err := io.WriteString(w, helpText)
		return err
	case "exit", "quit":
		return ErrExit
	case "list":
		return c.list(w)
	case "schema":
		return c.schema(rest, w)
	case "call":
		return c.call(ctx, rest, w)
	case "batch":
		return c.batch(ctx, rest, w)
	default:
		return fmt.Errorf("unknown command %q (try 'help')", cmd)
	}
}

func (c *Console) list(w io.Writer) error {
	tools := c.inv.Table().Tools()
	if len(tools) == 0 {
		_, err := fmt.Fprintln(w, "No tools.")
		return err
	}
	for _, tool := range tools {
		desc, _, _ := strings.Cut(tool.Description, "\n")
		if _, err := fmt.Fprintf(w, "%-30s %s\n", tool.Name, desc); err != nil {
			return err
		}
	}
	return nil
}

func (c *Console) schema(name string, w io.Writer) error {
	if name == "" {
		return errors.New("usage: schema <tool>")
	}
	tool, ok := c.inv.Table().Tool(name)
	if !ok {
		return &openapi2mcp.UnsupportedOperationError{Name: name}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tool.InputSchema)
}

func (c *Console) call(ctx context.Context, rest string, w io.Writer) error {
	name, raw := splitWord(rest)
	if name == "" {
		return errors.New("usage: call <tool> [json]")
	}
	var args map[string]any
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Errorf("arguments must be a JSON object: %w", err)
		}
	}
	text, err := c.inv.HandleOperation(ctx, name, args)
	if err != nil {
		text = openapi2mcp.ErrorText(err)
	}
	_, err = fmt.Fprintln(w, text)
	return err
}

func (c *Console) batch(ctx context.Context, raw string, w io.Writer) error {
	var calls []openapi2mcp.Call
	if err := json.Unmarshal([]byte(raw), &calls); err != nil {
		return fmt.Errorf("batch must be a JSON array of calls: %w", err)
	}
	for _, result := range c.inv.InvokeAll(ctx, calls) {
		text := result.Text
		if result.Err != nil {
			text = openapi2mcp.ErrorText(result.Err)
		}
		if _, err := fmt.Fprintf(w, "[%s] %s\n", result.Name, text); err != nil {
			return err
		}
	}
	return nil
}

// Run reads commands with line editing until exit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, stdin io.ReadCloser, stdout io.Writer) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "swagger-mcp> ",
		AutoComplete:    c.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
		Stdout:          stdout,
	})
	if err != nil {
		return fmt.Errorf("failed to start console: %w", err)
	}
	defer rl.Close()

	fmt.Fprintf(rl.Stdout(), "%d tools against %s. Type 'help' for commands.\n", c.inv.Table().Len(), c.inv.BaseURL())
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		err = c.Execute(ctx, line, rl.Stdout())
		if errors.Is(err, ErrExit) {
			return nil
		}
		if err != nil {
			fmt.Fprintln(rl.Stdout(), err)
			c.logger.Debug("command failed", zap.String("line", line), zap.Error(err))
		}
	}
}

func (c *Console) completer() *readline.PrefixCompleter {
	tools := func(string) []string {
		names := c.inv.Table().Names()
		sort.Strings(names)
		return names
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("list"),
		readline.PcItem("schema", readline.PcItemDynamic(tools)),
		readline.PcItem("call", readline.PcItemDynamic(tools)),
		readline.PcItem("batch"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// Prompt asks for a single value, for settings missing from the environment.
func Prompt(label string, stdin io.ReadCloser, stdout io.Writer) (string, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt: label + ": ",
		Stdin:  stdin,
		Stdout: stdout,
	})
	if err != nil {
		return "", fmt.Errorf("failed to start prompt: %w", err)
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func splitWord(s string) (string, string) {
	word, rest, _ := strings.Cut(s, " ")
	return word, strings.TrimSpace(rest)
}
