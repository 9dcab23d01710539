package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ubermorgenland/swagger-mcp/pkg/database"
	"github.com/ubermorgenland/swagger-mcp/pkg/logging"
	"github.com/ubermorgenland/swagger-mcp/pkg/models"
	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
	"github.com/ubermorgenland/swagger-mcp/pkg/services"
)

var errUsage = errors.New("usage")

func main() {
	if len(os.Args) < 2 || os.Args[1] == "help" {
		printHelp(os.Stdout)
		if len(os.Args) < 2 {
			os.Exit(1)
		}
		return
	}

	cfg, err := server.LoadConfig(server.DefaultEnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Initialize(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	svc := services.NewDocumentService(repository.NewSwaggerDocumentRepository(db), logger)
	if err := run(ctx, svc, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			printHelp(os.Stderr)
		}
		fmt.Fprintln(os.Stderr, err)
		db.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, svc *services.DocumentService, args []string, out io.Writer) error {
	command, args := args[0], args[1:]
	switch command {
	case "list":
		docs, err := svc.List(ctx)
		if err != nil {
			return err
		}
		printDocuments(out, docs)
	case "active":
		docs, err := svc.Active(ctx)
		if err != nil {
			return err
		}
		printDocuments(out, docs)
	case "import":
		if len(args) < 3 {
			return fmt.Errorf("%w: import <file> <name> <endpoint> [base-url] [api-key]", errUsage)
		}
		opts := services.ImportOptions{}
		if len(args) > 3 {
			opts.BaseURL = args[3]
		}
		if len(args) > 4 {
			opts.APIKey = args[4]
		}
		doc, err := svc.ImportFile(ctx, args[0], args[1], args[2], opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Imported '%s' with ID %d at endpoint '%s'\n", doc.Name, doc.ID, doc.EndpointPath)
	case "activate", "deactivate", "delete":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		switch command {
		case "activate":
			err = svc.Activate(ctx, id)
		case "deactivate":
			err = svc.Deactivate(ctx, id)
		default:
			err = svc.Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Document %d: %s done\n", id, command)
	case "set-key", "set-base-url":
		id, err := parseID(args)
		if err != nil {
			return err
		}
		value := ""
		if len(args) > 1 {
			value = args[1]
		}
		if command == "set-key" {
			err = svc.SetAPIKey(ctx, id, value)
		} else {
			err = svc.SetBaseURL(ctx, id, value)
		}
		if err != nil {
			return err
		}
		if value == "" {
			fmt.Fprintf(out, "Document %d: %s cleared\n", id, strings.TrimPrefix(command, "set-"))
		} else {
			fmt.Fprintf(out, "Document %d: %s updated\n", id, strings.TrimPrefix(command, "set-"))
		}
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
	return nil
}

func parseID(args []string) (int, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: missing document ID", errUsage)
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid ID %q: %w", args[0], err)
	}
	return id, nil
}

func printHelp(w io.Writer) {
	fmt.Fprint(w, `Swagger Document Manager

Commands:
  list                                             List all stored documents
  active                                           List only active documents
  import <file> <name> <endpoint> [base-url] [key] Import a document file
  activate <id>                                    Activate a document
  deactivate <id>                                  Deactivate a document
  delete <id>                                      Delete a document
  set-key <id> [key]                               Set or clear the upstream API key
  set-base-url <id> [url]                          Set or clear the upstream base URL
  help                                             Show this help message

Examples:
  spec-manager import connect.yaml connect /connect https://connect.example.com/__api__/
  spec-manager set-key 1 "your_api_key_here"

Environment Variables:
  DATABASE_URL                                     PostgreSQL connection string
`)
}

func printDocuments(w io.Writer, docs []*models.SwaggerDocument) {
	if len(docs) == 0 {
		fmt.Fprintln(w, "No documents found in the database.")
		return
	}

	fmt.Fprintf(w, "%-4s %-20s %-30s %-10s %-8s %-6s %-8s %s\n", "ID", "Name", "Title", "Version", "Active", "Format", "Has Key", "Endpoint")
	fmt.Fprintln(w, strings.Repeat("-", 110))
	for _, doc := range docs {
		format := ""
		if doc.FileFormat != nil {
			format = *doc.FileFormat
		}
		fmt.Fprintf(w, "%-4d %-20s %-30s %-10s %-8t %-6s %-8t %s\n",
			doc.ID,
			truncate(doc.Name, 20),
			truncate(deref(doc.Title), 30),
			truncate(deref(doc.Version), 10),
			doc.Active(),
			format,
			deref(doc.APIKey) != "",
			doc.EndpointPath)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
