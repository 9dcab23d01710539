package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/database"
	"github.com/ubermorgenland/swagger-mcp/pkg/logging"
	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
	"github.com/ubermorgenland/swagger-mcp/pkg/services"
)

func main() {
	specsDir := "./specs"
	if len(os.Args) > 1 {
		specsDir = os.Args[1]
	}

	cfg, err := server.LoadConfig(server.DefaultEnvFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	defer logger.Sync()

	if _, err := os.Stat(specsDir); os.IsNotExist(err) {
		logger.Fatal("specs directory does not exist", zap.String("dir", specsDir))
	}

	ctx := context.Background()
	db, err := database.Initialize(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	svc := services.NewDocumentService(repository.NewSwaggerDocumentRepository(db), logger)
	imported, err := importDir(ctx, svc, specsDir, os.Stdout, logger)
	if err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}

	fmt.Printf("\nImport completed: %d documents imported successfully\n", imported)
	if imported > 0 {
		fmt.Println("\nTo view imported documents, run:")
		fmt.Println("  spec-manager list")
	}
}

// importDir imports every .yaml, .yml and .json file in dir. The file name without extension is
// the document name; the endpoint is "/" + name with underscores replaced by dashes.
func importDir(ctx context.Context, svc *services.DocumentService, dir string, out io.Writer, logger *zap.Logger) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read specs directory: %w", err)
	}

	imported := 0
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		ext := strings.ToLower(filepath.Ext(fileName))
		if ext != ".yaml" && ext != ".yml" && ext != ".json" {
			continue
		}

		name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		endpointPath := "/" + strings.ReplaceAll(name, "_", "-")

		if _, err := svc.ImportFile(ctx, filepath.Join(dir, fileName), name, endpointPath, services.ImportOptions{}); err != nil {
			logger.Warn("failed to import document", zap.String("file", fileName), zap.Error(err))
			continue
		}

		fmt.Fprintf(out, "Imported %s as '%s' with endpoint '%s'\n", fileName, name, endpointPath)
		imported++
	}
	return imported, nil
}
