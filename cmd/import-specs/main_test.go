package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/services"
)

func TestImportDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "posit_connect.json"),
		[]byte(`{"swagger":"2.0","info":{"title":"Connect","version":"1"},"paths":{}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"),
		[]byte(`{"swagger":"2.0","paths":{"/a":{"get":{"parameters":[{"$ref":"#/parameters/x"}]}}}}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o700))

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	svc := services.NewDocumentService(repository.NewSwaggerDocumentRepository(db), nil)

	now := time.Now()
	mock.ExpectQuery("INSERT INTO swagger_documents").
		WithArgs("posit_connect", "Connect", "1", sqlmock.AnyArg(), "/posit-connect", "json", sqlmock.AnyArg(), nil, nil, true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

	var out bytes.Buffer
	imported, err := importDir(context.Background(), svc, dir, &out, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, imported)
	assert.Equal(t, "Imported posit_connect.json as 'posit_connect' with endpoint '/posit-connect'\n", out.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportDir_MissingDir(t *testing.T) {
	_, err := importDir(context.Background(), nil, filepath.Join(t.TempDir(), "missing"), &bytes.Buffer{}, zap.NewNop())
	assert.Error(t, err)
}
