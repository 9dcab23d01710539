package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
	"github.com/ubermorgenland/swagger-mcp/pkg/services"
)

func newService(t *testing.T) (*services.DocumentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return services.NewDocumentService(repository.NewSwaggerDocumentRepository(db), nil), mock
}

func TestRun_List(t *testing.T) {
	svc, mock := newService(t)
	now := time.Now()
	mock.ExpectQuery("FROM swagger_documents").WillReturnRows(sqlmock.NewRows([]string{
		"id", "name", "title", "version", "content", "endpoint_path", "file_format",
		"file_size", "base_url", "api_key", "is_active", "created_at", "updated_at",
	}).AddRow(1, "connect", "Posit Connect API with a very long title", "1.0", "{}", "/connect", "json", 2, nil, "k", true, now, now))

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), svc, []string{"list"}, &out))
	assert.Contains(t, out.String(), "connect")
	assert.Contains(t, out.String(), "Posit Connect API with a ve...")
	assert.Contains(t, out.String(), "/connect")
}

func TestRun_Mutations(t *testing.T) {
	svc, mock := newService(t)
	ctx := context.Background()
	var out bytes.Buffer

	mock.ExpectExec("UPDATE swagger_documents SET is_active").WithArgs(2, true).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, run(ctx, svc, []string{"activate", "2"}, &out))
	assert.Contains(t, out.String(), "Document 2: activate done")

	mock.ExpectExec("UPDATE swagger_documents SET api_key").WithArgs(2, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	out.Reset()
	require.NoError(t, run(ctx, svc, []string{"set-key", "2"}, &out))
	assert.Equal(t, "Document 2: key cleared\n", out.String())

	mock.ExpectExec("DELETE FROM swagger_documents").WithArgs(9).WillReturnResult(sqlmock.NewResult(0, 0))
	err := run(ctx, svc, []string{"delete", "9"}, &out)
	assert.True(t, server.IsType(err, server.ErrorTypeNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRun_Usage(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	assert.ErrorIs(t, run(ctx, svc, []string{"import", "a.yaml"}, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run(ctx, svc, []string{"activate"}, &bytes.Buffer{}), errUsage)
	assert.ErrorIs(t, run(ctx, svc, []string{"frobnicate"}, &bytes.Buffer{}), errUsage)
	assert.ErrorContains(t, run(ctx, svc, []string{"delete", "x"}, &bytes.Buffer{}), "invalid ID")
}
