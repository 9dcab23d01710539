package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ubermorgenland/swagger-mcp/pkg/loader"
	"github.com/ubermorgenland/swagger-mcp/pkg/metrics"
	"github.com/ubermorgenland/swagger-mcp/pkg/openapi2mcp"
	"github.com/ubermorgenland/swagger-mcp/pkg/repository"
	"github.com/ubermorgenland/swagger-mcp/pkg/server"
)

const usersDoc = `swagger: "2.0"
info:
  title: Users
  version: "2.1"
paths:
  /users/{id}:
    get:
      operationId: getUser
      parameters:
        - name: id
          in: path
          required: true
          type: string
  /users:
    get:
      operationId: listUsers
`

const contentDoc = `{"openapi":"3.0.0","info":{"title":"Content","version":"1"},"paths":{"/content":{"get":{"operationId":"getContents"}}}}`

func newDocumentService(t *testing.T) (*DocumentService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentService(repository.NewSwaggerDocumentRepository(db), zap.NewNop()), mock
}

func TestImportFile(t *testing.T) {
	svc, mock := newDocumentService(t)
	path := filepath.Join(t.TempDir(), "users.yaml")
	require.NoError(t, os.WriteFile(path, []byte(usersDoc), 0o600))

	now := time.Now()
	mock.ExpectQuery("INSERT INTO swagger_documents").
		WithArgs("users", "Users", "2.1", usersDoc, "/users", "yaml", len(usersDoc), "https://h/", "k", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(1, now, now))

	doc, err := svc.ImportFile(context.Background(), path, "users", "/users", ImportOptions{BaseURL: "https://h/", APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, 1, doc.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportFile_Errors(t *testing.T) {
	svc, mock := newDocumentService(t)
	ctx := context.Background()

	_, err := svc.ImportFile(ctx, filepath.Join(t.TempDir(), "missing.yaml"), "x", "/x", ImportOptions{})
	assert.True(t, server.IsType(err, server.ErrorTypeNotFound))

	_, err = svc.CreateFromContent(ctx, "bad", "/bad", `{"swagger":"2.0","paths":{"/a":{"get":{"parameters":[{"$ref":"#/parameters/missing"}]}}}}`, "json", ImportOptions{})
	require.Error(t, err)
	assert.True(t, server.IsType(err, server.ErrorTypeValidation))

	mock.ExpectQuery("INSERT INTO swagger_documents").WillReturnError(errors.New("duplicate key value"))
	_, err = svc.CreateFromContent(ctx, "content", "/content", contentDoc, "json", ImportOptions{})
	assert.True(t, server.IsType(err, server.ErrorTypeDatabase))
}

func TestDocumentService_Mutations(t *testing.T) {
	svc, mock := newDocumentService(t)
	ctx := context.Background()

	mock.ExpectExec("UPDATE swagger_documents SET is_active").WithArgs(1, true).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.Activate(ctx, 1))

	mock.ExpectExec("UPDATE swagger_documents SET is_active").WithArgs(2, false).WillReturnResult(sqlmock.NewResult(0, 0))
	err := svc.Deactivate(ctx, 2)
	assert.True(t, server.IsType(err, server.ErrorTypeNotFound))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	mock.ExpectExec("DELETE FROM swagger_documents").WithArgs(3).WillReturnError(errors.New("connection reset"))
	assert.True(t, server.IsType(svc.Delete(ctx, 3), server.ErrorTypeDatabase))

	mock.ExpectExec("UPDATE swagger_documents SET api_key").WithArgs(4, nil).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.SetAPIKey(ctx, 4, ""))

	mock.ExpectExec("UPDATE swagger_documents SET base_url").WithArgs(4, "https://new/").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, svc.SetBaseURL(ctx, 4, "https://new/"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func loadSpecs(t *testing.T, baseURL string, docs map[string]string, order ...string) []*loader.LoadedSpec {
	t.Helper()
	l := loader.New(loader.WithUpstream(baseURL, "secret"))
	var specs []*loader.LoadedSpec
	for _, endpoint := range order {
		spec, err := l.Process(context.Background(), endpoint, endpoint, []byte(docs[endpoint]))
		require.NoError(t, err)
		specs = append(specs, spec)
	}
	return specs
}

func TestSessionManager(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(r.Method + " " + r.URL.Path))
	}))
	defer upstream.Close()

	docs := map[string]string{"users": usersDoc, "content": contentDoc}
	specs := loadSpecs(t, upstream.URL, docs, "users", "content")

	collector := metrics.NewCollector("test", zap.NewNop())
	m := NewSessionManager(func(context.Context) ([]*loader.LoadedSpec, error) { return specs, nil }, SessionConfig{
		Metrics: collector,
		Logger:  zap.NewNop(),
	})
	assert.Nil(t, m.Default())
	assert.Empty(t, m.Tools())

	endpoints, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "content"}, endpoints)

	var names []string
	for _, tool := range m.Tools() {
		names = append(names, tool.Name)
	}
	assert.Equal(t, []string{"listUsers", "getUser", "getContents"}, names)
	require.NoError(t, testutil.GatherAndCompare(collector.Registry(), strings.NewReader(`
# HELP test_tools_registered Number of tools in the current tool table
# TYPE test_tools_registered gauge
test_tools_registered 3
`), "test_tools_registered"))

	users := m.Default()
	require.NotNil(t, users)
	assert.Equal(t, "users", users.Spec.Endpoint)

	text, err := users.Invoker.Invoke(context.Background(), "getUser", map[string]any{"id": "42"})
	require.NoError(t, err)
	assert.Equal(t, "GET /users/42", text)
	assert.Equal(t, "Key secret", gotAuth)

	content, ok := m.Session("content")
	require.True(t, ok)
	text, err = content.Invoker.Invoke(context.Background(), "getContents", nil)
	require.NoError(t, err)
	assert.Equal(t, "GET /content", text)
}

func TestSessionManager_ReloadFailureKeepsSessions(t *testing.T) {
	specs := loadSpecs(t, "https://api.example.com/", map[string]string{"users": usersDoc}, "users")
	fail := false
	m := NewSessionManager(func(context.Context) ([]*loader.LoadedSpec, error) {
		if fail {
			return nil, server.NewError(server.ErrorTypeDatabase, "store down", "")
		}
		return specs, nil
	}, SessionConfig{Tools: openapi2mcp.ToolGenOptions{Include: []string{"getUser"}}})

	_, err := m.Reload(context.Background())
	require.NoError(t, err)
	require.Len(t, m.Tools(), 1)

	fail = true
	_, err = m.Reload(context.Background())
	require.Error(t, err)
	assert.Len(t, m.Tools(), 1)
	assert.NotNil(t, m.Default())
}

func TestSessionManager_ServerFor(t *testing.T) {
	docs := map[string]string{"users": usersDoc, "content": contentDoc}
	specs := loadSpecs(t, "https://api.example.com/", docs, "users", "content", "users")
	m := NewSessionManager(func(context.Context) ([]*loader.LoadedSpec, error) { return specs, nil }, SessionConfig{})
	endpoints, err := m.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "content"}, endpoints)

	users, _ := m.Session("users")
	content, _ := m.Session("content")

	tests := map[string]any{
		"/mcp":          users.Server,
		"/mcp/":         users.Server,
		"/mcp/content":  content.Server,
		"/mcp/content/": content.Server,
	}
	for path, want := range tests {
		r := httptest.NewRequest(http.MethodPost, path, nil)
		assert.Same(t, want, m.ServerFor(r, "/mcp"), path)
	}
	assert.Nil(t, m.ServerFor(httptest.NewRequest(http.MethodPost, "/mcp/unknown", nil), "/mcp"))
}

func TestSessionManager_Poll(t *testing.T) {
	specs := loadSpecs(t, "https://api.example.com/", map[string]string{"users": usersDoc}, "users")
	calls := make(chan struct{}, 10)
	m := NewSessionManager(func(context.Context) ([]*loader.LoadedSpec, error) {
		select {
		case calls <- struct{}{}:
		default:
		}
		return specs, nil
	}, SessionConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Poll(ctx, 5*time.Millisecond)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-calls:
		case <-time.After(2 * time.Second):
			t.Fatal("poll did not reload")
		}
	}
	cancel()
	<-done
	assert.NotNil(t, m.Default())
}
