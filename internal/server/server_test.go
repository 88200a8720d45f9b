package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/courseforge/internal/config"
	"github.com/jackzampolin/courseforge/internal/coursegen"
	"github.com/jackzampolin/courseforge/internal/providers"
	"github.com/jackzampolin/courseforge/internal/testutil"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockConfig returns a config whose default provider is the mock client.
func mockConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Defaults.LLMProvider = providers.MockClientName
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config, mock *providers.MockClient) *Server {
	t.Helper()
	registry := providers.NewRegistry()
	if mock != nil {
		registry.RegisterLLM(providers.MockClientName, mock)
	}

	srv, err := New(Config{
		AppConfig: cfg,
		Registry:  registry,
		Logger:    discardLogger(),
	})
	require.NoError(t, err)
	return srv
}

func TestNew_Defaults(t *testing.T) {
	srv, err := New(Config{Logger: discardLogger()})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:5000", srv.Addr())
	assert.False(t, srv.IsRunning(), "IsRunning() before Start")

	services := srv.Services()
	require.NotNil(t, services)
	require.NotNil(t, services.Generator)
	require.NotNil(t, services.Prompts)
	assert.Equal(t, "openai", services.DefaultProvider)
}

func TestNew_ExplicitAddress(t *testing.T) {
	srv, err := New(Config{Host: "0.0.0.0", Port: "9999", Logger: discardLogger()})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9999", srv.Addr())
}

func TestNew_InvalidPromptOverride(t *testing.T) {
	cfg := mockConfig()
	cfg.Prompts = []config.PromptOverride{{Key: "course.unknown", Text: "hello"}}

	_, err := New(Config{AppConfig: cfg, Logger: discardLogger()})
	assert.Error(t, err, "override for an unknown prompt should be rejected")
}

func TestGenerateCourse_EndToEnd(t *testing.T) {
	doc := testutil.MustJSON(t, testutil.UniformDocument(3, 3, 110))
	mock := providers.NewMockClient(`{"is_qc": true}`, doc)
	srv := newTestServer(t, mockConfig(), mock)
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-course", strings.NewReader(`{"text":"Explain qubits"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp coursegen.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, doc, resp.Content)
	assert.EqualValues(t, 2, mock.RequestCount(), "model calls")
	assert.Equal(t, 2, srv.Metrics().Recorded(), "recorded metrics")
}

func TestGenerateCourse_MissingProviderIsSentinelWithError(t *testing.T) {
	h := newTestServer(t, mockConfig(), nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/generate-course", strings.NewReader(`{"text":"Explain qubits"}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp coursegen.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, coursegen.NotValidContent, resp.Content)
	assert.NotEmpty(t, resp.Error)
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantHeader string
	}{
		{"wildcard", []string{"*"}, "http://localhost:3000", "*"},
		{"listed origin", []string{"http://localhost:3000"}, "http://localhost:3000", "http://localhost:3000"},
		{"unlisted origin", []string{"http://localhost:3000"}, "http://evil.example", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mockConfig()
			cfg.Server.CORSOrigins = tt.origins
			h := newTestServer(t, cfg, providers.NewMockClient()).Handler()

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestCORS_Preflight(t *testing.T) {
	mock := providers.NewMockClient()
	h := newTestServer(t, mockConfig(), mock).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/generate-course", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
	assert.Zero(t, mock.RequestCount(), "preflight reached the model")
}

func TestReload(t *testing.T) {
	srv := newTestServer(t, mockConfig(), providers.NewMockClient())

	cfg := mockConfig()
	cfg.Generation.Domain = "Quantum Error Correction"
	cfg.Generation.MaxRetries = 1
	require.NoError(t, srv.Reload(cfg))

	status := getStatus(t, srv.Handler())
	assert.Equal(t, "Quantum Error Correction", status.Generation.Domain)
	assert.Equal(t, 1, status.Generation.MaxRetries)

	t.Run("invalid config keeps previous services", func(t *testing.T) {
		bad := mockConfig()
		bad.Prompts = []config.PromptOverride{{Key: "course.expand.user", Text: "{{.Unclosed"}}
		require.Error(t, srv.Reload(bad), "unparseable prompt override accepted")
		assert.Equal(t, "Quantum Error Correction", srv.Services().Settings.Domain)
	})
}

func getStatus(t *testing.T, h http.Handler) *testutil.StatusResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status testutil.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	return &status
}
