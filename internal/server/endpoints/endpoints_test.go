package endpoints

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jackzampolin/courseforge/internal/api"
	"github.com/jackzampolin/courseforge/internal/coursegen"
	"github.com/jackzampolin/courseforge/internal/generation"
	"github.com/jackzampolin/courseforge/internal/metrics"
	"github.com/jackzampolin/courseforge/internal/providers"
	"github.com/jackzampolin/courseforge/internal/svcctx"
	"github.com/jackzampolin/courseforge/internal/testutil"
)

func testServices(t *testing.T, client generation.Client) *svcctx.Services {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settings := generation.DefaultSettings()

	svc, err := coursegen.New(coursegen.Config{Client: client, Settings: settings, Logger: logger})
	require.NoError(t, err)

	registry := providers.NewRegistry()
	registry.RegisterLLM("mock", providers.NewMockClient())

	return &svcctx.Services{
		Registry:        registry,
		DefaultProvider: "mock",
		Prompts:         generation.NewPromptResolver(logger),
		Generator:       svc,
		Settings:        settings,
		Metrics:         metrics.NewRecorder(10),
		Logger:          logger,
	}
}

// testMux mounts every endpoint behind a middleware that injects services.
func testMux(services *svcctx.Services) http.Handler {
	registry := api.NewRegistry()
	for _, ep := range All() {
		registry.Register(ep)
	}
	mux := http.NewServeMux()
	registry.RegisterRoutes(mux, func(next http.HandlerFunc) http.HandlerFunc { return next })

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if services != nil {
			r = r.WithContext(svcctx.WithServices(r.Context(), services))
		}
		mux.ServeHTTP(w, r)
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "failed to decode %q", rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	testMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestReady(t *testing.T) {
	t.Run("default provider registered", func(t *testing.T) {
		rec := httptest.NewRecorder()
		testMux(testServices(t, &generation.ScriptedClient{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("default provider missing", func(t *testing.T) {
		services := testServices(t, &generation.ScriptedClient{})
		services.DefaultProvider = "openai"
		rec := httptest.NewRecorder()
		testMux(services).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "degraded", decode[HealthResponse](t, rec).Status)
	})

	t.Run("no services", func(t *testing.T) {
		rec := httptest.NewRecorder()
		testMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	testMux(testServices(t, &generation.ScriptedClient{})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	got := decode[StatusResponse](t, rec)
	assert.Equal(t, "running", got.Server)
	assert.Equal(t, "mock", got.Providers.Default)
	assert.Len(t, got.Providers.LLM, 1)
	assert.Equal(t, generation.DefaultDomain, got.Generation.Domain)
	assert.Equal(t, 900, got.Generation.MinWords)
	assert.Equal(t, 100, got.Generation.MinParagraphWords)
	assert.Equal(t, 2, got.Generation.MaxRetries)
}

func postGenerate(t *testing.T, h http.Handler, body string) coursegen.Response {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/generate-course", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	return decode[coursegen.Response](t, rec)
}

func TestGenerateCourse(t *testing.T) {
	sufficient := testutil.MustJSON(t, testutil.UniformDocument(3, 3, 110))

	tests := []struct {
		name      string
		client    *generation.ScriptedClient
		body      string
		want      string
		wantError bool
	}{
		{
			name: "accepted",
			client: &generation.ScriptedClient{
				ClassifyResponses: []string{`{"is_qc": true}`},
				GenerateResponses: []string{sufficient},
			},
			body: `{"text": "Explain qubits"}`,
			want: sufficient,
		},
		{
			name:   "out of domain",
			client: &generation.ScriptedClient{ClassifyResponses: []string{`{"is_qc": false}`}},
			body:   `{"text": "Bake a cake"}`,
			want:   coursegen.NotValidContent,
		},
		{
			name:   "blank text",
			client: &generation.ScriptedClient{},
			body:   `{"text": "   "}`,
			want:   coursegen.NotValidContent,
		},
		{
			name:   "undecodable body",
			client: &generation.ScriptedClient{},
			body:   `{"text": `,
			want:   coursegen.NotValidContent,
		},
		{
			name:      "transport failure",
			client:    &generation.ScriptedClient{Err: context.DeadlineExceeded},
			body:      `{"text": "Explain qubits"}`,
			want:      coursegen.NotValidContent,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := postGenerate(t, testMux(testServices(t, tt.client)), tt.body)
			assert.Equal(t, tt.want, got.Content)
			assert.Equal(t, tt.wantError, got.Error != "", "error = %q", got.Error)
		})
	}

	t.Run("blank text makes no model call", func(t *testing.T) {
		client := &generation.ScriptedClient{}
		postGenerate(t, testMux(testServices(t, client)), `{"text": ""}`)
		assert.Empty(t, client.ClassifyCalls())
	})

	t.Run("generator not wired", func(t *testing.T) {
		got := postGenerate(t, testMux(nil), `{"text": "Explain qubits"}`)
		assert.Equal(t, coursegen.NotValidContent, got.Content)
		assert.NotEmpty(t, got.Error)
	})
}

func TestPrompts(t *testing.T) {
	h := testMux(testServices(t, &generation.ScriptedClient{}))

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts", nil))
		got := decode[PromptsListResponse](t, rec)
		require.Len(t, got.Prompts, 4)
		for i := 1; i < len(got.Prompts); i++ {
			assert.Less(t, got.Prompts[i-1].Key, got.Prompts[i].Key, "prompts not sorted")
		}
	})

	t.Run("get", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/course.expand.user", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		got := decode[PromptResponse](t, rec)
		assert.Equal(t, "course.expand.user", got.Key)
		assert.NotEmpty(t, got.Hash)
		assert.False(t, got.IsOverride)
	})

	t.Run("unknown", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/prompts/nope", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSwagger(t *testing.T) {
	rec := httptest.NewRecorder()
	testMux(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger.json", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var doc struct {
		Info  struct{ Title string } `json:"info"`
		Paths map[string]any         `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc), "swagger.json is not JSON")
	assert.Equal(t, "Courseforge API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/generate-course")
}

func TestMetrics(t *testing.T) {
	services := testServices(t, &generation.ScriptedClient{})
	services.Metrics.Record(metrics.Metric{Call: "classify", Model: "gpt-4o-mini", TotalTokens: 50, TotalSeconds: 0.5, Success: true})
	services.Metrics.Record(metrics.Metric{Call: "generate", Model: "gpt-4o-mini", TotalTokens: 1500, TotalSeconds: 4, Success: true})
	services.Metrics.Record(metrics.Metric{Call: "expand", Model: "gpt-4o-mini", TotalSeconds: 1, Success: false})
	h := testMux(services)

	t.Run("list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics?limit=2", nil))
		got := decode[MetricsListResponse](t, rec)
		require.Equal(t, 2, got.Count)
		assert.Equal(t, "expand", got.Metrics[0].Call)
	})

	t.Run("list filtered", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics?success=false", nil))
		got := decode[MetricsListResponse](t, rec)
		require.Equal(t, 1, got.Count)
		assert.Equal(t, "expand", got.Metrics[0].Call)
	})

	t.Run("bad filter", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics?success=maybe", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("summary", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/summary", nil))
		got := decode[MetricsSummaryResponse](t, rec)
		assert.Equal(t, 3, got.Recorded)
		assert.Equal(t, 3, got.Overall.Count)
		assert.Equal(t, 1, got.Overall.ErrorCount)
		assert.Equal(t, 1500, got.ByCall["generate"].TotalTokens)
		assert.Equal(t, 1550, got.ByModel["gpt-4o-mini"])
	})
}
