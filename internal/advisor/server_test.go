package advisor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/loan-advisor/pkg/infra/server"
	"github.com/kart-io/loan-advisor/pkg/infra/tracing"
	cacheopts "github.com/kart-io/loan-advisor/pkg/options/cache"
	catalogopts "github.com/kart-io/loan-advisor/pkg/options/catalog"
	llmopts "github.com/kart-io/loan-advisor/pkg/options/llm"
	logopts "github.com/kart-io/loan-advisor/pkg/options/logger"
)

const fixtureProductID = "6f1c2d8e-3a41-4b7e-9c55-0d2f8a1b7e02"

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("GEMINI_API_KEY", "")

	srvOpts := server.NewOptions()
	srvOpts.HTTP.Mode = "test"
	srvOpts.HTTP.Addr = "127.0.0.1:0"

	catalog := catalogopts.NewOptions()
	catalog.SQLite.Path = ":memory:"
	catalog.Fixtures = "../../configs/products.yaml"

	llm := llmopts.NewProviderOptions()
	require.NoError(t, llm.Complete())

	return &Config{
		ServerOptions:  srvOpts,
		LogOptions:     logopts.NewOptions(),
		TracingOptions: tracing.NewOptions(),
		CatalogOptions: catalog,
		CacheOptions:   cacheopts.NewOptions(),
		LLMOptions:     llm,
	}
}

func serve(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.srv.HTTPServer().Engine().ServeHTTP(w, req)
	return w
}

func TestNewServerWithoutModelKey(t *testing.T) {
	s, err := testConfig(t).NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.cleanup)

	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCode int
		contains string
	}{
		{name: "catalog seeded", method: http.MethodGet, path: "/v1/products", wantCode: http.StatusOK, contains: "Green Auto Loan"},
		{name: "filtered", method: http.MethodGet, path: "/v1/products?bank=Fabrikam%20Bank", wantCode: http.StatusOK, contains: "HomeFirst Mortgage"},
		{name: "income above slider max", method: http.MethodGet, path: "/v1/products?income=1000000&apr_high=35", wantCode: http.StatusOK, contains: "Green Auto Loan"},
		{name: "non-finite income", method: http.MethodGet, path: "/v1/products?income=NaN", wantCode: http.StatusBadRequest, contains: "finite"},
		{name: "featured", method: http.MethodGet, path: "/v1/products/featured", wantCode: http.StatusOK, contains: "bestMatch"},
		{name: "detail", method: http.MethodGet, path: "/v1/products/" + fixtureProductID, wantCode: http.StatusOK, contains: "Vehicle Loan"},
		{name: "unknown route", method: http.MethodGet, path: "/v1/nope", wantCode: http.StatusNotFound},
		{name: "model status", method: http.MethodGet, path: "/v1/ai/status", wantCode: http.StatusOK, contains: `"available":false`},
		{
			name:     "chat unavailable",
			method:   http.MethodPost,
			path:     "/v1/ai/ask",
			body:     `{"productId":"` + fixtureProductID + `","message":"What is the APR?"}`,
			wantCode: http.StatusServiceUnavailable,
		},
		{name: "liveness", method: http.MethodGet, path: "/healthz", wantCode: http.StatusOK},
		{name: "not ready before run", method: http.MethodGet, path: "/readyz", wantCode: http.StatusServiceUnavailable},
		{name: "metrics", method: http.MethodGet, path: "/metrics", wantCode: http.StatusOK, contains: "loan_advisor_advisor_filter_requests_total"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(s, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			if tt.contains != "" {
				assert.Contains(t, w.Body.String(), tt.contains)
			}
		})
	}
}

func TestNewServerReadyChecksCatalog(t *testing.T) {
	s, err := testConfig(t).NewServer(context.Background())
	require.NoError(t, err)
	t.Cleanup(s.cleanup)

	assert.Equal(t, []string{"catalog"}, s.storage.List())

	s.health.SetReady(true)
	w := serve(s, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "catalog")
}

func TestNewServerRejectsBadFixtures(t *testing.T) {
	cfg := testConfig(t)
	cfg.CatalogOptions.Fixtures = "testdata/missing.yaml"

	_, err := cfg.NewServer(context.Background())
	require.Error(t, err)
}

func TestNewServerRejectsUnknownProvider(t *testing.T) {
	cfg := testConfig(t)
	cfg.LLMOptions.Provider = "ollama"

	_, err := cfg.NewServer(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat provider")
	assert.Contains(t, err.Error(), "registered: gemini, openai")
}
