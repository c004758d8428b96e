package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/handler"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type stubProvider struct{ name string }

func (p stubProvider) Name() string              { return p.name }
func (p stubProvider) AvailableModels() []string { return []string{p.name + "-small"} }
func (p stubProvider) DefaultModel() string      { return p.name + "-small" }
func (p stubProvider) IsConfigured() bool        { return true }
func (p stubProvider) Generate(context.Context, llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: "ok"}, nil
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ok", data["status"])
}

func TestReadyCheck(t *testing.T) {
	up := pingerFunc(func(context.Context) error { return nil })
	down := pingerFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name       string
		deps       map[string]handler.Pinger
		wantStatus int
		wantError  string
	}{
		{name: "no dependencies", deps: nil, wantStatus: http.StatusOK},
		{name: "all up", deps: map[string]handler.Pinger{"postgres": up, "redis": up}, wantStatus: http.StatusOK},
		{name: "nil dependency skipped", deps: map[string]handler.Pinger{"postgres": up, "redis": nil}, wantStatus: http.StatusOK},
		{name: "redis down", deps: map[string]handler.Pinger{"postgres": up, "redis": down}, wantStatus: http.StatusServiceUnavailable, wantError: "redis not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil)
			rec := httptest.NewRecorder()

			handler.ReadyCheck(tt.deps)(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeBody(t, rec)["error"])
			}
		})
	}
}

func TestListLLMProviders(t *testing.T) {
	router := llm.NewRouter("ollama")
	router.RegisterProvider(stubProvider{name: "ollama"})
	router.RegisterProvider(stubProvider{name: "openai"})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/llm-providers", nil)
	rec := httptest.NewRecorder()

	handler.ListLLMProviders(router)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	data := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "ollama", data["default_provider"])
	providers := data["providers"].([]any)
	require.Len(t, providers, 2)
	first := providers[0].(map[string]any)
	assert.Equal(t, "ollama", first["name"])
	assert.Equal(t, true, first["default"])
}
