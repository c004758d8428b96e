package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError(t *testing.T) {
	vendor := &domain.Requester{UserID: uuid.New(), Role: domain.RequesterVendor}

	tests := []struct {
		name       string
		err        error
		requester  *domain.Requester
		wantStatus int
	}{
		{name: "not found", err: fmt.Errorf("chatbot x: %w", domain.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "unauthorized anonymous", err: domain.ErrUnauthorized, wantStatus: http.StatusUnauthorized},
		{name: "unauthorized with identity", err: domain.ErrUnauthorized, requester: vendor, wantStatus: http.StatusForbidden},
		{name: "unsupported backend", err: domain.ErrUnsupportedBackend, wantStatus: http.StatusBadRequest},
		{name: "invalid input", err: fmt.Errorf("%w: question is required", domain.ErrInvalidInput), wantStatus: http.StatusBadRequest},
		{name: "corpus empty", err: domain.ErrCorpusEmpty, wantStatus: http.StatusUnprocessableEntity},
		{name: "build in progress", err: domain.ErrBuildInProgress, wantStatus: http.StatusConflict},
		{name: "embedding provider", err: domain.ErrEmbeddingProvider, wantStatus: http.StatusBadGateway},
		{name: "retrieval backend", err: domain.ErrRetrievalBackend, wantStatus: http.StatusBadGateway},
		{name: "anything else", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/chatbots", nil)
			if tt.requester != nil {
				req = req.WithContext(middleware.WithRequester(req.Context(), tt.requester))
			}
			rec := httptest.NewRecorder()

			writeError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			if tt.wantStatus == http.StatusInternalServerError {
				assert.Equal(t, "internal server error", body["error"])
			}
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantFields []string
	}{
		{name: "valid", body: `{"question":"what are the opening hours?"}`, wantOK: true},
		{name: "malformed", body: `{"question":`, wantOK: false},
		{name: "missing question", body: `{}`, wantOK: false, wantFields: []string{"Question"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			var input domain.AskRequest
			ok := decode(rec, req, &input)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			if len(tt.wantFields) > 0 {
				var body struct {
					Error map[string]string `json:"error"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				for _, f := range tt.wantFields {
					assert.Equal(t, "field is required", body.Error[f])
				}
			}
		})
	}
}

func TestURLID(t *testing.T) {
	id := uuid.New()
	r := chi.NewRouter()
	r.Get("/chatbots/{chatbotID}", func(w http.ResponseWriter, r *http.Request) {
		got, ok := urlID(w, r, "chatbotID")
		if !ok {
			return
		}
		assert.Equal(t, id, got)
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbots/"+id.String(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chatbots/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
