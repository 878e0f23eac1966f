package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/apolzek/neosearch/internal/middleware"
	"github.com/apolzek/neosearch/internal/models"
	"github.com/apolzek/neosearch/internal/ratelimit"
	"github.com/apolzek/neosearch/internal/repository"
	"github.com/apolzek/neosearch/internal/service"
)

const testSecretKey = "test-secret-key"

func newTestHandler() *Handler {
	logger := zap.NewNop()
	store := repository.NewMemoryStore()
	limiter := ratelimit.NewMemoryCounter(100, time.Hour)
	svc := service.NewRegistryService(store, limiter, logger, service.Options{})
	auth := middleware.NewAuthMiddleware(testSecretKey, logger)
	return NewHandler(svc, logger, auth)
}

func createTestCookie(userID string) *http.Cookie {
	mac := hmac.New(sha256.New, []byte(testSecretKey))
	mac.Write([]byte(userID))
	signature := mac.Sum(nil)

	return &http.Cookie{
		Name:  "user_id",
		Value: userID + "." + hex.EncodeToString(signature),
	}
}

func TestImportHandler(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		body        string
		contentType string
		wantStatus  int
		wantCount   int
	}{
		{
			name:        "positive: two-item batch",
			method:      http.MethodPost,
			body:        `[{"url": "https://github.com/apolzek"}, {"url": "https://kubernetes.io", "category": "CNCF", "public": false}]`,
			contentType: "application/json",
			wantStatus:  http.StatusCreated,
			wantCount:   2,
		},
		{
			name:        "positive: empty array imports zero",
			method:      http.MethodPost,
			body:        `[]`,
			contentType: "application/json",
			wantStatus:  http.StatusCreated,
			wantCount:   0,
		},
		{
			name:        "positive: elements with extra keys",
			method:      http.MethodPost,
			body:        `[{"url": "https://github.com/apolzek", "source": "my-repo", "username": "alice"}]`,
			contentType: "application/json",
			wantStatus:  http.StatusCreated,
			wantCount:   1,
		},
		{
			name:        "negative: not an array",
			method:      http.MethodPost,
			body:        `{"url": "https://github.com/apolzek"}`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "negative: invalid url inside the batch",
			method:      http.MethodPost,
			body:        `[{"url": "https://github.com/apolzek"}, {"url": "nope"}]`,
			contentType: "application/json",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "negative: duplicate items in one batch",
			method:      http.MethodPost,
			body:        `[{"url": "https://golang.org"}, {"url": "https://golang.org"}]`,
			contentType: "application/json",
			wantStatus:  http.StatusConflict,
		},
		{
			name:        "negative: wrong content type",
			method:      http.MethodPost,
			body:        `[{"url": "https://golang.org"}]`,
			contentType: "text/plain",
			wantStatus:  http.StatusBadRequest,
		},
		{
			name:        "negative: wrong method",
			method:      http.MethodGet,
			body:        ``,
			contentType: "application/json",
			wantStatus:  http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler()
			router := h.SetupRouter()

			req := httptest.NewRequest(tt.method, "/api/registries/import", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			req.AddCookie(createTestCookie("test-user"))

			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			result := w.Result()
			defer result.Body.Close()

			assert.Equal(t, tt.wantStatus, result.StatusCode)

			if tt.wantStatus == http.StatusCreated {
				var response models.ImportResponse
				require.NoError(t, json.NewDecoder(result.Body).Decode(&response))
				assert.Equal(t, tt.wantCount, response.ImportedCount)
			}
		})
	}
}

func TestImportHandlerSecondImportConflicts(t *testing.T) {
	h := newTestHandler()
	router := h.SetupRouter()

	body := `[{"url": "https://golang.org", "tags": ["go"]}]`

	for i, wantStatus := range []int{http.StatusCreated, http.StatusConflict} {
		req := httptest.NewRequest(http.MethodPost, "/api/registries/import", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.AddCookie(createTestCookie("test-user"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		result := w.Result()
		result.Body.Close()
		assert.Equal(t, wantStatus, result.StatusCode, "request %d", i+1)
	}
}

func TestImportHandlerMintsIdentityForAnonymous(t *testing.T) {
	h := newTestHandler()
	router := h.SetupRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/registries/import",
		bytes.NewBufferString(`[{"url": "https://golang.org"}]`))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := w.Result()
	defer result.Body.Close()

	assert.Equal(t, http.StatusCreated, result.StatusCode)

	var gotCookie bool
	for _, cookie := range result.Cookies() {
		if cookie.Name == "user_id" && cookie.Value != "" {
			gotCookie = true
		}
	}
	assert.True(t, gotCookie, "a fresh signed identity cookie is issued")
}

func TestImportFromURLHandler(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"url": "https://golang.org"}, {"url": "https://kubernetes.io"}]`))
	}))
	defer upstream.Close()

	h := newTestHandler()
	router := h.SetupRouter()

	body, err := json.Marshal(models.ImportURLRequest{URL: upstream.URL})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/registries/import/url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(createTestCookie("test-user"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := w.Result()
	defer result.Body.Close()

	require.Equal(t, http.StatusCreated, result.StatusCode)

	var response models.ImportResponse
	require.NoError(t, json.NewDecoder(result.Body).Decode(&response))
	assert.Equal(t, 2, response.ImportedCount)
}

func TestImportFromURLHandlerFetchFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer upstream.Close()

	h := newTestHandler()
	router := h.SetupRouter()

	body, err := json.Marshal(models.ImportURLRequest{URL: upstream.URL})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/registries/import/url", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(createTestCookie("test-user"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	result := w.Result()
	defer result.Body.Close()

	assert.Equal(t, http.StatusBadGateway, result.StatusCode)
}
