// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/AleutianAI/vata/services/vata"
	"github.com/AleutianAI/vata/services/vata/datatypes"
	"github.com/AleutianAI/vata/services/vata/history"
	vstore "github.com/AleutianAI/vata/services/vata/storage/badger"
	"github.com/AleutianAI/vata/services/vata/telemetry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestRouter(t *testing.T) (*gin.Engine, *Handlers) {
	t.Helper()
	engine, err := vata.NewEngine()
	require.NoError(t, err)
	handlers := NewHandlers(engine, vata.DefaultAnalysisContext(), "test")

	router := gin.New()
	router.GET("/health", handlers.HandleHealth)
	v1 := router.Group("/v1")
	RegisterRoutes(v1, handlers)
	return router, handlers
}

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleHealth(t *testing.T) {
	router, _ := setupTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
}

func TestHandleAnalyze(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := postJSON(t, router, "/v1/analyze", AnalyzeRequest{Text: "def f(x):\n    return x", Language: "python"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 46, resp.Report.Overall)
	assert.Equal(t, datatypes.CategoryMixed, resp.Report.Category)
	assert.Nil(t, resp.Attestation)
	assert.Empty(t, resp.RecordID)
}

func TestHandleAnalyze_RequestIDEcho(t *testing.T) {
	router, _ := setupTestRouter(t)
	data, _ := json.Marshal(AnalyzeRequest{Text: "x = 1"})
	req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewReader(data))
	req.Header.Set("X-Request-ID", "req-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
}

func TestHandleAnalyze_Rejected(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := postJSON(t, router, "/v1/analyze", AnalyzeRequest{Text: "password = 'abc123'", Language: "python"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, datatypes.CategoryRejected, resp.Report.Category)
	assert.Equal(t, 0, resp.Report.Overall)
	assert.NotEmpty(t, resp.Report.Violations)
}

func TestHandleAnalyze_Attest(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := postJSON(t, router, "/v1/analyze", AnalyzeRequest{Text: "def f(x):\n    return x", Language: "python", Attest: true})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Attestation)
	assert.Len(t, resp.Attestation.InputSHA256, 64)
	assert.Len(t, resp.Votes, 4)
}

func TestHandleAnalyze_BadRequests(t *testing.T) {
	router, _ := setupTestRouter(t)

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"malformed json", "{", "INVALID_REQUEST"},
		{"unknown language", `{"text":"x","language":"cobol"}`, "INVALID_CONFIGURATION"},
		{"bad thresholds", `{"text":"x","thresholds":{"human_leaning":20,"mixed":60}}`, "INVALID_CONFIGURATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/analyze", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
		})
	}
}

func TestHandleAnalyze_RecordsHistory(t *testing.T) {
	router, handlers := setupTestRouter(t)
	db, err := vstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := history.NewStore(db)
	handlers.WithHistory(store)

	w := postJSON(t, router, "/v1/analyze", AnalyzeRequest{Text: "x = 1", Path: "a.py"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp AnalyzeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RecordID)

	rec, err := store.Get(context.Background(), resp.RecordID)
	require.NoError(t, err)
	assert.Equal(t, "a.py", rec.Target)
	assert.Equal(t, history.KindAnalyze, rec.Kind)
}

func TestHandleHumanize(t *testing.T) {
	router, handlers := setupTestRouter(t)
	maxIter := 3
	seed := int64(5)

	actx := vata.DefaultAnalysisContext()
	actx.Language = datatypes.LanguagePython
	original, err := handlers.engine.Analyze(context.Background(), "def f(x):\n    return x\n", actx)
	require.NoError(t, err)

	w := postJSON(t, router, "/v1/humanize", HumanizeRequest{
		Text:          "def f(x):\n    return x\n",
		Language:      "python",
		Profile:       "mild",
		MaxIterations: &maxIter,
		Seed:          &seed,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res datatypes.TransformResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, datatypes.LanguagePython, res.Language)
	assert.LessOrEqual(t, res.Attempted, maxIter)
	assert.GreaterOrEqual(t, res.Report.Overall, original.Overall)
}

func TestHandleHumanize_Errors(t *testing.T) {
	router, _ := setupTestRouter(t)
	target := 150

	tests := []struct {
		name       string
		req        HumanizeRequest
		wantStatus int
		wantCode   string
	}{
		{"target out of range", HumanizeRequest{Text: "x = 1", TargetScore: &target}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown profile", HumanizeRequest{Text: "x = 1", Profile: "nope"}, http.StatusBadRequest, "INVALID_CONFIGURATION"},
		{"rejected input", HumanizeRequest{Text: "rm -rf /", Language: "shell"}, http.StatusUnprocessableEntity, "REJECTED_INPUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/v1/humanize", tt.req)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantCode, resp.Code)
			if tt.wantCode == "REJECTED_INPUT" {
				assert.NotEmpty(t, resp.Violations)
			}
		})
	}
}

func TestHandleProfiles(t *testing.T) {
	router, _ := setupTestRouter(t)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/profiles", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var resp ProfilesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	names := make([]string, 0, len(resp.Profiles))
	for _, p := range resp.Profiles {
		names = append(names, p.Name)
	}
	assert.Contains(t, names, "default")
	assert.Contains(t, names, "mild")
}

func TestNewRouter_Metrics(t *testing.T) {
	engine, err := vata.NewEngine()
	require.NoError(t, err)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewMetrics(provider.Meter("test"))
	require.NoError(t, err)

	router := NewRouter(NewHandlers(engine, vata.DefaultAnalysisContext(), "test"), metrics)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
