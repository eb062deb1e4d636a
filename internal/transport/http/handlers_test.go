package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "certaudit/internal/errors"
	"certaudit/internal/report"
	"certaudit/internal/services"
	"certaudit/pkg/contracts/domain"
)

type fakeAudits struct {
	got services.AuditRequest
	err error
}

func (f *fakeAudits) Run(_ context.Context, req services.AuditRequest) (*services.AuditSummary, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &services.AuditSummary{
		RunID:   "run-1",
		Folders: req.Folders,
		Errors:  3,
		Counts:  map[domain.Check]int{domain.CheckDuplicates: 2, domain.CheckValidity: 1},
	}, nil
}

type fakeScores struct {
	got services.ScoreRequest
}

func (f *fakeScores) Score(_ context.Context, req services.ScoreRequest) (*services.ScoreSummary, error) {
	f.got = req
	return &services.ScoreSummary{
		Folders: req.Folders,
		Scorecard: &report.Scorecard{
			Max:    1,
			Scores: []report.SupplierScore{{TaxID: "11", Score: 1, Band: report.RiskHigh}},
		},
	}, nil
}

type fakeHealth struct{ status string }

func (f fakeHealth) HealthCheck(context.Context) services.HealthStatus {
	return services.HealthStatus{Status: f.status, Version: "test"}
}

type recorder struct {
	routes []string
}

func (r *recorder) RecordHTTPRequest(_ context.Context, route string, status int, _ time.Duration) {
	r.routes = append(r.routes, route)
}

func newTestRouter(audits AuditRunner, health string) (http.Handler, *fakeScores, *recorder) {
	scores := &fakeScores{}
	rec := &recorder{}
	router := NewRouter(RouterConfig{
		Audits:       audits,
		Scores:       scores,
		Health:       fakeHealth{status: health},
		Metrics:      http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { io.WriteString(w, "# metrics") }),
		Recorder:     rec,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Timeout:      time.Second,
		MaxBodyBytes: 1 << 10,
	})
	return router, scores, rec
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Body.Len() > 0 && strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestRunAudit(t *testing.T) {
	audits := &fakeAudits{}
	router, _, rec := newTestRouter(audits, "ok")

	resp, body := do(t, router, http.MethodPost, "/api/audits",
		`{"folders":[" 12 ","13"],"reference_date":"01/06/2024","formats":["csv"]}`)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "run-1", body["run_id"])
	assert.Equal(t, float64(3), body["errors"])
	assert.NotEmpty(t, resp.Header().Get("X-Request-ID"))

	assert.Equal(t, []string{"12", "13"}, audits.got.Folders)
	assert.Equal(t, "01/06/2024", audits.got.ReferenceDate)
	assert.Equal(t, []string{"csv"}, audits.got.Formats)
	assert.NotEmpty(t, rec.routes)
}

func TestRunAudit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"folders":`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
		{"no folders", `{"folders":[]}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad format", `{"folders":["12"],"formats":["pdf"]}`, nil, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"missing folder", `{"folders":["99"]}`, apperrors.NewNotFoundError("folder 99"), http.StatusNotFound, "NOT_FOUND"},
		{"unreadable workbook", `{"folders":["12"]}`, apperrors.NewParsingError("bad sheet", nil), http.StatusUnprocessableEntity, "PARSING"},
		{"source down", `{"folders":["12"],"download":true}`, apperrors.NewNetworkError("502 from source", nil), http.StatusBadGateway, "NETWORK"},
		{"database down", `{"folders":["12"]}`, apperrors.NewStorageError("insert failed", nil), http.StatusInternalServerError, "STORAGE"},
		{"too large", `{"folders":["` + strings.Repeat("1", 2048) + `"]}`, nil, http.StatusBadRequest, "INVALID_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, _ := newTestRouter(&fakeAudits{err: tt.serviceErr}, "ok")
			resp, body := do(t, router, http.MethodPost, "/api/audits", tt.body)
			assert.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.Equal(t, "/api/audits", body["instance"])
			assert.NotEmpty(t, body["trace_id"])
		})
	}
}

func TestScore(t *testing.T) {
	router, scores, _ := newTestRouter(&fakeAudits{}, "ok")

	resp, body := do(t, router, http.MethodPost, "/api/scores", `{"folders":["12"],"weights_file":"w.xlsx"}`)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "w.xlsx", scores.got.WeightsFile)

	card := body["scorecard"].(map[string]interface{})
	assert.Equal(t, float64(1), card["max"])

	resp, _ = do(t, router, http.MethodPost, "/api/scores", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	router, _, _ := newTestRouter(&fakeAudits{}, "ok")
	resp, body := do(t, router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "ok", body["status"])

	resp, _ = do(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "# metrics", resp.Body.String())

	router, _, _ = newTestRouter(&fakeAudits{}, "degraded")
	resp, _ = do(t, router, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	router, _, _ := newTestRouter(&fakeAudits{}, "ok")

	resp, body := do(t, router, http.MethodGet, "/api/nothing", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, float64(404), body["status"])

	resp, _ = do(t, router, http.MethodGet, "/api/audits", "")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}
