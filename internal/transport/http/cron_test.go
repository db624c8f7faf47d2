package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	reportapp "github.com/astro-web3/dashboard-gate/internal/app/report"
	"github.com/astro-web3/dashboard-gate/internal/domain/report"
	httptransport "github.com/astro-web3/dashboard-gate/internal/transport/http"
	"github.com/gin-gonic/gin"
)

// recordingHandler keeps every record so tests can assert on logged content.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r.Clone())
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) errors() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []slog.Record
	for _, r := range h.records {
		if r.Level == slog.LevelError {
			out = append(out, r)
		}
	}
	return out
}

type countingDispatcher struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (d *countingDispatcher) SendDailyReport(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return d.err
}

func newCronRouter(dispatcher report.Dispatcher, log *slog.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)

	svc := reportapp.NewService(dispatcher, report.DailyReportJob("0 8 * * *"))
	handler := httptransport.NewCronHandler(svc, log)

	router := gin.New()
	router.GET("/api/cron", handler.Jobs)
	router.GET("/api/cron/daily-report", handler.DailyReport)
	return router
}

func TestCronHandler_DailyReport_Success(t *testing.T) {
	logs := &recordingHandler{}
	dispatcher := &countingDispatcher{}
	router := newCronRouter(dispatcher, slog.New(logs))

	req := httptest.NewRequest(http.MethodGet, "/api/cron/daily-report", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["success"] != true || len(body) != 1 {
		t.Errorf("body = %v, want {\"success\": true}", body)
	}
	if dispatcher.calls != 1 {
		t.Errorf("dispatcher calls = %d, want 1", dispatcher.calls)
	}
	if n := len(logs.errors()); n != 0 {
		t.Errorf("error records = %d, want 0", n)
	}
}

func TestCronHandler_DailyReport_Failure(t *testing.T) {
	logs := &recordingHandler{}
	dispatcher := &countingDispatcher{err: errors.New("smtp: connection refused")}
	router := newCronRouter(dispatcher, slog.New(logs))

	req := httptest.NewRequest(http.MethodGet, "/api/cron/daily-report", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["error"] != "Failed to send daily report" || len(body) != 1 {
		t.Errorf("body = %v, want {\"error\": \"Failed to send daily report\"}", body)
	}
	if strings.Contains(w.Body.String(), "smtp") {
		t.Errorf("response leaks the cause: %s", w.Body.String())
	}

	errs := logs.errors()
	if len(errs) != 1 {
		t.Fatalf("error records = %d, want exactly 1", len(errs))
	}

	var logged string
	errs[0].Attrs(func(a slog.Attr) bool {
		if a.Key == "error" {
			logged = a.Value.String()
		}
		return true
	})
	if !strings.Contains(logged, "connection refused") {
		t.Errorf("logged error = %q, want the dispatcher cause", logged)
	}
}

func TestCronHandler_DailyReport_TwoCallsTwoAttempts(t *testing.T) {
	logs := &recordingHandler{}
	dispatcher := &countingDispatcher{}
	router := newCronRouter(dispatcher, slog.New(logs))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron/daily-report", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("call %d: expected status %d, got %d", i, http.StatusOK, w.Code)
		}
	}

	dispatcher.err = errors.New("boom")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron/daily-report", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}

	if dispatcher.calls != 3 {
		t.Errorf("dispatcher calls = %d, want 3", dispatcher.calls)
	}
	if n := len(logs.errors()); n != 1 {
		t.Errorf("error records = %d, want 1", n)
	}
}

func TestCronHandler_Jobs(t *testing.T) {
	router := newCronRouter(&countingDispatcher{}, slog.New(&recordingHandler{}))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cron", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body struct {
		Jobs []report.Job `json:"jobs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(body.Jobs) != 1 || body.Jobs[0].Path != "/api/cron/daily-report" {
		t.Errorf("jobs = %+v", body.Jobs)
	}
}
