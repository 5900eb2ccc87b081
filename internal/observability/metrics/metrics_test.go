package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddlewareCountsRequestsByStatus(t *testing.T) {
	m := NewHTTPServerMetrics("docproc-api")
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnsupportedMediaType)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/v1/documents/process", nil))

	got := testutil.ToFloat64(m.requestTotal.WithLabelValues("docproc-api", http.MethodPost, "/v1/documents/process", "415"))
	if got != 1 {
		t.Fatalf("expected one counted request, got %v", got)
	}
}

func TestPipelineObservations(t *testing.T) {
	m := NewHTTPServerMetrics("docproc-api")
	m.ObserveStage("invoke", 0.2, errors.New("boom"))
	m.ObserveRun("invocation_failure", 0.3)
	m.RecordTokenUsage("bedrock", "", 10, 0)
	m.RecordDispatch("send_to_erp", "log", nil)

	if got := testutil.ToFloat64(m.pipelineRunsTotal.WithLabelValues("docproc-api", "invocation_failure")); got != 1 {
		t.Fatalf("expected one run, got %v", got)
	}
	if got := testutil.ToFloat64(m.llmTokensTotal.WithLabelValues("docproc-api", "bedrock", "in", "unknown")); got != 10 {
		t.Fatalf("expected 10 input tokens, got %v", got)
	}
	if got := testutil.CollectAndCount(m.llmTokensTotal); got != 1 {
		t.Fatalf("zero output tokens should not create a series, got %d series", got)
	}
	if got := testutil.ToFloat64(m.erpDispatchesTotal.WithLabelValues("docproc-api", "send_to_erp", "log", "success")); got != 1 {
		t.Fatalf("expected one dispatch, got %v", got)
	}
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := NewWorkerMetrics("docproc-worker")
	m.StartLoad()
	m.FinishLoad("manual_review", 10*time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "docproc_worker_dispatch_load_total") {
		t.Fatalf("expected worker counter in exposition, got:\n%s", rec.Body.String())
	}
}
