package openapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLoadDescribesPublicOperations(t *testing.T) {
	doc, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, path := range []string{"/v1/documents/process", "/v1/exports/transformed", "/v1/erp/dispatch"} {
		item := doc.Paths.Find(path)
		if item == nil || item.Post == nil {
			t.Fatalf("expected POST %s in contract", path)
		}
	}

	raw, err := JSON(doc)
	if err != nil {
		t.Fatalf("JSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("contract is not valid json: %v", err)
	}
	if decoded["openapi"] != "3.0.3" {
		t.Fatalf("unexpected openapi version %v", decoded["openapi"])
	}
}

func newValidatedHandler(t *testing.T) (http.Handler, *int) {
	t.Helper()
	doc, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	v, err := NewValidator(doc, func(w http.ResponseWriter, status int, message string) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(message))
	})
	if err != nil {
		t.Fatalf("NewValidator() error = %v", err)
	}
	calls := 0
	return v.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	})), &calls
}

func TestValidatorRejectsInvalidDispatch(t *testing.T) {
	handler, calls := newValidatedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/erp/dispatch", bytes.NewBufferString(`{"run_id":"r","decision":"later"}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	if *calls != 0 {
		t.Fatalf("handler must not run for invalid request")
	}
}

func TestValidatorPassesValidDispatchAndUndocumentedPaths(t *testing.T) {
	handler, calls := newValidatedHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/erp/dispatch", bytes.NewBufferString(`{"run_id":"r","decision":"send_to_erp","transformed_data":{"a":1}}`))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected valid dispatch to pass, got %d: %s", res.Code, res.Body.String())
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if res.Code != http.StatusAccepted || *calls != 2 {
		t.Fatalf("expected undocumented path to pass through, got %d (calls=%d)", res.Code, *calls)
	}
}
