package erp

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

func TestLogSinkWritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(slog.New(slog.NewJSONHandler(&buf, nil)))

	err := sink.Deliver(context.Background(), domain.ERPDispatch{
		ID:              "d-1",
		RunID:           "run-1",
		Decision:        domain.DecisionManualReview,
		ERPStatus:       domain.ERPNotReady,
		TransformedData: []byte(`{}`),
	})
	if err != nil {
		t.Fatalf("Deliver() error = %v", err)
	}

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("decode log entry: %v", err)
	}
	if entry["msg"] != "erp_dispatch" || entry["decision"] != "manual_review" || entry["run_id"] != "run-1" {
		t.Fatalf("unexpected log entry %v", entry)
	}
}

func TestLogSinkHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewLogSink(nil).Deliver(ctx, domain.ERPDispatch{}); err == nil {
		t.Fatalf("expected context error")
	}
}
