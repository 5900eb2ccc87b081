package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/core/usecase"
)

type processorFake struct {
	got domain.UploadedDocument
	err error
}

func (f *processorFake) Process(_ context.Context, doc domain.UploadedDocument) (*domain.ProcessResult, error) {
	f.got = doc
	if f.err != nil {
		return nil, f.err
	}
	return &domain.ProcessResult{RunID: "run-1", Filename: doc.Filename, ERPReady: true}, nil
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) != 1 {
		t.Fatalf("expected one content item, got %+v", res)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func TestProcessDocumentDecodesContent(t *testing.T) {
	processor := &processorFake{}
	h := NewHandlers(processor, usecase.NewInterpreter())

	res, err := h.ProcessDocument(context.Background(), callRequest("process_document", map[string]any{
		"filename":       "invoice.pdf",
		"mime_type":      "application/pdf",
		"content_base64": base64.StdEncoding.EncodeToString([]byte("%PDF-1.4")),
	}))
	if err != nil {
		t.Fatalf("ProcessDocument() error = %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, res))
	}
	if string(processor.got.Body) != "%PDF-1.4" || processor.got.MediaType != "application/pdf" {
		t.Fatalf("unexpected upload %+v", processor.got)
	}

	var decoded map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &decoded); err != nil {
		t.Fatalf("result is not json: %v", err)
	}
	if decoded["run_id"] != "run-1" || decoded["erp_ready"] != true {
		t.Fatalf("unexpected result %v", decoded)
	}
}

func TestProcessDocumentReportsToolErrors(t *testing.T) {
	h := NewHandlers(&processorFake{}, usecase.NewInterpreter())

	res, err := h.ProcessDocument(context.Background(), callRequest("process_document", map[string]any{
		"filename":       "a.pdf",
		"content_base64": "***",
	}))
	if err != nil || !res.IsError {
		t.Fatalf("expected tool error for bad base64, got res=%+v err=%v", res, err)
	}

	res, _ = h.ProcessDocument(context.Background(), callRequest("process_document", map[string]any{
		"content_base64": "",
	}))
	if !res.IsError {
		t.Fatalf("expected tool error for missing filename")
	}

	h = NewHandlers(&processorFake{err: &domain.MalformedResponseError{Raw: "not json", Cause: errors.New("bad")}}, usecase.NewInterpreter())
	res, _ = h.ProcessDocument(context.Background(), callRequest("process_document", map[string]any{
		"filename":       "a.png",
		"content_base64": base64.StdEncoding.EncodeToString([]byte("x")),
	}))
	if !res.IsError || !strings.Contains(resultText(t, res), "not json") {
		t.Fatalf("expected raw reply in tool error, got %+v", res)
	}
}

func TestInterpretResponseAppliesDefaults(t *testing.T) {
	h := NewHandlers(&processorFake{}, usecase.NewInterpreter())

	res, err := h.InterpretResponse(context.Background(), callRequest("interpret_response", map[string]any{
		"raw": `{"summary":"s","erp_status":"READY"}`,
	}))
	if err != nil || res.IsError {
		t.Fatalf("unexpected failure res=%+v err=%v", res, err)
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(resultText(t, res)), &decoded); err != nil {
		t.Fatalf("result is not json: %v", err)
	}
	if decoded["domain"] != "Unknown" || decoded["summary"] != "s" {
		t.Fatalf("unexpected result %v", decoded)
	}
}

func TestNewServerRegistersTools(t *testing.T) {
	if NewServer(NewHandlers(&processorFake{}, usecase.NewInterpreter())) == nil {
		t.Fatalf("expected server")
	}
}
