// Package mcpadapter exposes the pipeline as MCP tools over stdio.
package mcpadapter

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/core/ports"
)

const (
	serverName    = "erp-document-processor"
	serverVersion = "1.0.0"
)

type Handlers struct {
	processor   ports.DocumentProcessor
	interpreter ports.ResponseInterpreter
}

func NewHandlers(processor ports.DocumentProcessor, interpreter ports.ResponseInterpreter) *Handlers {
	return &Handlers{processor: processor, interpreter: interpreter}
}

func NewServer(h *Handlers) *server.MCPServer {
	s := server.NewMCPServer(serverName, serverVersion, server.WithToolCapabilities(false))

	s.AddTool(mcp.NewTool("process_document",
		mcp.WithDescription("Extract a PDF or image, run it through the model and return the ERP-readiness assessment."),
		mcp.WithString("filename", mcp.Required(), mcp.Description("Original file name; its extension is used when mime_type is empty.")),
		mcp.WithString("mime_type", mcp.Description("Declared media type, e.g. application/pdf or image/png.")),
		mcp.WithString("content_base64", mcp.Required(), mcp.Description("File content, standard base64.")),
	), h.ProcessDocument)

	s.AddTool(mcp.NewTool("interpret_response",
		mcp.WithDescription("Parse a raw model reply into the six result fields, applying defaults."),
		mcp.WithString("raw", mcp.Required(), mcp.Description("Model reply text.")),
	), h.InterpretResponse)

	return s
}

func (h *Handlers) ProcessDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filename, err := request.RequireString("filename")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	encoded, err := request.RequireString("content_base64")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("content_base64 is not valid base64: %v", err)), nil
	}

	result, err := h.processor.Process(ctx, domain.UploadedDocument{
		Filename:  filename,
		MediaType: request.GetString("mime_type", ""),
		Body:      body,
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func (h *Handlers) InterpretResponse(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := request.RequireString("raw")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	result, err := h.interpreter.Interpret(raw)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(result)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func toolError(err error) *mcp.CallToolResult {
	msg := err.Error()
	if raw, ok := domain.RawResponseOf(err); ok {
		msg += "\nraw response:\n" + raw
	}
	return mcp.NewToolResultError(msg)
}
