package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/kirillkom/erp-document-processor/internal/adapters/mcp"
	"github.com/kirillkom/erp-document-processor/internal/bootstrap"
	"github.com/kirillkom/erp-document-processor/internal/config"
	"github.com/kirillkom/erp-document-processor/internal/observability/logging"
)

const serviceName = "docproc-mcp"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)

	app, err := bootstrap.New(context.Background(), cfg, logger, serviceName)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := mcpadapter.NewServer(mcpadapter.NewHandlers(app.Processor, app.Interpreter))
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_server_error", "error", err)
	}
}
