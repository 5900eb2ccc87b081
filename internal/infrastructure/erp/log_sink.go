// Package erp holds the ERP sinks that do not need an external system.
package erp

import (
	"context"
	"log/slog"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// LogSink records dispatches as structured log entries only.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, dispatch domain.ERPDispatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.logger.Info("erp_dispatch",
		"dispatch_id", dispatch.ID,
		"run_id", dispatch.RunID,
		"filename", dispatch.Filename,
		"decision", string(dispatch.Decision),
		"erp_status", string(dispatch.ERPStatus),
		"document_type", dispatch.DocumentType,
		"transformed_bytes", len(dispatch.TransformedData),
	)
	return nil
}
