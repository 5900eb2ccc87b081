package ports

import (
	"context"
	"io"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// ContentExtractor converts an uploaded document into plain text.
type ContentExtractor interface {
	Extract(ctx context.Context, doc domain.UploadedDocument) (string, error)
}

// InferenceInvoker performs exactly one remote inference call.
type InferenceInvoker interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// ERPSink receives recorded dispatches.
type ERPSink interface {
	Deliver(ctx context.Context, dispatch domain.ERPDispatch) error
}

// TransformedDataExporter renders transformed_data as a downloadable artifact.
type TransformedDataExporter interface {
	ContentType() string
	FileName() string
	Export(w io.Writer, data domain.TransformedData) error
}

// PipelineObserver receives stage timings and run outcomes.
type PipelineObserver interface {
	ObserveStage(stage string, seconds float64, err error)
	ObserveRun(outcome string, seconds float64)
}
