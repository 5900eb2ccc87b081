package ports

import (
	"context"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// DocumentProcessor is the inbound contract for a single extract → prompt → infer → interpret run.
type DocumentProcessor interface {
	Process(ctx context.Context, doc domain.UploadedDocument) (*domain.ProcessResult, error)
}

// ResponseInterpreter turns a raw model reply into a fully populated result.
type ResponseInterpreter interface {
	Interpret(raw string) (domain.InterpretedResult, error)
}

// ERPDispatcher records the user's accept/reject action on a processed document.
type ERPDispatcher interface {
	Dispatch(ctx context.Context, req domain.DispatchRequest) (*domain.ERPDispatch, error)
}
