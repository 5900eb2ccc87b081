package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/core/ports"
)

const (
	StageExtract   = "extract"
	StagePrompt    = "prompt"
	StageInvoke    = "invoke"
	StageInterpret = "interpret"
)

type ProcessDocumentUseCase struct {
	extractor   ports.ContentExtractor
	invoker     ports.InferenceInvoker
	interpreter ports.ResponseInterpreter
	observer    ports.PipelineObserver
	logger      *slog.Logger
	now         func() time.Time
}

func NewProcessDocumentUseCase(
	extractor ports.ContentExtractor,
	invoker ports.InferenceInvoker,
	interpreter ports.ResponseInterpreter,
	observer ports.PipelineObserver,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	if interpreter == nil {
		interpreter = NewInterpreter()
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProcessDocumentUseCase{
		extractor:   extractor,
		invoker:     invoker,
		interpreter: interpreter,
		observer:    observer,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (uc *ProcessDocumentUseCase) Process(ctx context.Context, doc domain.UploadedDocument) (*domain.ProcessResult, error) {
	start := time.Now()
	runID := domain.NewRunID()
	log := uc.logger.With("run_id", runID, "filename", doc.Filename)

	result, err := uc.processPipeline(ctx, log, runID, doc)
	outcome := outcomeOf(err)
	uc.observer.ObserveRun(outcome, time.Since(start).Seconds())
	if err != nil {
		log.Warn("pipeline_failed", "outcome", outcome, "error", err)
		return nil, err
	}

	log.Info("pipeline_completed",
		"domain", result.Result.Domain,
		"document_type", result.Result.DocumentType,
		"erp_status", string(result.Result.ERPStatus),
		"defaulted_fields", len(result.Result.Defaulted),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return result, nil
}

func (uc *ProcessDocumentUseCase) processPipeline(ctx context.Context, log *slog.Logger, runID string, doc domain.UploadedDocument) (*domain.ProcessResult, error) {
	mediaType := domain.ResolveMediaType(doc.MediaType, doc.Filename)
	if domain.KindOf(mediaType) == domain.MediaKindUnsupported {
		return nil, domain.WrapError(domain.ErrUnsupportedMediaType, "check media type", fmt.Errorf("%q", doc.MediaType))
	}
	doc.MediaType = mediaType

	text, err := uc.extractText(ctx, log, doc)
	if err != nil {
		return nil, err
	}

	prompt := uc.buildPrompt(log, text)

	reply, err := uc.invoke(ctx, log, prompt)
	if err != nil {
		return nil, err
	}

	interpreted, err := uc.interpret(log, reply)
	if err != nil {
		return nil, err
	}

	return &domain.ProcessResult{
		RunID:         runID,
		Filename:      doc.Filename,
		MediaType:     mediaType,
		ExtractedText: text,
		Result:        interpreted,
		ERPReady:      interpreted.ERPStatus.Ready(),
		ProcessedAt:   uc.now(),
	}, nil
}

func (uc *ProcessDocumentUseCase) extractText(ctx context.Context, log *slog.Logger, doc domain.UploadedDocument) (string, error) {
	start := time.Now()
	text, err := uc.extractor.Extract(ctx, doc)
	if err == nil && strings.TrimSpace(text) == "" {
		err = domain.WrapError(domain.ErrEmptyExtraction, "extract content", errors.New("extraction yielded no text"))
	}
	uc.observeStage(log, StageExtract, start, err, "media_type", doc.MediaType, "chars", len(text))
	if err != nil {
		if domain.IsKind(err, domain.ErrEmptyExtraction) || domain.IsKind(err, domain.ErrUnsupportedMediaType) {
			return "", err
		}
		return "", fmt.Errorf("extract content: %w", err)
	}
	return text, nil
}

func (uc *ProcessDocumentUseCase) buildPrompt(log *slog.Logger, text string) string {
	start := time.Now()
	prompt := BuildPrompt(text)
	uc.observeStage(log, StagePrompt, start, nil, "prompt_chars", len(prompt))
	return prompt
}

func (uc *ProcessDocumentUseCase) invoke(ctx context.Context, log *slog.Logger, prompt string) (string, error) {
	start := time.Now()
	reply, err := uc.invoker.Invoke(ctx, prompt)
	if err != nil && !domain.IsKind(err, domain.ErrInvocationFailed) {
		err = domain.NewInvocationError("inference", domain.ReasonUnknown, err)
	}
	uc.observeStage(log, StageInvoke, start, err, "reply_chars", len(reply))
	if err != nil {
		return "", err
	}
	return reply, nil
}

func (uc *ProcessDocumentUseCase) interpret(log *slog.Logger, reply string) (domain.InterpretedResult, error) {
	start := time.Now()
	result, err := uc.interpreter.Interpret(reply)
	uc.observeStage(log, StageInterpret, start, err, "defaulted_fields", len(result.Defaulted))
	if err != nil {
		return domain.InterpretedResult{}, err
	}
	return result, nil
}

func (uc *ProcessDocumentUseCase) observeStage(log *slog.Logger, stage string, start time.Time, err error, attrs ...any) {
	elapsed := time.Since(start)
	uc.observer.ObserveStage(stage, elapsed.Seconds(), err)

	logAttrs := append([]any{"stage", stage, "duration_ms", float64(elapsed.Microseconds()) / 1000.0}, attrs...)
	if err != nil {
		log.Warn("pipeline_stage", append(logAttrs, "error", err)...)
		return
	}
	log.Debug("pipeline_stage", logAttrs...)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case domain.IsKind(err, domain.ErrUnsupportedMediaType):
		return "unsupported_media_type"
	case domain.IsKind(err, domain.ErrEmptyExtraction):
		return "empty_extraction"
	case domain.IsKind(err, domain.ErrInvocationFailed):
		return "invocation_failure"
	case domain.IsKind(err, domain.ErrMalformedResponse):
		return "malformed_response"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}

type noopObserver struct{}

func (noopObserver) ObserveStage(string, float64, error) {}
func (noopObserver) ObserveRun(string, float64)          {}
