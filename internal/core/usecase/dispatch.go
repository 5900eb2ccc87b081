package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/core/ports"
)

type DispatchUseCase struct {
	sink   ports.ERPSink
	logger *slog.Logger
	now    func() time.Time
}

func NewDispatchUseCase(sink ports.ERPSink, logger *slog.Logger) *DispatchUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &DispatchUseCase{
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *DispatchUseCase) Dispatch(ctx context.Context, req domain.DispatchRequest) (*domain.ERPDispatch, error) {
	dispatch, err := uc.buildDispatch(req)
	if err != nil {
		return nil, err
	}

	if err := uc.sink.Deliver(ctx, *dispatch); err != nil {
		return nil, fmt.Errorf("deliver erp dispatch: %w", err)
	}

	uc.logger.Info("erp_dispatch_recorded",
		"dispatch_id", dispatch.ID,
		"run_id", dispatch.RunID,
		"decision", string(dispatch.Decision),
		"erp_status", string(dispatch.ERPStatus),
	)
	return dispatch, nil
}

func (uc *DispatchUseCase) buildDispatch(req domain.DispatchRequest) (*domain.ERPDispatch, error) {
	if !req.Decision.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "dispatch", fmt.Errorf("unknown decision %q", req.Decision))
	}
	if strings.TrimSpace(req.RunID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "dispatch", errors.New("run_id is required"))
	}

	data := bytes.TrimSpace(req.TransformedData)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte(`{}`)
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "dispatch", fmt.Errorf("transformed_data must be an object: %w", err))
	}

	status := req.ERPStatus
	if status == "" {
		status = domain.ERPNotReady
	}

	return &domain.ERPDispatch{
		ID:              uuid.NewString(),
		RunID:           req.RunID,
		Filename:        req.Filename,
		Decision:        req.Decision,
		ERPStatus:       status,
		DocumentType:    req.DocumentType,
		TransformedData: json.RawMessage(data),
		CreatedAt:       uc.now(),
	}, nil
}
