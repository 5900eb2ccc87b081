package ollama

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
)

type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "ollama status error"
	}
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("ollama %s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("ollama %s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

func classifyOllamaError(err error) domain.InvocationReason {
	if err == nil {
		return domain.ReasonUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonCanceled
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return reasonForStatus(statusErr.StatusCode)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ReasonNetwork
	}
	return domain.ReasonUnknown
}

func reasonForStatus(code int) domain.InvocationReason {
	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return domain.ReasonAuth
	case code == http.StatusTooManyRequests:
		return domain.ReasonThrottled
	case code == http.StatusRequestTimeout || code >= 500:
		return domain.ReasonService
	case code == http.StatusNotFound:
		// Ollama answers 404 when the model has not been pulled.
		return domain.ReasonModel
	default:
		return domain.ReasonInvalidRequest
	}
}

func asInvocationError(err error) *domain.InvocationError {
	var invErr *domain.InvocationError
	if errors.As(err, &invErr) {
		return invErr
	}
	if resilience.IsCircuitOpen(err) {
		return domain.NewInvocationError(providerName, domain.ReasonCircuitOpen, err)
	}
	return domain.NewInvocationError(providerName, classifyOllamaError(err), err)
}
