// Package llm holds what the inference adapters share: usage reporting and the
// resilience classification of invocation failures.
package llm

import (
	"errors"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
)

// UsageRecorder receives token counts reported by the provider.
type UsageRecorder interface {
	RecordTokenUsage(provider, model string, inputTokens, outputTokens int)
}

// ClassifyInvocationError lets transient reasons be retried when the executor allows it.
// Canceled calls and caller mistakes never count against the breaker.
func ClassifyInvocationError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	if resilience.IsCircuitOpen(err) {
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	}

	var invErr *domain.InvocationError
	if !errors.As(err, &invErr) {
		return resilience.ErrorClassification{Retryable: false, RecordFailure: true}
	}
	switch invErr.Reason {
	case domain.ReasonCanceled, domain.ReasonInvalidRequest, domain.ReasonAuth:
		return resilience.ErrorClassification{Retryable: false, RecordFailure: false}
	default:
		return resilience.ErrorClassification{
			Retryable:     invErr.Reason.Transient(),
			RecordFailure: true,
		}
	}
}
