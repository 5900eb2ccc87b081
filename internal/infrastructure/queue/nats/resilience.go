package nats

import (
	"context"
	"errors"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

// connectionErrors mean the broker is unreachable right now; the dispatch itself is fine.
var connectionErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionDraining,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

// payloadErrors are caused by the dispatch or subject and will fail the same way every time.
var payloadErrors = []error{
	nats.ErrMaxPayload,
	nats.ErrBadSubject,
	nats.ErrInvalidMsg,
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func classifyPublishError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		return resilience.ErrorClassification{}
	case isAny(err, connectionErrors):
		return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
	case isAny(err, payloadErrors):
		// The broker is healthy; do not let a bad dispatch trip the breaker.
		return resilience.ErrorClassification{}
	default:
		return resilience.ErrorClassification{RecordFailure: true}
	}
}

// publishFailure maps a failed publish onto the domain kinds the dispatch endpoint reports.
func publishFailure(err error) error {
	switch {
	case err == nil:
		return nil
	case domain.IsKind(err, domain.ErrTemporary), domain.IsKind(err, domain.ErrInvalidInput):
		return err
	case isAny(err, payloadErrors):
		return domain.WrapError(domain.ErrInvalidInput, "publish erp dispatch", err)
	case resilience.IsCircuitOpen(err), isAny(err, connectionErrors):
		return domain.WrapError(domain.ErrTemporary, "publish erp dispatch", err)
	default:
		return err
	}
}
