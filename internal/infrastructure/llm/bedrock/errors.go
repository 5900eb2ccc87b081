package bedrock

import (
	"context"
	"errors"
	"net"

	"github.com/aws/smithy-go"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
	"github.com/kirillkom/erp-document-processor/internal/infrastructure/resilience"
)

func classifyBedrockError(err error) domain.InvocationReason {
	if err == nil {
		return domain.ReasonUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.ReasonCanceled
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException", "UnrecognizedClientException", "InvalidSignatureException",
			"ExpiredTokenException", "IncompleteSignature", "MissingAuthenticationToken":
			return domain.ReasonAuth
		case "ThrottlingException", "ServiceQuotaExceededException", "TooManyRequestsException":
			return domain.ReasonThrottled
		case "ValidationException", "ResourceNotFoundException":
			return domain.ReasonInvalidRequest
		case "ModelTimeoutException", "ModelErrorException", "ModelNotReadyException", "ModelStreamErrorException":
			return domain.ReasonModel
		case "InternalServerException", "ServiceUnavailableException":
			return domain.ReasonService
		}
		if apiErr.ErrorFault() == smithy.FaultServer {
			return domain.ReasonService
		}
		return domain.ReasonUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.ReasonNetwork
	}
	return domain.ReasonUnknown
}

func asInvocationError(err error) *domain.InvocationError {
	var invErr *domain.InvocationError
	if errors.As(err, &invErr) {
		return invErr
	}
	if resilience.IsCircuitOpen(err) {
		return domain.NewInvocationError(providerName, domain.ReasonCircuitOpen, err)
	}
	return domain.NewInvocationError(providerName, classifyBedrockError(err), err)
}
