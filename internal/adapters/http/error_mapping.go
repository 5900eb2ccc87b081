package httpadapter

import (
	"net/http"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

type errorResponse struct {
	Error       string `json:"error"`
	Kind        string `json:"kind"`
	Reason      string `json:"reason,omitempty"`
	RawResponse string `json:"raw_response,omitempty"`
}

func mapErrorToHTTPStatus(err error) (int, string) {
	switch {
	case domain.IsKind(err, domain.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "unsupported_media_type"
	case domain.IsKind(err, domain.ErrEmptyExtraction):
		return http.StatusUnprocessableEntity, "empty_extraction"
	case domain.IsKind(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	case domain.IsKind(err, domain.ErrInvocationFailed):
		return http.StatusBadGateway, "invocation_failed"
	case domain.IsKind(err, domain.ErrMalformedResponse):
		return http.StatusBadGateway, "malformed_response"
	case domain.IsKind(err, domain.ErrTemporary):
		return http.StatusServiceUnavailable, "temporary"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := mapErrorToHTTPStatus(err)
	resp := errorResponse{Error: err.Error(), Kind: kind}
	if domain.IsKind(err, domain.ErrInvocationFailed) {
		resp.Reason = string(domain.InvocationReasonOf(err))
	}
	if raw, ok := domain.RawResponseOf(err); ok {
		resp.RawResponse = raw
	}
	writeJSON(w, status, resp)
}
