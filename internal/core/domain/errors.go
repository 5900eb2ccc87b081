package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrEmptyExtraction      = errors.New("no content extracted")
	ErrInvocationFailed     = errors.New("inference invocation failed")
	ErrMalformedResponse    = errors.New("malformed model response")
	ErrInvalidInput         = errors.New("invalid input")
	ErrTemporary            = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// InvocationReason is the closed set of failure causes an inference adapter may report.
type InvocationReason string

const (
	ReasonAuth           InvocationReason = "auth"
	ReasonThrottled      InvocationReason = "throttled"
	ReasonNetwork        InvocationReason = "network"
	ReasonService        InvocationReason = "service"
	ReasonModel          InvocationReason = "model"
	ReasonInvalidRequest InvocationReason = "invalid_request"
	ReasonEmptyReply     InvocationReason = "empty_reply"
	ReasonCircuitOpen    InvocationReason = "circuit_open"
	ReasonCanceled       InvocationReason = "canceled"
	ReasonUnknown        InvocationReason = "unknown"
)

// Transient reports whether a retry could plausibly succeed.
func (r InvocationReason) Transient() bool {
	switch r {
	case ReasonThrottled, ReasonNetwork, ReasonService, ReasonCircuitOpen:
		return true
	default:
		return false
	}
}

// InvocationError is returned by every inference adapter. It matches ErrInvocationFailed
// and unwraps to the provider error.
type InvocationError struct {
	Provider string
	Reason   InvocationReason
	Cause    error
}

func NewInvocationError(provider string, reason InvocationReason, cause error) *InvocationError {
	if reason == "" {
		reason = ReasonUnknown
	}
	return &InvocationError{Provider: provider, Reason: reason, Cause: cause}
}

func (e *InvocationError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s invocation failed (%s)", e.Provider, e.Reason)
	}
	return fmt.Sprintf("%s invocation failed (%s): %v", e.Provider, e.Reason, e.Cause)
}

func (e *InvocationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvocationFailed}
	}
	return []error{ErrInvocationFailed, e.Cause}
}

// MalformedResponseError keeps the unparsed model reply for manual inspection.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrMalformedResponse}
	}
	return []error{ErrMalformedResponse, e.Cause}
}

// InvocationReasonOf returns the reason carried by err, or ReasonUnknown.
func InvocationReasonOf(err error) InvocationReason {
	var invErr *InvocationError
	if errors.As(err, &invErr) {
		return invErr.Reason
	}
	return ReasonUnknown
}

// RawResponseOf returns the unparsed reply carried by a MalformedResponseError.
func RawResponseOf(err error) (string, bool) {
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return malformed.Raw, true
	}
	return "", false
}
