package models

import "errors"

// Common errors used throughout the application
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrNoTickets          = errors.New("no tickets selected")
	ErrInvalidInput       = errors.New("invalid input")
	ErrGatewayUnavailable = errors.New("content gateway unavailable")
)

// FailureReason classifies a terminal checkout failure.
type FailureReason string

const (
	ReasonNoTickets            FailureReason = "no_tickets"
	ReasonTokenizationError    FailureReason = "tokenization_error"
	ReasonOrderBackendError    FailureReason = "order_backend_error"
	ReasonAuthenticationFailed FailureReason = "authentication_failed"
	ReasonTransportError       FailureReason = "transport_error"
)

// CheckoutError carries a failure reason alongside a user-presentable
// message. The message is shown verbatim when the order backend supplied one.
type CheckoutError struct {
	Reason  FailureReason
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Reason)
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// NewCheckoutError builds a CheckoutError wrapping an underlying cause.
func NewCheckoutError(reason FailureReason, message string, err error) *CheckoutError {
	return &CheckoutError{Reason: reason, Message: message, Err: err}
}
