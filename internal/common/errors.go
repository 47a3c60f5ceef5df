package common

import "errors"

// Kind classifies an error for the presentation layer. Every error that
// crosses the orchestration boundary carries exactly one kind.
type Kind int

const (
	// KindInternal covers programming errors and unclassified failures.
	KindInternal Kind = iota
	// KindValidation marks client-side input violations; no network call was made.
	KindValidation
	// KindNetwork marks transport failures and 5xx responses; retry is safe.
	KindNetwork
	// KindBackendRejection marks a 4xx response whose message is surfaced verbatim.
	KindBackendRejection
	// KindGatewayCancelled marks a user-cancelled gateway checkout. Not an error state.
	KindGatewayCancelled
	// KindGatewayFailure marks a hard gateway failure before any charge settled.
	KindGatewayFailure
	// KindVerificationFailure marks a failed post-charge verification. Money may
	// have moved; the user must contact support rather than retry.
	KindVerificationFailure
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNetwork:
		return "network"
	case KindBackendRejection:
		return "backend_rejection"
	case KindGatewayCancelled:
		return "gateway_cancelled"
	case KindGatewayFailure:
		return "gateway_failure"
	case KindVerificationFailure:
		return "verification_failure"
	default:
		return "internal"
	}
}

// AppError represents an error with an attached kind, code and user-facing message.
type AppError struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
	Details any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(kind Kind, code, message string, err error) *AppError {
	return &AppError{Kind: kind, Code: code, Message: message, Err: err}
}

// KindOf extracts the kind from err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var target *AppError
	if errors.As(err, &target) && target != nil {
		return target.Kind
	}
	return KindInternal
}

// IsAppError checks whether the error is an AppError.
func IsAppError(err error) bool {
	var target *AppError
	return errors.As(err, &target)
}
