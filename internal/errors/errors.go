package errors

import "fmt"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AppError struct {
	Code      string
	Message   string
	Severity  Severity
	Retryable bool
	cause     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}

	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.cause
}

func (e *AppError) Cause() error {
	return e.Unwrap()
}

// NewStorageError wraps a user directory persistence failure.
func NewStorageError(cause error) *AppError {
	var underlyingMsg string
	if cause != nil {
		underlyingMsg = cause.Error()
	}

	return &AppError{
		Code:      "E200",
		Message:   fmt.Sprintf("Directory storage error: %s", underlyingMsg),
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

// NewTransportError wraps a failed notification delivery attempt.
func NewTransportError(cause error) *AppError {
	return &AppError{
		Code:      "E300",
		Message:   "Notification transport error",
		Severity:  SeverityMedium,
		Retryable: true,
		cause:     cause,
	}
}

// NewSourceError wraps an event source poll failure.
func NewSourceError(cause error) *AppError {
	return &AppError{
		Code:      "E400",
		Message:   "Event source error",
		Severity:  SeverityHigh,
		Retryable: true,
		cause:     cause,
	}
}

// NewValidationError reports malformed input or configuration.
func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:      "E100",
		Message:   msg,
		Severity:  SeverityLow,
		Retryable: false,
	}
}
