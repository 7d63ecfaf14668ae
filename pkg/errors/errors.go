package errors

import "fmt"

// ErrorType classifies a failure so callers can decide whether to retry it
type ErrorType string

const (
	ErrorTypeNetwork        ErrorType = "network"
	ErrorTypeTimeout        ErrorType = "timeout"
	ErrorTypeRateLimit      ErrorType = "rate_limit"
	ErrorTypeServerError    ErrorType = "server_error"
	ErrorTypeParsing        ErrorType = "parsing"
	ErrorTypeAuth           ErrorType = "auth"
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
	ErrorTypeUnknown        ErrorType = "unknown"
)

// Error is a transport error with type information.
// Code holds the HTTP status that produced it, or 0 for network level failures.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a typed error
func New(t ErrorType, code int, msg string) *Error {
	return &Error{Type: t, Code: code, Message: msg}
}

// Wrap creates a typed error around an underlying cause
func Wrap(t ErrorType, code int, msg string, err error) *Error {
	return &Error{Type: t, Code: code, Message: msg, Err: err}
}

// IsRetryable reports whether an error type is transient
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeParsing:
		return true
	case ErrorTypeAuth, ErrorTypeInvalidRequest:
		return false
	default:
		return false
	}
}

// FromStatusCode maps a non-2xx status returned by an upstream API to an error type
func FromStatusCode(statusCode int) ErrorType {
	switch {
	case statusCode == 401, statusCode == 403:
		return ErrorTypeAuth
	case statusCode == 429:
		return ErrorTypeRateLimit
	case statusCode >= 500:
		return ErrorTypeServerError
	case statusCode >= 400:
		return ErrorTypeInvalidRequest
	default:
		return ErrorTypeUnknown
	}
}
