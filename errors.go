package licensex

import (
	"errors"
	"fmt"
)

// ErrorCode represents license error categories.
type ErrorCode string

const (
	ErrCodeUsage             ErrorCode = "usage_error"
	ErrCodeMalformedToken    ErrorCode = "malformed_token"
	ErrCodeTruncatedToken    ErrorCode = "truncated_token"
	ErrCodeMalformedPayload  ErrorCode = "malformed_payload"
	ErrCodeSignatureMismatch ErrorCode = "signature_mismatch"
	ErrCodeBadExpiryFormat   ErrorCode = "bad_expiry_format"
	ErrCodeExpired           ErrorCode = "token_expired"
	ErrCodeMachineMismatch   ErrorCode = "machine_mismatch"
	ErrCodeSecretUnavailable ErrorCode = "secret_unavailable"
	ErrCodeInvalidConfig     ErrorCode = "invalid_config"
)

var errorMessages = map[ErrorCode]string{
	ErrCodeUsage:             "Usage error",
	ErrCodeMalformedToken:    "Malformed token",
	ErrCodeTruncatedToken:    "Truncated token",
	ErrCodeMalformedPayload:  "Malformed payload",
	ErrCodeSignatureMismatch: "Signature mismatch",
	ErrCodeBadExpiryFormat:   "Bad expiry format",
	ErrCodeExpired:           "License expired",
	ErrCodeMachineMismatch:   "Machine mismatch",
	ErrCodeSecretUnavailable: "Secret unavailable",
	ErrCodeInvalidConfig:     "Invalid configuration",
}

// Error wraps license errors with a stable code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	base := e.Message
	if base == "" {
		base = string(e.Code)
	}
	if e.Err == nil {
		return base
	}
	return fmt.Sprintf("%s: %v", base, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "" when there is none.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func newError(code ErrorCode, err error) error {
	msg, ok := errorMessages[code]
	if !ok {
		msg = string(code)
	}
	return &Error{Code: code, Message: msg, Err: err}
}
