package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeValidation   = "VALIDATION_FAILED"
	ErrCodeBlocked      = "SITE_BLOCKED"
	ErrCodeTimeout      = "SITE_TIMEOUT"
	ErrCodeNetwork      = "NETWORK_ERROR"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeExtraction   = "EXTRACTION_FAILED"
	ErrCodeBrowserCrash = "BROWSER_CRASH"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ScrapeError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// ErrCode extracts the error code from err, or ErrCodeInternal when err is
// not a ScrapeError.
func ErrCode(err error) string {
	var se *ScrapeError
	if errors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// IsBlocked reports whether err is an anti-bot rejection.
func IsBlocked(err error) bool { return ErrCode(err) == ErrCodeBlocked }

// IsTimeout reports whether err is a deadline expiry.
func IsTimeout(err error) bool { return ErrCode(err) == ErrCodeTimeout }

// IsRetryable reports whether the same strategy may be retried.
// Blocked responses are never retried on the same strategy; retrying an
// unparsable document cannot help either.
func IsRetryable(err error) bool {
	switch ErrCode(err) {
	case ErrCodeNetwork, ErrCodeTimeout:
		return true
	}
	return false
}
