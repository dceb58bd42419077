// Package errors provides standardized error handling for the ownership
// and feedback-ledger service.
package errors

import (
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeCandidateNotFound ErrorCode = "CANDIDATE_NOT_FOUND"
	ErrCodeJobNotFound       ErrorCode = "JOB_NOT_FOUND"

	ErrCodeLedgerWriteFailed ErrorCode = "LEDGER_WRITE_FAILED"
	ErrCodeLedgerDecodeEmpty ErrorCode = "LEDGER_DECODE_EMPTY"

	ErrCodeClaimConflict         ErrorCode = "CLAIM_CONFLICT"
	ErrCodeOwnershipUpdateFailed ErrorCode = "OWNERSHIP_UPDATE_FAILED"
	ErrCodeSweepFailed           ErrorCode = "SWEEP_FAILED"

	ErrCodeInvalidDateFormat ErrorCode = "INVALID_DATE_FORMAT"
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// ==========================
// 2. Error Constructors
// ==========================

// NewCandidateNotFoundError creates a non-retryable lookup error.
func NewCandidateNotFoundError(candidateID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCandidateNotFound,
		Message:   "Candidate not found",
		Details:   fmt.Sprintf("candidateId: %s", candidateID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewJobNotFoundError creates a non-retryable lookup error.
func NewJobNotFoundError(jobEngagementID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeJobNotFound,
		Message:   "Job engagement not found",
		Details:   fmt.Sprintf("jobEngagementId: %d", jobEngagementID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewLedgerWriteFailedError creates a retryable ledger persistence error.
func NewLedgerWriteFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeLedgerWriteFailed,
		Message:   "Failed to persist feedback ledger",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewClaimConflictError creates a non-retryable conflict error. The job
// was taken or stopped being claimable while the request was in flight.
func NewClaimConflictError(jobEngagementID int64) *StandardError {
	return &StandardError{
		Code:      ErrCodeClaimConflict,
		Message:   "Job engagement is no longer claimable",
		Details:   fmt.Sprintf("jobEngagementId: %d", jobEngagementID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewOwnershipUpdateFailedError creates a retryable transfer error.
func NewOwnershipUpdateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeOwnershipUpdateFailed,
		Message:   "Ownership transfer failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSweepFailedError creates a retryable sweep error.
func NewSweepFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSweepFailed,
		Message:   "Expiry sweep failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidDateFormatError creates a non-retryable input error.
func NewInvalidDateFormatError(field, value string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidDateFormat,
		Message:   "Date field could not be parsed",
		Details:   fmt.Sprintf("field: %s, value: %s", field, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationFailedError creates a non-retryable request validation error.
func NewValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Request validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError creates a retryable notification send error.
func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("channel: %s, error: %s", channel, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// GetRetryCount returns the recommended retry count for background jobs.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeQueryExecutionFailed,
		ErrCodeLedgerWriteFailed,
		ErrCodeOwnershipUpdateFailed,
		ErrCodeSweepFailed,
		ErrCodeNotificationSendFailed:
		return 3 // Retryable technical errors

	case ErrCodeQueryTimeout:
		return 2

	default:
		return 0 // Business errors: no retry. A lost claim stays lost.
	}
}

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "LEDGER"):
		return "LEDGER"
	case strings.Contains(codeStr, "CLAIM") || strings.Contains(codeStr, "OWNERSHIP") || strings.Contains(codeStr, "SWEEP"):
		return "OWNERSHIP"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "LOOKUP"
	default:
		return "OTHER"
	}
}
