// Package errors provides the structured error type shared by the backfill job.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigInvalid            ErrorCode = "CONFIG_INVALID"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
	ErrCodeDatabaseUpdateFailed     ErrorCode = "DATABASE_UPDATE_FAILED"
	ErrCodeTransactionCommitFailed  ErrorCode = "TRANSACTION_COMMIT_FAILED"
	ErrCodeEmbeddingFailed          ErrorCode = "EMBEDDING_FAILED"
	ErrCodeEmbeddingDimension       ErrorCode = "EMBEDDING_DIMENSION_MISMATCH"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Fields flattens the error for the map-based logger.
func (e *StandardError) Fields() map[string]interface{} {
	fields := map[string]interface{}{
		"errorCode":    string(e.Code),
		"errorMessage": e.Message,
	}
	if e.Details != "" {
		fields["errorDetails"] = e.Details
	}
	for k, v := range e.Metadata {
		fields[k] = v
	}
	return fields
}

func newError(code ErrorCode, message string, cause error) *StandardError {
	stdErr := &StandardError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		stdErr.Details = cause.Error()
	}
	return stdErr
}

// NewConfigInvalidError wraps a configuration loading failure.
func NewConfigInvalidError(err error) *StandardError {
	return newError(ErrCodeConfigInvalid, "Configuration could not be loaded", err)
}

// NewDatabaseConnectionFailedError wraps a failure to open or ping Postgres.
func NewDatabaseConnectionFailedError(target string, err error) *StandardError {
	stdErr := newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err)
	stdErr.Metadata = map[string]interface{}{"target": target}
	return stdErr
}

// NewQueryExecutionFailedError wraps a failed read of the properties table.
func NewQueryExecutionFailedError(err error) *StandardError {
	return newError(ErrCodeQueryExecutionFailed, "Database query execution error", err)
}

// NewDatabaseUpdateFailedError wraps a failed embedding write.
func NewDatabaseUpdateFailedError(propertyID string, err error) *StandardError {
	stdErr := newError(ErrCodeDatabaseUpdateFailed, "Database update failed", err)
	stdErr.Metadata = map[string]interface{}{"propertyId": propertyID}
	return stdErr
}

// NewTransactionCommitFailedError wraps a failed batch commit.
func NewTransactionCommitFailedError(err error) *StandardError {
	return newError(ErrCodeTransactionCommitFailed, "Transaction commit failed", err)
}

// NewEmbeddingFailedError wraps an encoder failure for one property.
func NewEmbeddingFailedError(propertyID string, err error) *StandardError {
	stdErr := newError(ErrCodeEmbeddingFailed, "Embedding generation failed", err)
	stdErr.Metadata = map[string]interface{}{"propertyId": propertyID}
	return stdErr
}

// NewEmbeddingDimensionError reports a vector of the wrong length.
func NewEmbeddingDimensionError(propertyID string, want, got int) *StandardError {
	stdErr := newError(ErrCodeEmbeddingDimension, "Embedding has unexpected dimension", nil)
	stdErr.Details = fmt.Sprintf("want %d, got %d", want, got)
	stdErr.Metadata = map[string]interface{}{"propertyId": propertyID}
	return stdErr
}

// AsStandardError finds a StandardError in err's chain, or wraps err as INTERNAL_ERROR.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err)
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}
