package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardError_WrapsCause(t *testing.T) {
	err := NewDatabaseConnectionFailedError("localhost:5432/realestate_db", context.DeadlineExceeded)

	assert.Equal(t, ErrCodeDatabaseConnectionFailed, err.Code)
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "DATABASE_CONNECTION_FAILED")
	assert.Contains(t, err.Error(), "context deadline exceeded")
	assert.False(t, err.Timestamp.IsZero())

	fields := err.Fields()
	assert.Equal(t, "DATABASE_CONNECTION_FAILED", fields["errorCode"])
	assert.Equal(t, "localhost:5432/realestate_db", fields["target"])
}

func TestEmbeddingDimensionError(t *testing.T) {
	err := NewEmbeddingDimensionError("p-1", 384, 12)

	assert.Equal(t, "want 384, got 12", err.Details)
	assert.Nil(t, err.Unwrap())
	assert.Equal(t, "p-1", err.Fields()["propertyId"])
}

func TestAsStandardError(t *testing.T) {
	assert.Nil(t, AsStandardError(nil))

	wrapped := fmt.Errorf("backfill: %w", NewEmbeddingFailedError("p-7", stderrors.New("status 503")))
	stdErr := AsStandardError(wrapped)
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeEmbeddingFailed, stdErr.Code)
	assert.True(t, HasCode(wrapped, ErrCodeEmbeddingFailed))
	assert.False(t, HasCode(wrapped, ErrCodeDatabaseUpdateFailed))

	plain := AsStandardError(stderrors.New("kaboom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "kaboom", plain.Details)
}
