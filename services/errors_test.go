package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError(t *testing.T) {
	t.Run("formats message with wrapped error", func(t *testing.T) {
		inner := errors.New("connection refused")
		err := NewDomainError(ErrorTypeInternal, "database error", inner)

		assert.Contains(t, err.Error(), "internal")
		assert.Contains(t, err.Error(), "database error")
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("unwraps to the inner error", func(t *testing.T) {
		inner := errors.New("root cause")
		err := NewDomainError(ErrorTypeExternal, "provider failed", inner)

		assert.ErrorIs(t, err, inner)
	})

	t.Run("matches by type through Is", func(t *testing.T) {
		err := NewDomainError(ErrorTypeValidation, "bad field", nil)

		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.NotErrorIs(t, err, ErrDocumentNotFound)
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("handler: %w", ErrDocumentNotFound)

		assert.True(t, IsNotFoundError(err))
		assert.Equal(t, ErrorTypeNotFound, GetErrorType(err))
	})

	t.Run("details accumulate", func(t *testing.T) {
		err := NewDomainError(ErrorTypeIngestion, "batch failed", nil).
			WithDetail("document_name", "doc.pdf").
			WithDetail("batch_start", 5)

		details := GetErrorDetails(err)
		require.NotNil(t, details)
		assert.Equal(t, "doc.pdf", details["document_name"])
		assert.Equal(t, 5, details["batch_start"])
	})
}

func TestErrorTypeCheckers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		checker func(error) bool
	}{
		{"validation", ErrEmptyDocumentText, IsValidationError},
		{"not found", ErrDocumentNotFound, IsNotFoundError},
		{"ingestion", ErrIngestionFailed, IsIngestionError},
		{"external", ErrEmbeddingFailed, IsExternalError},
		{"degraded", ErrRetrievalDegraded, IsDegradedError},
		{"internal", ErrDatabaseError, IsInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.checker(tt.err))
		})
	}

	t.Run("plain errors match nothing", func(t *testing.T) {
		err := errors.New("plain")
		assert.False(t, IsValidationError(err))
		assert.False(t, IsExternalError(err))
		assert.Empty(t, string(GetErrorType(err)))
		assert.Nil(t, GetErrorDetails(err))
	})
}

func TestWrappers(t *testing.T) {
	inner := errors.New("io error")

	assert.True(t, IsInternalError(WrapInternal("failed", inner)))
	assert.True(t, IsExternalError(WrapExternal("failed", inner)))
	assert.True(t, IsIngestionError(WrapIngestion("failed", inner)))
	assert.ErrorIs(t, WrapInternal("failed", inner), inner)
}
