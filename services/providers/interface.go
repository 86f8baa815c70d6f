// Package providers defines the interfaces for the external AI providers the
// core depends on: turning text into a vector, and streaming a chat
// completion. Core services depend on these abstractions so they can be
// tested with fakes.
package providers

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Embedder converts text into a fixed-dimension vector. Passage and query
// embedding are separate call sites but MUST share one provider/model
// configuration: mixing embedding spaces makes similarity meaningless.
// Implementations perform no internal retry; retrying is the caller's
// responsibility.
type Embedder interface {
	// EmbedPassage embeds a document passage at ingestion time.
	EmbedPassage(ctx context.Context, text string) ([]float32, error)

	// EmbedQuery embeds a user question at retrieval time.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed vector dimension of this configuration.
	Dimension() int
}

// Message is a single role-tagged conversation message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a streaming chat completion request.
type CompletionRequest struct {
	Messages []Message
}

// CompletionStream is the provider's incremental response. Body is the raw
// server-sent-event byte stream and must be closed by the consumer; it is
// relayed to callers without full buffering.
type CompletionStream struct {
	Body        io.ReadCloser
	ContentType string
}

// ChatStreamer streams a chat completion from a language model.
type ChatStreamer interface {
	// StreamCompletion forwards the conversation to the completion endpoint
	// with streaming enabled. A non-success upstream response is returned as
	// a *ProviderError carrying the upstream status and body.
	StreamCompletion(ctx context.Context, req *CompletionRequest) (*CompletionStream, error)
}

// ProviderError represents an error from an upstream AI provider
type ProviderError struct {
	Provider   string
	Code       string
	Message    string
	StatusCode int
	Retryable  bool
	Timestamp  time.Time
	Err        error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, err error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Timestamp:  time.Now(),
		Err:        err,
	}
}

// IsRetryable reports whether err is a retryable provider error
func IsRetryable(err error) bool {
	if providerErr, ok := err.(*ProviderError); ok {
		return providerErr.Retryable
	}
	return false
}
