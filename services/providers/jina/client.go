// Package jina implements the providers.Embedder interface against the Jina
// AI embeddings API.
package jina

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spassist/sp-assistant/config"
	"github.com/spassist/sp-assistant/services/providers"
)

const (
	defaultBaseURL = "https://api.jina.ai/v1"
	defaultModel   = "jina-embeddings-v3"

	taskPassage = "retrieval.passage"
	taskQuery   = "retrieval.query"
)

// Client is a Jina embeddings client. The same client instance serves both
// ingestion-time and query-time embedding so every vector is produced by one
// model configuration. It performs no internal retry.
type Client struct {
	config     config.JinaConfig
	httpClient *http.Client
}

// NewClient creates a new Jina embeddings client
func NewClient(cfg config.JinaConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		config: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return "jina"
}

// Dimension returns the configured embedding dimension
func (c *Client) Dimension() int {
	return c.config.Dimension
}

// EmbedPassage embeds a document passage for storage
func (c *Client) EmbedPassage(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskPassage)
}

// EmbedQuery embeds a user question for similarity search
func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, taskQuery)
}

func (c *Client) embed(ctx context.Context, text, task string) ([]float32, error) {
	reqBody := embeddingRequest{
		Model: c.config.Model,
		Input: []string{text},
		Task:  task,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/embeddings", strings.NewReader(string(payload)))
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, c.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(respBody, &embResp); err != nil {
		return nil, providers.NewProviderError(c.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	if len(embResp.Data) == 0 || len(embResp.Data[0].Embedding) == 0 {
		return nil, providers.NewProviderError(c.Name(), "EMPTY_RESPONSE", "No embedding returned", httpResp.StatusCode, false, nil)
	}

	vector := embResp.Data[0].Embedding
	// A vector of the wrong dimension means the deployment is misconfigured
	// (model/provider mismatch between ingestion and query), which must fail
	// loudly rather than poison the store.
	if c.config.Dimension > 0 && len(vector) != c.config.Dimension {
		return nil, providers.NewProviderError(
			c.Name(),
			"DIMENSION_MISMATCH",
			fmt.Sprintf("expected %d-dimension vector, got %d", c.config.Dimension, len(vector)),
			httpResp.StatusCode,
			false,
			nil,
		)
	}

	return vector, nil
}

// handleErrorResponse handles Jina error responses
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Detail == "" {
		return providers.NewProviderError(c.Name(), "UNKNOWN_ERROR", string(body), statusCode, statusCode >= 500 || statusCode == 429, err)
	}

	retryable := statusCode >= 500 || statusCode == 429

	return providers.NewProviderError(
		c.Name(),
		"API_ERROR",
		errResp.Detail,
		statusCode,
		retryable,
		errors.New(errResp.Detail),
	)
}

// Jina-specific request/response types

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
	Task  string   `json:"task,omitempty"`
}

type embeddingResponse struct {
	Model string `json:"model"`
	Data  []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
