// Package openrouter implements the providers.ChatStreamer interface against
// the OpenRouter chat completions API.
package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spassist/sp-assistant/config"
	"github.com/spassist/sp-assistant/services/providers"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
	defaultModel   = "deepseek/deepseek-chat-v3.1:free"
)

// Client is an OpenRouter streaming chat completions client.
type Client struct {
	config     config.OpenRouterConfig
	httpClient *http.Client
}

// NewClient creates a new OpenRouter client
func NewClient(cfg config.OpenRouterConfig) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Timeout == 0 {
		// Streaming keeps the connection open for the entire generation.
		cfg.Timeout = 5 * time.Minute
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
	return "openrouter"
}

// StreamCompletion forwards the conversation to OpenRouter with streaming
// enabled and returns the raw event-stream body for relay. The caller owns
// the body and must close it; cancelling ctx aborts the stream.
func (c *Client) StreamCompletion(ctx context.Context, req *providers.CompletionRequest) (*providers.CompletionStream, error) {
	chatReq := chatRequest{
		Model:    c.config.Model,
		Messages: make([]chatMessage, len(req.Messages)),
		Stream:   true,
	}
	for i, msg := range req.Messages {
		chatReq.Messages[i] = chatMessage{Role: msg.Role, Content: msg.Content}
	}

	payload, err := json.Marshal(chatReq)
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/chat/completions", strings.NewReader(string(payload)))
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	if c.config.Referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.config.Referer)
	}
	if c.config.Title != "" {
		httpReq.Header.Set("X-Title", c.config.Title)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(c.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}

	// Upstream failures are surfaced verbatim (status + body), never
	// swallowed into a generic error.
	if httpResp.StatusCode != http.StatusOK {
		defer httpResp.Body.Close()
		respBody, readErr := io.ReadAll(httpResp.Body)
		if readErr != nil {
			return nil, providers.NewProviderError(c.Name(), "READ_ERROR", "Failed to read error response", httpResp.StatusCode, false, readErr)
		}
		return nil, c.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	contentType := httpResp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/event-stream"
	}

	return &providers.CompletionStream{
		Body:        httpResp.Body,
		ContentType: contentType,
	}, nil
}

// handleErrorResponse handles OpenRouter error responses
func (c *Client) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(c.Name(), "UNKNOWN_ERROR", string(body), statusCode, statusCode >= 500 || statusCode == 429, nil)
	}

	retryable := statusCode >= 500 || statusCode == 429

	return providers.NewProviderError(c.Name(), "API_ERROR", errResp.Error.Message, statusCode, retryable, nil)
}

// OpenRouter-specific request/response types

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}
