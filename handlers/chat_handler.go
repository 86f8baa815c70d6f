package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/spassist/sp-assistant/services/providers"
	"github.com/spassist/sp-assistant/utils"
	"go.uber.org/zap"
)

// ChatRequest represents a chat turn request
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" validate:"required,min=1,dive"`
}

// ChatMessage represents a single chat message
type ChatMessage struct {
	Role    string `json:"role" validate:"required,oneof=system user assistant"`
	Content string `json:"content" validate:"required"`
}

// ChatService defines the interface for retrieval-augmented chat
type ChatService interface {
	Respond(ctx context.Context, messages []providers.Message) (*providers.CompletionStream, error)
}

// ChatHandler handles chat-related HTTP requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /api/v1/chat. The completion is relayed to the
// client as a server-sent-event stream without buffering the full response.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	messages := make([]providers.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = providers.Message{Role: m.Role, Content: m.Content}
	}

	stream, err := h.service.Respond(r.Context(), messages)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	defer stream.Body.Close()

	contentType := stream.ContentType
	if contentType == "" {
		contentType = "text/event-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	h.relay(r.Context(), w, stream.Body)
}

// relay copies the provider stream to the client, flushing after every read
// so tokens reach the client as they arrive. Client disconnect cancels the
// request context, which also aborts the upstream request.
func (h *ChatHandler) relay(ctx context.Context, w http.ResponseWriter, body io.Reader) {
	flusher, canFlush := w.(http.Flusher)

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("client disconnected during stream relay")
			return
		default:
		}

		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				h.logger.Debug("stream write failed", zap.Error(werr))
				return
			}
			if canFlush {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			h.logger.Warn("stream read failed", zap.Error(err))
			return
		}
	}
}
