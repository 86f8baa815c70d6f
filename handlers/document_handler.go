package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/spassist/sp-assistant/models"
	"github.com/spassist/sp-assistant/services/ingest"
	"github.com/spassist/sp-assistant/utils"
	"go.uber.org/zap"
)

// IngestRequest represents a document ingestion request
type IngestRequest struct {
	Text         string `json:"text" validate:"required"`
	DocumentName string `json:"document_name" validate:"required,max=255"`
}

// IngestResponse represents the result of an ingestion run
type IngestResponse struct {
	Success         bool   `json:"success"`
	ChunksProcessed int    `json:"chunksProcessed"`
	DocumentName    string `json:"documentName"`
}

// DocumentService defines the interface for document operations
type DocumentService interface {
	IngestDocument(ctx context.Context, documentName, text string) (*ingest.Result, error)
	DeleteDocument(ctx context.Context, documentName string) error
	ListDocuments(ctx context.Context) ([]models.DocumentInfo, error)
}

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	service DocumentService
	logger  *zap.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service DocumentService, logger *zap.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  logger,
	}
}

// HandleIngest handles POST /api/v1/documents
func (h *DocumentHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	result, err := h.service.IngestDocument(r.Context(), req.DocumentName, req.Text)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteJSON(w, http.StatusOK, IngestResponse{
		Success:         true,
		ChunksProcessed: result.ChunksProcessed,
		DocumentName:    result.DocumentName,
	})
}

// HandleDelete handles DELETE /api/v1/documents/{name}
func (h *DocumentHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if err := h.service.DeleteDocument(r.Context(), name); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// HandleList handles GET /api/v1/documents
func (h *DocumentHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	docs, err := h.service.ListDocuments(r.Context())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if docs == nil {
		docs = []models.DocumentInfo{}
	}
	_ = utils.WriteOK(w, docs)
}
