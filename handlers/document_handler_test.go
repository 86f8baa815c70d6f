package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spassist/sp-assistant/models"
	"github.com/spassist/sp-assistant/services"
	"github.com/spassist/sp-assistant/services/ingest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeDocumentService struct {
	ingestResult *ingest.Result
	ingestErr    error
	deleteErr    error
	listResult   []models.DocumentInfo
	listErr      error

	gotName string
	gotText string
}

func (f *fakeDocumentService) IngestDocument(ctx context.Context, documentName, text string) (*ingest.Result, error) {
	f.gotName = documentName
	f.gotText = text
	return f.ingestResult, f.ingestErr
}

func (f *fakeDocumentService) DeleteDocument(ctx context.Context, documentName string) error {
	f.gotName = documentName
	return f.deleteErr
}

func (f *fakeDocumentService) ListDocuments(ctx context.Context) ([]models.DocumentInfo, error) {
	return f.listResult, f.listErr
}

func TestHandleIngest(t *testing.T) {
	logger := zap.NewNop()

	t.Run("successful ingestion", func(t *testing.T) {
		svc := &fakeDocumentService{
			ingestResult: &ingest.Result{DocumentName: "doc.pdf", ChunksProcessed: 12},
		}
		handler := NewDocumentHandler(svc, logger)

		body := `{"text":"document body text","document_name":"doc.pdf"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleIngest(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "doc.pdf", svc.gotName)
		assert.Equal(t, "document body text", svc.gotText)

		var resp IngestResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.True(t, resp.Success)
		assert.Equal(t, 12, resp.ChunksProcessed)
		assert.Equal(t, "doc.pdf", resp.DocumentName)
	})

	t.Run("invalid json body", func(t *testing.T) {
		handler := NewDocumentHandler(&fakeDocumentService{}, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader("{not json"))
		w := httptest.NewRecorder()

		handler.HandleIngest(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing fields fail validation", func(t *testing.T) {
		handler := NewDocumentHandler(&fakeDocumentService{}, logger)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(`{"text":""}`))
		w := httptest.NewRecorder()

		handler.HandleIngest(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "bad_request", resp["error"])
	})

	t.Run("ingestion error maps to 500", func(t *testing.T) {
		svc := &fakeDocumentService{
			ingestErr: services.NewDomainError(services.ErrorTypeIngestion, "embedding batch failed", nil),
		}
		handler := NewDocumentHandler(svc, logger)

		body := `{"text":"some text","document_name":"doc.pdf"}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", strings.NewReader(body))
		w := httptest.NewRecorder()

		handler.HandleIngest(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHandleDelete(t *testing.T) {
	logger := zap.NewNop()

	deleteRequest := func(name string) *http.Request {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+name, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("name", name)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}

	t.Run("successful delete returns no content", func(t *testing.T) {
		svc := &fakeDocumentService{}
		handler := NewDocumentHandler(svc, logger)
		w := httptest.NewRecorder()

		handler.HandleDelete(w, deleteRequest("doc.pdf"))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "doc.pdf", svc.gotName)
	})

	t.Run("unknown document returns 404", func(t *testing.T) {
		svc := &fakeDocumentService{deleteErr: services.ErrDocumentNotFound}
		handler := NewDocumentHandler(svc, logger)
		w := httptest.NewRecorder()

		handler.HandleDelete(w, deleteRequest("ghost.pdf"))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleList(t *testing.T) {
	logger := zap.NewNop()

	t.Run("returns document summaries", func(t *testing.T) {
		svc := &fakeDocumentService{
			listResult: []models.DocumentInfo{
				{DocumentName: "a.pdf", ChunkCount: 4, LastIngested: time.Now().UTC()},
			},
		}
		handler := NewDocumentHandler(svc, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		w := httptest.NewRecorder()

		handler.HandleList(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp map[string]interface{}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		data := resp["data"].([]interface{})
		require.Len(t, data, 1)
		doc := data[0].(map[string]interface{})
		assert.Equal(t, "a.pdf", doc["document_name"])
		assert.Equal(t, float64(4), doc["chunk_count"])
	})

	t.Run("empty store returns empty list not null", func(t *testing.T) {
		handler := NewDocumentHandler(&fakeDocumentService{}, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
		w := httptest.NewRecorder()

		handler.HandleList(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"data":[]`)
	})
}
