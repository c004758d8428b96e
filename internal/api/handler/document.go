package handler

import (
	"net/http"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
)

// DocumentHandler handles document upload and lifecycle endpoints
type DocumentHandler struct {
	documentService *service.DocumentService
	maxUploadSize   int64
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *service.DocumentService, maxUploadSize int64) *DocumentHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 32 << 20
	}
	return &DocumentHandler{documentService: documentService, maxUploadSize: maxUploadSize}
}

// Upload stores a multipart "file" field as a new document
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		response.BadRequest(w, "file too large or invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "invalid file")
		return
	}
	defer file.Close()

	result, err := h.documentService.Upload(r.Context(), middleware.GetRequester(r.Context()), chatbotID, header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, result)
}

// List lists a chatbot's documents
func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	docs, err := h.documentService.List(r.Context(), middleware.GetRequester(r.Context()), chatbotID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, docs)
}

// Reprocess queues an embedded or failed document for the next build
func (h *DocumentHandler) Reprocess(w http.ResponseWriter, r *http.Request) {
	documentID, ok := urlID(w, r, "documentID")
	if !ok {
		return
	}

	result, err := h.documentService.Reprocess(r.Context(), middleware.GetRequester(r.Context()), documentID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, result)
}

// Delete removes a document
func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	documentID, ok := urlID(w, r, "documentID")
	if !ok {
		return
	}

	if err := h.documentService.Delete(r.Context(), middleware.GetRequester(r.Context()), documentID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}
