package handler

import (
	"encoding/json"
	"net/http"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
	"github.com/google/uuid"
)

// ChatbotHandler handles chatbot and model configuration endpoints
type ChatbotHandler struct {
	chatbotService *service.ChatbotService
}

// NewChatbotHandler creates a new chatbot handler
func NewChatbotHandler(chatbotService *service.ChatbotService) *ChatbotHandler {
	return &ChatbotHandler{chatbotService: chatbotService}
}

// Create creates a new chatbot
func (h *ChatbotHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetRequester(r.Context())

	// Vendors omit vendor_id; the service fills it in before validating.
	var input domain.ChatbotCreate
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	chatbot, err := h.chatbotService.Create(r.Context(), requester, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, chatbot)
}

// List lists a vendor's chatbots. Vendors get their own; admins pass
// ?vendor_id=.
func (h *ChatbotHandler) List(w http.ResponseWriter, r *http.Request) {
	requester := middleware.GetRequester(r.Context())

	var vendorID uuid.UUID
	if raw := r.URL.Query().Get("vendor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(w, "invalid vendor_id")
			return
		}
		vendorID = id
	} else if requester != nil && requester.VendorID != nil {
		vendorID = *requester.VendorID
	} else {
		response.BadRequest(w, "vendor_id is required")
		return
	}

	chatbots, err := h.chatbotService.ListByVendor(r.Context(), requester, vendorID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, chatbots)
}

// Get gets a chatbot by ID
func (h *ChatbotHandler) Get(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	chatbot, err := h.chatbotService.GetByID(r.Context(), middleware.GetRequester(r.Context()), chatbotID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, chatbot)
}

// Update updates a chatbot
func (h *ChatbotHandler) Update(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	var input domain.ChatbotUpdate
	if !decode(w, r, &input) {
		return
	}

	chatbot, err := h.chatbotService.Update(r.Context(), middleware.GetRequester(r.Context()), chatbotID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, chatbot)
}

// CreateEmbeddingModel registers an embedding model
func (h *ChatbotHandler) CreateEmbeddingModel(w http.ResponseWriter, r *http.Request) {
	var input domain.EmbeddingModelCreate
	if !decode(w, r, &input) {
		return
	}

	m, err := h.chatbotService.RegisterEmbeddingModel(r.Context(), middleware.GetRequester(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, m)
}

// CreateLanguageModel registers a language model
func (h *ChatbotHandler) CreateLanguageModel(w http.ResponseWriter, r *http.Request) {
	var input domain.LanguageModelCreate
	if !decode(w, r, &input) {
		return
	}

	m, err := h.chatbotService.RegisterLanguageModel(r.Context(), middleware.GetRequester(r.Context()), input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, m)
}
