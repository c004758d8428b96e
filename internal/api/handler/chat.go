package handler

import (
	"net/http"
	"strconv"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
	"github.com/go-chi/chi/v5"
)

// ChatHandler handles question answering and session endpoints
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Ask answers a single question without storing it
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	var req domain.AskRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := h.chatService.Ask(r.Context(), middleware.GetRequester(r.Context()), chatbotID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, answer)
}

// Chat runs one turn of a stored conversation
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	var req domain.ChatRequest
	if !decode(w, r, &req) {
		return
	}

	answer, err := h.chatService.Chat(r.Context(), middleware.GetRequester(r.Context()), chatbotID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, answer)
}

// ListSessions lists the caller's sessions with a chatbot
func (h *ChatHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	sessions, err := h.chatService.Sessions(r.Context(), middleware.GetRequester(r.Context()), chatbotID, queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, sessions)
}

// ListMessages returns a session's messages in order
func (h *ChatHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	msgs, err := h.chatService.Messages(r.Context(), middleware.GetRequester(r.Context()), chatbotID, chi.URLParam(r, "sessionID"), queryLimit(r))
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, msgs)
}

// DeactivateSession closes a session to new turns
func (h *ChatHandler) DeactivateSession(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	if err := h.chatService.DeactivateSession(r.Context(), middleware.GetRequester(r.Context()), chatbotID, chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
