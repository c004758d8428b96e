package handler

import (
	"net/http"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
)

// CredentialHandler handles access credential endpoints
type CredentialHandler struct {
	credentialService *service.CredentialService
}

// NewCredentialHandler creates a new credential handler
func NewCredentialHandler(credentialService *service.CredentialService) *CredentialHandler {
	return &CredentialHandler{credentialService: credentialService}
}

// Issue grants a user access to a private chatbot. The key is only ever
// returned here.
func (h *CredentialHandler) Issue(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	var input domain.CredentialCreate
	if !decode(w, r, &input) {
		return
	}

	issued, err := h.credentialService.Issue(r.Context(), middleware.GetRequester(r.Context()), chatbotID, input)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, issued)
}

// Revoke disables a credential
func (h *CredentialHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	credentialID, ok := urlID(w, r, "credentialID")
	if !ok {
		return
	}

	if err := h.credentialService.Revoke(r.Context(), middleware.GetRequester(r.Context()), credentialID); err != nil {
		writeError(w, r, err)
		return
	}

	response.NoContent(w)
}
