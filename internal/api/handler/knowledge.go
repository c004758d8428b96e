package handler

import (
	"net/http"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/middleware"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/api/response"
	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/service"
)

// KnowledgeHandler handles knowledge-base build and snapshot endpoints
type KnowledgeHandler struct {
	knowledgeService *service.KnowledgeService
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledgeService *service.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

// Build builds the chatbot's knowledge base. Synchronous builds answer 201
// with the snapshot, queued builds 202 with the job to poll.
func (h *KnowledgeHandler) Build(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	result, err := h.knowledgeService.Build(r.Context(), middleware.GetRequester(r.Context()), chatbotID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if result.Job != nil {
		response.Accepted(w, result.Job)
		return
	}
	response.Created(w, result.Snapshot)
}

// JobStatus returns a build job
func (h *KnowledgeHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	jobID, ok := urlID(w, r, "jobID")
	if !ok {
		return
	}

	job, err := h.knowledgeService.JobStatus(r.Context(), middleware.GetRequester(r.Context()), jobID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, job)
}

// ListSnapshots lists a chatbot's snapshots with redacted locators
func (h *KnowledgeHandler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	chatbotID, ok := urlID(w, r, "chatbotID")
	if !ok {
		return
	}

	snapshots, err := h.knowledgeService.ListSnapshots(r.Context(), middleware.GetRequester(r.Context()), chatbotID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, snapshots)
}

// Activate rolls the chatbot back or forward to a retained snapshot
func (h *KnowledgeHandler) Activate(w http.ResponseWriter, r *http.Request) {
	snapshotID, ok := urlID(w, r, "snapshotID")
	if !ok {
		return
	}

	info, err := h.knowledgeService.Activate(r.Context(), middleware.GetRequester(r.Context()), snapshotID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, info)
}
