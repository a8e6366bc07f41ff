// Package handler provides HTTP handlers for the API.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/NicholasBelschner/Click2Leadmain/internal/middleware"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/internal/orchestrator"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	orch   *orchestrator.Orchestrator
	logger *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		orch:   orch,
		logger: log,
	}
}

// Start handles POST /api/v1/conversations
func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic   string                     `json:"topic"`
		Context string                     `json:"context"`
		Agents  []model.AgentSpecification `json:"agents"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTopic(req.Topic); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.orch.StartConversation(r.Context(), req.Topic, req.Context, req.Agents)
	if result.Status == model.StatusError {
		writeJSON(w, http.StatusConflict, result)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Specification handles POST /api/v1/conversations/specification
func (h *ConversationHandler) Specification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Specification string `json:"specification"`
		Topic         string `json:"topic"`
		Context       string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateSpecificationText(req.Specification); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateTopic(req.Topic); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.orch.CreateAgentsFromSpecification(r.Context(), req.Specification, req.Topic, req.Context)
	if result.Status == model.StatusError {
		writeJSON(w, http.StatusConflict, result)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// Exchange handles POST /api/v1/conversations/exchange
func (h *ConversationHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	result := h.orch.ConductExchange(r.Context())
	if result.Status == model.StatusError {
		writeJSON(w, http.StatusConflict, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Full handles POST /api/v1/conversations/full
func (h *ConversationHandler) Full(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic        string                     `json:"topic"`
		Context      string                     `json:"context"`
		Agents       []model.AgentSpecification `json:"agents"`
		MaxExchanges int                        `json:"max_exchanges"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTopic(req.Topic); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.orch.ConductFullConversation(r.Context(), req.Topic, req.Context, req.Agents, req.MaxExchanges)
	if result.Status == model.StatusError {
		writeJSON(w, http.StatusConflict, result)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Status handles GET /api/v1/conversations/status
func (h *ConversationHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.orch.GetStatus())
}

// Export handles GET /api/v1/conversations/export
func (h *ConversationHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=conversation_snapshot.json")
	if err := h.orch.ExportSnapshot(w); err != nil {
		h.logger.Error("failed to export snapshot")
	}
}

// Reset handles POST /api/v1/conversations/reset
func (h *ConversationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.orch.Reset()
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "reset",
	})
}
