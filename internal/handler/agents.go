package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/NicholasBelschner/Click2Leadmain/internal/middleware"
	"github.com/NicholasBelschner/Click2Leadmain/internal/model"
	"github.com/NicholasBelschner/Click2Leadmain/internal/orchestrator"
	"github.com/NicholasBelschner/Click2Leadmain/pkg/logger"
)

// AgentHandler handles agent endpoints.
type AgentHandler struct {
	orch   *orchestrator.Orchestrator
	logger *logger.Logger
}

// NewAgentHandler creates a new agent handler.
func NewAgentHandler(orch *orchestrator.Orchestrator, log *logger.Logger) *AgentHandler {
	return &AgentHandler{
		orch:   orch,
		logger: log,
	}
}

// List handles GET /api/v1/agents
func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents := h.orch.GetAllAgents()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": agents,
		"count":  len(agents),
	})
}

// Get handles GET /api/v1/agents/:id
func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")

	if err := middleware.ValidateAgentID(agentID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	agent, ok := h.orch.GetAgent(agentID)
	if !ok {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	writeJSON(w, http.StatusOK, agent)
}

// Update handles PUT /api/v1/agents/:id
func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")

	if err := middleware.ValidateAgentID(agentID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req model.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.orch.UpdateAgent(agentID, req) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	agent, _ := h.orch.GetAgent(agentID)
	writeJSON(w, http.StatusOK, agent)
}

// Delete handles DELETE /api/v1/agents/:id
func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")

	if err := middleware.ValidateAgentID(agentID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.orch.DeleteAgent(agentID) {
		writeError(w, http.StatusNotFound, "agent not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Suggestions handles POST /api/v1/agents/suggestions
func (h *AgentHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topic   string `json:"topic"`
		Context string `json:"context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateTopic(req.Topic); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	suggestions := h.orch.GetAgentSuggestions(r.Context(), req.Topic, req.Context)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
	})
}
