package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	agentservice "github.com/ClareAI/astra-dialer-service/internal/services/agent"
	"github.com/ClareAI/astra-dialer-service/internal/services/billing"
	"github.com/gorilla/mux"
)

// AgentHandler handles HTTP requests for voice agents
type AgentHandler struct {
	repos          repository.RepositoryManager
	agentService   *agentservice.Service
	billingService *billing.Service
}

// NewAgentHandler creates a new agent handler
func NewAgentHandler(repos repository.RepositoryManager, agentService *agentservice.Service, billingService *billing.Service) *AgentHandler {
	return &AgentHandler{
		repos:          repos,
		agentService:   agentService,
		billingService: billingService,
	}
}

// SetupRoutes registers the agent routes
func (h *AgentHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/agents", h.CreateAgent).Methods("POST")
	router.HandleFunc("/agents", h.GetAgents).Methods("GET")
	router.HandleFunc("/agents/{id}", h.GetAgent).Methods("GET")
	router.HandleFunc("/agents/{id}", h.UpdateAgent).Methods("PUT")
	router.HandleFunc("/agents/{id}", h.DeleteAgent).Methods("DELETE")
}

// CreateAgent creates an agent and provisions its external assistant
func (h *AgentHandler) CreateAgent(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	if err := h.billingService.CheckAgentLimit(r.Context(), org.ID); err != nil {
		if _, ok := err.(*billing.LimitError); ok {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	created, err := h.agentService.Create(r.Context(), org.ID, &req)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetAgents lists the organization's agents
func (h *AgentHandler) GetAgents(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	includeDisabled := r.URL.Query().Get("include_disabled") == "true"

	agents, err := h.repos.Agent().GetByOrganizationID(r.Context(), org.ID, includeDisabled)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

// GetAgent retrieves one agent
func (h *AgentHandler) GetAgent(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	agent, err := h.repos.Agent().GetByID(r.Context(), org.ID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

// UpdateAgent patches an agent and syncs the external assistant
func (h *AgentHandler) UpdateAgent(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req domain.UpdateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.agentService.Update(r.Context(), org.ID, id, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// DeleteAgent disables an agent and removes the external assistant
func (h *AgentHandler) DeleteAgent(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.agentService.Delete(r.Context(), org.ID, id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "agent not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
