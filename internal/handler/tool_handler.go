package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-dialer-service/internal/adapters/vapi"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// ToolHandler handles HTTP requests for tools and credentials
type ToolHandler struct {
	repos    repository.RepositoryManager
	provider *vapi.Client
}

// NewToolHandler creates a new tool handler
func NewToolHandler(repos repository.RepositoryManager, provider *vapi.Client) *ToolHandler {
	return &ToolHandler{repos: repos, provider: provider}
}

// SetupRoutes registers the tool and credential routes
func (h *ToolHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/tools", h.CreateTool).Methods("POST")
	router.HandleFunc("/tools", h.GetTools).Methods("GET")
	router.HandleFunc("/tools/{id}", h.DeleteTool).Methods("DELETE")
	router.HandleFunc("/credentials", h.CreateCredential).Methods("POST")
	router.HandleFunc("/credentials", h.GetCredentials).Methods("GET")
	router.HandleFunc("/credentials/{id}", h.DeleteCredential).Methods("DELETE")
}

// CreateTool registers a tool with the provider and stores the reference
func (h *ToolHandler) CreateTool(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.CreateToolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "name and type are required")
		return
	}

	providerReq := &vapi.CreateToolRequest{Type: req.Type}
	if fn, ok := req.Config["function"].(map[string]interface{}); ok {
		providerReq.Function = fn
	}
	if server, ok := req.Config["server"].(map[string]interface{}); ok {
		providerReq.Server = server
	}

	resp, err := h.provider.CreateTool(r.Context(), providerReq)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	tool := &domain.Tool{
		OrganizationID: org.ID,
		Name:           req.Name,
		Type:           req.Type,
		ExternalToolID: resp.ID,
		Config:         req.Config,
	}
	if err := h.repos.Tool().CreateTool(r.Context(), tool); err != nil {
		logger.Base().Error("ANOMALY: provider tool created but local record failed to persist",
			zap.String("external_tool_id", resp.ID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, tool)
}

// GetTools lists the organization's tools
func (h *ToolHandler) GetTools(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	tools, err := h.repos.Tool().GetToolsByOrganizationID(r.Context(), org.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, tools)
}

// DeleteTool removes a tool locally
func (h *ToolHandler) DeleteTool(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.repos.Tool().DeleteTool(r.Context(), org.ID, id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "tool not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// CreateCredential registers a provider credential and stores the reference
func (h *ToolHandler) CreateCredential(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.CreateCredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Provider == "" || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "provider and api_key are required")
		return
	}

	resp, err := h.provider.CreateCredential(r.Context(), &vapi.CreateCredentialRequest{
		Provider: req.Provider,
		APIKey:   req.APIKey,
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	cred := &domain.Credential{
		OrganizationID:       org.ID,
		Provider:             req.Provider,
		ExternalCredentialID: resp.ID,
	}
	if err := h.repos.Tool().CreateCredential(r.Context(), cred); err != nil {
		logger.Base().Error("ANOMALY: provider credential created but local record failed to persist",
			zap.String("external_credential_id", resp.ID),
			zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, cred)
}

// GetCredentials lists the organization's credentials
func (h *ToolHandler) GetCredentials(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	creds, err := h.repos.Tool().GetCredentialsByOrganizationID(r.Context(), org.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, creds)
}

// DeleteCredential removes a credential locally
func (h *ToolHandler) DeleteCredential(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.repos.Tool().DeleteCredential(r.Context(), org.ID, id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "credential not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
