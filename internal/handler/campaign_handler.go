package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/internal/services/billing"
	"github.com/ClareAI/astra-dialer-service/internal/services/dispatch"
	"github.com/gorilla/mux"
)

// CampaignHandler handles HTTP requests for campaigns and leads
type CampaignHandler struct {
	repos           repository.RepositoryManager
	dispatchService *dispatch.Service
	billingService  *billing.Service
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(repos repository.RepositoryManager, dispatchService *dispatch.Service, billingService *billing.Service) *CampaignHandler {
	return &CampaignHandler{
		repos:           repos,
		dispatchService: dispatchService,
		billingService:  billingService,
	}
}

// SetupRoutes registers the campaign routes
func (h *CampaignHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/campaigns", h.CreateCampaign).Methods("POST")
	router.HandleFunc("/campaigns", h.GetCampaigns).Methods("GET")
	router.HandleFunc("/campaigns/{id}", h.GetCampaign).Methods("GET")
	router.HandleFunc("/campaigns/{id}", h.UpdateCampaign).Methods("PUT")
	router.HandleFunc("/campaigns/{id}", h.DeleteCampaign).Methods("DELETE")
	router.HandleFunc("/campaigns/{id}/leads", h.ImportLeads).Methods("POST")
	router.HandleFunc("/campaigns/{id}/start", h.StartCampaign).Methods("POST")
	router.HandleFunc("/campaigns/{id}/stats", h.GetCampaignStats).Methods("GET")
	router.HandleFunc("/campaigns/{id}/calls", h.GetCampaignCalls).Methods("GET")
}

// CreateCampaign creates a draft campaign
func (h *CampaignHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.CreateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.AgentID == "" {
		writeError(w, http.StatusBadRequest, "name and agent_id are required")
		return
	}

	if err := h.billingService.CheckCampaignLimit(r.Context(), org.ID); err != nil {
		if _, ok := err.(*billing.LimitError); ok {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if _, err := h.repos.Agent().GetByID(r.Context(), org.ID, req.AgentID); err != nil {
		writeError(w, http.StatusBadRequest, "agent not found")
		return
	}

	campaign := &domain.Campaign{
		OrganizationID: org.ID,
		AgentID:        req.AgentID,
		Name:           req.Name,
		Status:         domain.CampaignStatusDraft,
	}
	if err := h.repos.Campaign().Create(r.Context(), campaign); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, campaign)
}

// GetCampaigns lists the organization's campaigns
func (h *CampaignHandler) GetCampaigns(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	campaigns, err := h.repos.Campaign().GetByOrganizationID(r.Context(), org.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, campaigns)
}

// GetCampaign retrieves one campaign
func (h *CampaignHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	campaign, err := h.repos.Campaign().GetByID(r.Context(), org.ID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// UpdateCampaign patches a campaign's name or status
func (h *CampaignHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req domain.UpdateCampaignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	campaign, err := h.repos.Campaign().Update(r.Context(), org.ID, id, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, campaign)
}

// DeleteCampaign removes a campaign and its leads
func (h *CampaignHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.repos.Campaign().Delete(r.Context(), org.ID, id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// ImportLeads bulk-imports leads into a campaign
func (h *CampaignHandler) ImportLeads(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req domain.ImportLeadsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Leads) == 0 {
		writeError(w, http.StatusBadRequest, "leads are required")
		return
	}

	imported, err := h.dispatchService.ImportLeads(r.Context(), org.ID, id, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"imported": imported})
}

// StartCampaign dials one batch of pending leads
func (h *CampaignHandler) StartCampaign(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	result, err := h.dispatchService.StartCampaign(r.Context(), org.ID, id)
	if err != nil {
		if _, ok := err.(*dispatch.PreconditionError); ok {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetCampaignStats returns the counter snapshot for a campaign
func (h *CampaignHandler) GetCampaignStats(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	stats, err := h.dispatchService.Stats(r.Context(), org.ID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "campaign not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetCampaignCalls lists the calls dialed for a campaign
func (h *CampaignHandler) GetCampaignCalls(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if _, err := h.repos.Campaign().GetByID(r.Context(), org.ID, id); err != nil {
		writeError(w, http.StatusNotFound, "campaign not found")
		return
	}

	calls, err := h.repos.Call().GetByCampaignID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calls)
}
