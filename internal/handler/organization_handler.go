package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/internal/services/billing"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const sessionTokenTTL = 24 * time.Hour

// OrganizationHandler handles HTTP requests for organizations and billing
type OrganizationHandler struct {
	repos          repository.RepositoryManager
	billingService *billing.Service
	jwtSecret      string
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(repos repository.RepositoryManager, billingService *billing.Service, jwtSecret string) *OrganizationHandler {
	return &OrganizationHandler{
		repos:          repos,
		billingService: billingService,
		jwtSecret:      jwtSecret,
	}
}

// SetupPublicRoutes registers the unauthenticated organization routes
func (h *OrganizationHandler) SetupPublicRoutes(router *mux.Router) {
	router.HandleFunc("/organizations", h.CreateOrganization).Methods("POST")
	router.HandleFunc("/auth/token", h.IssueToken).Methods("POST")
}

// SetupRoutes registers the authenticated organization routes
func (h *OrganizationHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/organizations/me", h.GetOrganization).Methods("GET")
	router.HandleFunc("/subscription", h.GetSubscription).Methods("GET")
	router.HandleFunc("/subscription", h.UpdateSubscription).Methods("PUT")
	router.HandleFunc("/meetings", h.GetMeetings).Methods("GET")
}

// CreateOrganization registers a new organization and mints its API key
func (h *OrganizationHandler) CreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	org := &domain.Organization{
		Name:   req.Name,
		APIKey: "dk_" + uuid.New().String(),
	}
	if err := h.repos.Organization().Create(r.Context(), org); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

// IssueToken exchanges an organization API key for a session JWT
func (h *OrganizationHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "api_key is required")
		return
	}

	org, err := h.repos.Organization().GetByAPIKey(r.Context(), req.APIKey)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid api key")
		return
	}
	if org.Disabled {
		writeError(w, http.StatusForbidden, "organization is disabled")
		return
	}

	token, err := IssueOrganizationToken(org.ID, h.jwtSecret, sessionTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": int(sessionTokenTTL.Seconds()),
	})
}

// GetOrganization returns the authenticated organization
func (h *OrganizationHandler) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	writeJSON(w, http.StatusOK, org)
}

// GetSubscription returns the organization's plan and quota usage
func (h *OrganizationHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	sub, err := h.repos.Subscription().GetByOrganizationID(r.Context(), org.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	limits := billing.LimitsFor(sub.Plan)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"subscription": sub,
		"limits": map[string]int{
			"agents":           limits.MaxAgents,
			"phone_numbers":    limits.MaxPhoneNumbers,
			"active_campaigns": limits.MaxActiveCampaigns,
		},
	})
}

// UpdateSubscription changes the organization's plan
func (h *OrganizationHandler) UpdateSubscription(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sub, err := h.billingService.SetPlan(r.Context(), org.ID, req.Plan, time.Now().AddDate(0, 1, 0))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// GetMeetings lists meetings the organization's agents booked
func (h *OrganizationHandler) GetMeetings(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	meetings, err := h.repos.Meeting().GetByOrganizationID(r.Context(), org.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, meetings)
}
