package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/internal/services/billing"
	"github.com/ClareAI/astra-dialer-service/internal/services/numbers"
	"github.com/gorilla/mux"
)

// PhoneNumberHandler handles HTTP requests for phone numbers
type PhoneNumberHandler struct {
	repos          repository.RepositoryManager
	numberService  *numbers.Service
	billingService *billing.Service
}

// NewPhoneNumberHandler creates a new phone number handler
func NewPhoneNumberHandler(repos repository.RepositoryManager, numberService *numbers.Service, billingService *billing.Service) *PhoneNumberHandler {
	return &PhoneNumberHandler{
		repos:          repos,
		numberService:  numberService,
		billingService: billingService,
	}
}

// SetupRoutes registers the phone number routes
func (h *PhoneNumberHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/phone-numbers", h.CreatePhoneNumber).Methods("POST")
	router.HandleFunc("/phone-numbers", h.GetPhoneNumbers).Methods("GET")
	router.HandleFunc("/phone-numbers/import-twilio", h.ImportTwilioNumber).Methods("POST")
	router.HandleFunc("/phone-numbers/{id}", h.DeletePhoneNumber).Methods("DELETE")
}

// CreatePhoneNumber provisions a fresh number from the call provider
func (h *PhoneNumberHandler) CreatePhoneNumber(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.CreatePhoneNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.billingService.CheckPhoneNumberLimit(r.Context(), org.ID); err != nil {
		if _, ok := err.(*billing.LimitError); ok {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	number, err := h.numberService.Provision(r.Context(), org.ID, &req)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, number)
}

// ImportTwilioNumber registers a number the organization owns on Twilio
func (h *PhoneNumberHandler) ImportTwilioNumber(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	var req domain.ImportTwilioNumberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Number == "" {
		writeError(w, http.StatusBadRequest, "number is required")
		return
	}

	if err := h.billingService.CheckPhoneNumberLimit(r.Context(), org.ID); err != nil {
		if _, ok := err.(*billing.LimitError); ok {
			writeError(w, http.StatusForbidden, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	number, err := h.numberService.ImportTwilio(r.Context(), org.ID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "not owned") || strings.Contains(err.Error(), "not configured") {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, number)
}

// GetPhoneNumbers lists the organization's phone numbers
func (h *PhoneNumberHandler) GetPhoneNumbers(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	numbersList, err := h.repos.PhoneNumber().GetByOrganizationID(r.Context(), org.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, numbersList)
}

// DeletePhoneNumber releases a number with the provider and removes it
func (h *PhoneNumberHandler) DeletePhoneNumber(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	if err := h.numberService.Release(r.Context(), org.ID, id); err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "phone number not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}
