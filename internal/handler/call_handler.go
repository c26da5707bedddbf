package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/internal/storage"
	"github.com/gorilla/mux"
)

// CallHandler handles HTTP requests for call history
type CallHandler struct {
	repos repository.RepositoryManager
}

// NewCallHandler creates a new call handler
func NewCallHandler(repos repository.RepositoryManager) *CallHandler {
	return &CallHandler{repos: repos}
}

// SetupRoutes registers the call routes
func (h *CallHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/calls", h.GetCalls).Methods("GET")
	router.HandleFunc("/calls/{id}", h.GetCall).Methods("GET")
	router.HandleFunc("/calls/{id}/transcript.pdf", h.GetTranscriptPDF).Methods("GET")
}

// GetCalls lists the organization's calls, newest first
func (h *CallHandler) GetCalls(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	calls, err := h.repos.Call().GetByOrganizationID(r.Context(), org.ID, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, calls)
}

// GetCall retrieves one call
func (h *CallHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	call, err := h.repos.Call().GetByID(r.Context(), org.ID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "call not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// GetTranscriptPDF streams the call transcript as a PDF download
func (h *CallHandler) GetTranscriptPDF(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())
	id := mux.Vars(r)["id"]

	call, err := h.repos.Call().GetByID(r.Context(), org.ID, id)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "call not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="transcript-%s.pdf"`, call.ID))
	if err := storage.WriteCallTranscriptPDF(call, w); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
}
