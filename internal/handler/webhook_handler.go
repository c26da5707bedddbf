package handler

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"

	"github.com/ClareAI/astra-dialer-service/internal/services/reconcile"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// WebhookHandler receives call-lifecycle notifications from the provider.
// The endpoint always acknowledges with 200: a non-2xx would trigger the
// provider's retry policy and flood the reconciler with duplicates.
type WebhookHandler struct {
	reconciler    *reconcile.Service
	webhookSecret string
}

// NewWebhookHandler creates a new webhook handler. An empty secret disables
// signature checking.
func NewWebhookHandler(reconciler *reconcile.Service, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{reconciler: reconciler, webhookSecret: webhookSecret}
}

// SetupRoutes registers the webhook routes
func (h *WebhookHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/webhooks/vapi", h.HandleVapiWebhook).Methods("POST")
}

// HandleVapiWebhook applies one provider notification
func (h *WebhookHandler) HandleVapiWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhookSecret != "" {
		signature := r.Header.Get("X-Vapi-Signature")
		if subtle.ConstantTimeCompare([]byte(signature), []byte(h.webhookSecret)) != 1 {
			logger.Base().Warn("webhook with bad signature rejected",
				zap.String("remote_addr", r.RemoteAddr))
			h.sendOK(w)
			return
		}
	}

	var envelope reconcile.WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		logger.Base().Warn("malformed webhook payload", zap.Error(err))
		h.sendOK(w)
		return
	}

	if err := h.reconciler.Process(r.Context(), &envelope); err != nil {
		logger.Base().Error("webhook processing failed", zap.Error(err))
	}
	h.sendOK(w)
}

func (h *WebhookHandler) sendOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"ok":true}`))
}
