package handler

import (
	"net/http"

	"github.com/ClareAI/astra-dialer-service/internal/live"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// LiveHandler upgrades dashboard connections onto the call event hub
type LiveHandler struct {
	hub *live.Hub
}

// NewLiveHandler creates a new live events handler
func NewLiveHandler(hub *live.Hub) *LiveHandler {
	return &LiveHandler{hub: hub}
}

// SetupRoutes registers the live event routes
func (h *LiveHandler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/live", h.HandleLive).Methods("GET")
}

// HandleLive upgrades the connection and streams call events for the
// authenticated organization
func (h *LiveHandler) HandleLive(w http.ResponseWriter, r *http.Request) {
	org := OrganizationFromContext(r.Context())

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Base().Warn("websocket upgrade failed",
			zap.String("organization_id", org.ID),
			zap.Error(err))
		return
	}

	client := live.NewClient(h.hub, org.ID, conn)
	go client.WritePump()
	go client.ReadPump()
}
