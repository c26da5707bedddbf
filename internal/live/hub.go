package live

import (
	"context"
	"sync"

	"github.com/ClareAI/astra-dialer-service/internal/services/reconcile"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"go.uber.org/zap"
)

// Hub fans call-lifecycle events out to dashboard websocket clients, keyed
// by organization so tenants never see each other's traffic.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	events     chan *orgEvent
}

type orgEvent struct {
	orgID string
	event *reconcile.CallEvent
}

// NewHub creates a new live event hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan *orgEvent, 256),
	}
}

// Run pumps registrations and events until the context is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case ev := <-h.events:
			h.deliver(ev)
		}
	}
}

// NotifyCallEvent implements reconcile.Notifier. Non-blocking: if the hub's
// buffer is full the event is dropped rather than stalling the reconciler.
func (h *Hub) NotifyCallEvent(orgID string, event *reconcile.CallEvent) {
	select {
	case h.events <- &orgEvent{orgID: orgID, event: event}:
	default:
		logger.Base().Warn("Live event buffer full, dropping call event",
			zap.String("organization_id", orgID),
			zap.String("call_id", event.CallID))
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.orgID] == nil {
		h.clients[client.orgID] = make(map[*Client]bool)
	}
	h.clients[client.orgID][client] = true
	logger.Base().Info("Live client connected",
		zap.String("organization_id", client.orgID),
		zap.Int("org_clients", len(h.clients[client.orgID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.orgID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.close()
			if len(clients) == 0 {
				delete(h.clients, client.orgID)
			}
			logger.Base().Info("Live client disconnected",
				zap.String("organization_id", client.orgID))
		}
	}
}

func (h *Hub) deliver(ev *orgEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[ev.orgID] {
		client.send(ev.event)
	}
}

// ClientCount reports active connections for one organization
func (h *Hub) ClientCount(orgID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[orgID])
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
