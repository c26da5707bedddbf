package live

import (
	"context"

	"github.com/ClareAI/astra-dialer-service/internal/services/reconcile"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/ClareAI/astra-dialer-service/pkg/redis"
	"go.uber.org/zap"
)

// CallEventChannel is the Redis channel call events are published on, for
// consumers outside this process (other instances, analytics pipelines).
const CallEventChannel = "dialer:call-events"

// publishedEvent is the wire shape of a fanned-out call event
type publishedEvent struct {
	OrganizationID string               `json:"organization_id"`
	Event          *reconcile.CallEvent `json:"event"`
}

// FanoutNotifier delivers call events to local websocket subscribers and,
// when Redis is configured, publishes them for external consumers as well.
type FanoutNotifier struct {
	hub          *Hub
	redisService redis.RedisServiceInterface
}

// NewFanoutNotifier creates a notifier over the hub. redisService may be nil.
func NewFanoutNotifier(hub *Hub, redisService redis.RedisServiceInterface) *FanoutNotifier {
	return &FanoutNotifier{hub: hub, redisService: redisService}
}

// NotifyCallEvent implements reconcile.Notifier
func (n *FanoutNotifier) NotifyCallEvent(orgID string, event *reconcile.CallEvent) {
	n.hub.NotifyCallEvent(orgID, event)

	if n.redisService == nil {
		return
	}
	err := n.redisService.Publish(context.Background(), CallEventChannel, &publishedEvent{
		OrganizationID: orgID,
		Event:          event,
	})
	if err != nil {
		logger.Base().Warn("Failed to publish call event",
			zap.String("call_id", event.CallID),
			zap.Error(err))
	}
}
