package reconcile

import (
	"context"
	"math"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"go.uber.org/zap"
)

// CallEvent is pushed to live subscribers after a notification is applied
type CallEvent struct {
	CallID         string            `json:"call_id"`
	ExternalCallID string            `json:"external_call_id"`
	CampaignID     string            `json:"campaign_id,omitempty"`
	Type           string            `json:"type"`
	Status         domain.CallStatus `json:"status"`
}

// Notifier fans a call event out to live dashboard subscribers
type Notifier interface {
	NotifyCallEvent(orgID string, event *CallEvent)
}

// Service applies provider call-lifecycle notifications to local state.
// Delivery is at-least-once and unordered, so every mutation is guarded:
// status transitions are conditional updates that never regress, and the
// campaign counter increments only fire when the call actually left a
// non-terminal status in this delivery.
type Service struct {
	repos    repository.RepositoryManager
	notifier Notifier
}

// NewService creates a new webhook reconciliation service. notifier may be
// nil when no live subscribers exist.
func NewService(repos repository.RepositoryManager, notifier Notifier) *Service {
	return &Service{repos: repos, notifier: notifier}
}

// Process applies one webhook envelope. A missing message or call id is a
// no-op; an unknown local call is a warning, not an error. The caller
// acknowledges the provider with 200 regardless of the returned error.
func (s *Service) Process(ctx context.Context, envelope *WebhookEnvelope) error {
	if envelope == nil || envelope.Message == nil || envelope.Message.Call == nil || envelope.Message.Call.ID == "" {
		logger.Base().Debug("Webhook carried no call payload, ignoring")
		return nil
	}
	msg := envelope.Message

	call, err := s.repos.Call().GetByExternalCallID(ctx, msg.Call.ID)
	if err != nil {
		return err
	}
	if call == nil {
		logger.Base().Warn("Webhook for unknown call, ignoring",
			zap.String("external_call_id", msg.Call.ID),
			zap.String("type", msg.Type))
		return nil
	}

	switch msg.Type {
	case MessageTypeStatusUpdate:
		return s.handleStatusUpdate(ctx, call, msg)
	case MessageTypeEndOfCallReport:
		return s.handleEndOfCallReport(ctx, call, msg)
	case MessageTypeHang:
		return s.handleHang(ctx, call, msg)
	default:
		logger.Base().Info("Webhook with unhandled message type, ignoring",
			zap.String("type", msg.Type),
			zap.String("external_call_id", msg.Call.ID))
		return nil
	}
}

// handleStatusUpdate moves the call along its lifecycle. Updates that would
// regress the status, or land on a call already terminal, are dropped.
func (s *Service) handleStatusUpdate(ctx context.Context, call *domain.Call, msg *WebhookMessage) error {
	newStatus := MapProviderStatus(msg.Status)
	if call.Status.IsTerminal() || newStatus.Rank() <= call.Status.Rank() {
		logger.Base().Debug("Stale status update dropped",
			zap.String("call_id", call.ID),
			zap.String("current", string(call.Status)),
			zap.String("incoming", string(newStatus)))
		return nil
	}

	stampStart := newStatus == domain.CallStatusInProgress && call.StartedAt == nil
	applied, err := s.repos.Call().ApplyStatus(ctx, call.ID, call.Status, newStatus, stampStart)
	if err != nil {
		return err
	}
	if !applied {
		// Another delivery advanced the call first.
		return nil
	}

	s.notify(call, MessageTypeStatusUpdate, newStatus)
	return nil
}

// handleEndOfCallReport finishes the call with its transcript, recording and
// cost, and settles the campaign and lead success buckets. The terminal
// guard on Finish makes redelivery increment nothing a second time.
func (s *Service) handleEndOfCallReport(ctx context.Context, call *domain.Call, msg *WebhookMessage) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":           domain.CallStatusCompleted,
		"ended_at":         now,
		"duration_seconds": s.durationSeconds(call, msg, now),
		"cost_cents":       int64(math.Round(msg.Cost * 100)),
	}
	if msg.Transcript != "" {
		updates["transcript"] = msg.Transcript
	}
	if msg.RecordingURL != "" {
		updates["recording_url"] = msg.RecordingURL
	}
	if msg.Summary != "" {
		updates["summary"] = msg.Summary
	}

	applied, err := s.repos.Call().Finish(ctx, call.ID, updates)
	if err != nil {
		return err
	}
	if !applied {
		logger.Base().Debug("End-of-call report for already terminal call dropped",
			zap.String("call_id", call.ID),
			zap.String("status", string(call.Status)))
		return nil
	}

	if call.CampaignID != "" {
		if err := s.repos.Campaign().IncrementSuccessfulCalls(ctx, call.CampaignID); err != nil {
			logger.Base().Error("Failed to increment successful calls",
				zap.String("campaign_id", call.CampaignID), zap.Error(err))
		}
	}
	if call.LeadID != "" {
		if _, err := s.repos.Lead().Resolve(ctx, call.LeadID, domain.LeadStatusSucceeded); err != nil {
			logger.Base().Error("Failed to resolve lead",
				zap.String("lead_id", call.LeadID), zap.Error(err))
		}
	}

	s.recordUsage(ctx, call, updates)
	s.recordMeeting(ctx, call, msg)
	s.notify(call, MessageTypeEndOfCallReport, domain.CallStatusCompleted)
	return nil
}

// handleHang closes out a call the provider hung up on. A no-answer reason
// lands in the campaign failure bucket; any other reason finishes the call
// without touching counters.
func (s *Service) handleHang(ctx context.Context, call *domain.Call, msg *WebhookMessage) error {
	newStatus := domain.CallStatusCompleted
	if msg.Reason == HangReasonNoAnswer {
		newStatus = domain.CallStatusNoAnswer
	}

	applied, err := s.repos.Call().Finish(ctx, call.ID, map[string]interface{}{
		"status":   newStatus,
		"ended_at": time.Now(),
	})
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}

	if newStatus == domain.CallStatusNoAnswer {
		if call.CampaignID != "" {
			if err := s.repos.Campaign().IncrementFailedCalls(ctx, call.CampaignID); err != nil {
				logger.Base().Error("Failed to increment failed calls",
					zap.String("campaign_id", call.CampaignID), zap.Error(err))
			}
		}
		if call.LeadID != "" {
			if _, err := s.repos.Lead().Resolve(ctx, call.LeadID, domain.LeadStatusFailed); err != nil {
				logger.Base().Error("Failed to resolve lead",
					zap.String("lead_id", call.LeadID), zap.Error(err))
			}
		}
	}

	s.notify(call, MessageTypeHang, newStatus)
	return nil
}

// durationSeconds prefers the reported value and falls back to wall clock
// since the call started.
func (s *Service) durationSeconds(call *domain.Call, msg *WebhookMessage, endedAt time.Time) int64 {
	if msg.DurationSeconds != nil {
		return int64(math.Round(*msg.DurationSeconds))
	}
	if call.StartedAt != nil {
		return int64(endedAt.Sub(*call.StartedAt).Seconds())
	}
	return 0
}

func (s *Service) recordUsage(ctx context.Context, call *domain.Call, updates map[string]interface{}) {
	duration, _ := updates["duration_seconds"].(int64)
	cost, _ := updates["cost_cents"].(int64)
	if duration == 0 && cost == 0 {
		return
	}
	err := s.repos.Subscription().RecordUsage(ctx, &domain.UsageRecord{
		OrganizationID:  call.OrganizationID,
		DurationSeconds: duration,
		CostCents:       cost,
	})
	if err != nil {
		logger.Base().Error("Failed to record call usage",
			zap.String("call_id", call.ID), zap.Error(err))
	}
}

// recordMeeting lifts a booked meeting out of the post-call analysis, when
// the agent's scheduling tool produced one.
func (s *Service) recordMeeting(ctx context.Context, call *domain.Call, msg *WebhookMessage) {
	if msg.Analysis == nil || msg.Analysis.StructuredData == nil {
		return
	}
	data := msg.Analysis.StructuredData
	bookingID, _ := data["bookingId"].(string)
	if bookingID == "" {
		return
	}

	meeting := &domain.Meeting{
		OrganizationID:    call.OrganizationID,
		CallID:            call.ID,
		LeadID:            call.LeadID,
		ExternalBookingID: bookingID,
	}
	if email, ok := data["attendeeEmail"].(string); ok {
		meeting.AttendeeEmail = email
	}
	if raw, ok := data["startsAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			meeting.StartsAt = t
		}
	}
	if err := s.repos.Meeting().Create(ctx, meeting); err != nil {
		logger.Base().Error("Failed to record booked meeting",
			zap.String("call_id", call.ID),
			zap.String("booking_id", bookingID),
			zap.Error(err))
	}
}

func (s *Service) notify(call *domain.Call, eventType string, status domain.CallStatus) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyCallEvent(call.OrganizationID, &CallEvent{
		CallID:         call.ID,
		ExternalCallID: call.ExternalCallID,
		CampaignID:     call.CampaignID,
		Type:           eventType,
		Status:         status,
	})
}
