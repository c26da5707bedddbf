package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type capturedEvent struct {
	orgID string
	event *CallEvent
}

type fakeNotifier struct {
	events []capturedEvent
}

func (f *fakeNotifier) NotifyCallEvent(orgID string, event *CallEvent) {
	f.events = append(f.events, capturedEvent{orgID: orgID, event: event})
}

type fixture struct {
	db       *gorm.DB
	repos    repository.RepositoryManager
	notifier *fakeNotifier
	orgID    string
	campaign *domain.Campaign
	lead     *domain.Lead
	call     *domain.Call
}

func newFixture(t *testing.T, callStatus domain.CallStatus) (*Service, *fixture) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	repos := repository.NewGormRepositoryManager(db)

	ctx := context.Background()
	orgID := uuid.New().String()
	campaign := &domain.Campaign{OrganizationID: orgID, AgentID: uuid.New().String(), Name: "Launch"}
	require.NoError(t, repos.Campaign().Create(ctx, campaign))

	lead := &domain.Lead{
		CampaignID:     campaign.ID,
		OrganizationID: orgID,
		Phone:          "+15550101",
		Status:         domain.LeadStatusCalled,
	}
	require.NoError(t, repos.Lead().BulkCreate(ctx, []*domain.Lead{lead}))

	call := &domain.Call{
		OrganizationID: orgID,
		AgentID:        campaign.AgentID,
		CampaignID:     campaign.ID,
		LeadID:         lead.ID,
		ExternalCallID: "vapi-call-1",
		Direction:      domain.CallDirectionOutbound,
		Status:         callStatus,
		ToNumber:       lead.Phone,
	}
	require.NoError(t, repos.Call().Create(ctx, call))

	notifier := &fakeNotifier{}
	svc := NewService(repos, notifier)
	return svc, &fixture{db: db, repos: repos, notifier: notifier, orgID: orgID, campaign: campaign, lead: lead, call: call}
}

func envelope(callID, msgType string, mutate func(*WebhookMessage)) *WebhookEnvelope {
	msg := &WebhookMessage{Type: msgType, Call: &WebhookCall{ID: callID}}
	if mutate != nil {
		mutate(msg)
	}
	return &WebhookEnvelope{Message: msg}
}

func TestProcessEndOfCallReport(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusInProgress)
	ctx := context.Background()
	duration := 93.4

	err := svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeEndOfCallReport, func(m *WebhookMessage) {
		m.DurationSeconds = &duration
		m.Transcript = "AI: Hello\nUser: Hi"
		m.RecordingURL = "https://recordings.example.com/1.wav"
		m.Summary = "Interested, wants a follow-up."
		m.Cost = 0.153
	}))
	require.NoError(t, err)

	call, err := f.repos.Call().GetByExternalCallID(ctx, f.call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, call.Status)
	assert.NotNil(t, call.EndedAt)
	assert.EqualValues(t, 93, call.DurationSeconds)
	assert.EqualValues(t, 15, call.CostCents)
	assert.Equal(t, "AI: Hello\nUser: Hi", call.Transcript)
	assert.Equal(t, "https://recordings.example.com/1.wav", call.RecordingURL)

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, campaign.SuccessfulCalls)

	lead, err := f.repos.Lead().GetByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusSucceeded, lead.Status)

	var usageCount int64
	require.NoError(t, f.db.Model(&domain.UsageRecord{}).Count(&usageCount).Error)
	assert.EqualValues(t, 1, usageCount)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, f.orgID, f.notifier.events[0].orgID)
	assert.Equal(t, MessageTypeEndOfCallReport, f.notifier.events[0].event.Type)
}

func TestProcessEndOfCallReportRedelivery(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusInProgress)
	ctx := context.Background()

	report := func() *WebhookEnvelope {
		return envelope(f.call.ExternalCallID, MessageTypeEndOfCallReport, func(m *WebhookMessage) {
			m.Cost = 0.5
		})
	}
	require.NoError(t, svc.Process(ctx, report()))
	require.NoError(t, svc.Process(ctx, report()))

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, campaign.SuccessfulCalls)

	lead, err := f.repos.Lead().GetByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusSucceeded, lead.Status)

	// Only the first delivery fans out.
	assert.Len(t, f.notifier.events, 1)
}

func TestProcessStatusUpdateAdvancesAndStampsStart(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusQueued)
	ctx := context.Background()

	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeStatusUpdate, func(m *WebhookMessage) {
		m.Status = "ringing"
	})))
	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeStatusUpdate, func(m *WebhookMessage) {
		m.Status = "in-progress"
	})))

	call, err := f.repos.Call().GetByExternalCallID(ctx, f.call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusInProgress, call.Status)
	assert.NotNil(t, call.StartedAt)
	assert.Len(t, f.notifier.events, 2)
}

func TestProcessStatusUpdateDropsRegressions(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusInProgress)
	ctx := context.Background()

	// A delayed ringing notification arrives after the call went live.
	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeStatusUpdate, func(m *WebhookMessage) {
		m.Status = "ringing"
	})))

	call, err := f.repos.Call().GetByExternalCallID(ctx, f.call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusInProgress, call.Status)
	assert.Empty(t, f.notifier.events)
}

func TestProcessStatusUpdateDropsAfterTerminal(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusCompleted)
	ctx := context.Background()

	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeStatusUpdate, func(m *WebhookMessage) {
		m.Status = "in-progress"
	})))

	call, err := f.repos.Call().GetByExternalCallID(ctx, f.call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, call.Status)
	assert.Empty(t, f.notifier.events)
}

func TestProcessHangNoAnswer(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusRinging)
	ctx := context.Background()

	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeHang, func(m *WebhookMessage) {
		m.Reason = HangReasonNoAnswer
	})))

	call, err := f.repos.Call().GetByExternalCallID(ctx, f.call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusNoAnswer, call.Status)

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, campaign.FailedCalls)
	assert.EqualValues(t, 0, campaign.SuccessfulCalls)

	lead, err := f.repos.Lead().GetByID(ctx, f.lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusFailed, lead.Status)
}

func TestProcessHangOtherReasonTouchesNoCounters(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusInProgress)
	ctx := context.Background()

	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeHang, func(m *WebhookMessage) {
		m.Reason = "assistant-ended-the-call"
	})))

	call, err := f.repos.Call().GetByExternalCallID(ctx, f.call.ExternalCallID)
	require.NoError(t, err)
	assert.Equal(t, domain.CallStatusCompleted, call.Status)

	campaign, err := f.repos.Campaign().GetByID(ctx, f.orgID, f.campaign.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, campaign.FailedCalls)
	assert.EqualValues(t, 0, campaign.SuccessfulCalls)
}

func TestProcessUnknownCallIsNoOp(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusQueued)

	err := svc.Process(context.Background(), envelope("vapi-call-unknown", MessageTypeEndOfCallReport, nil))
	require.NoError(t, err)
	assert.Empty(t, f.notifier.events)
}

func TestProcessEmptyEnvelopeIsNoOp(t *testing.T) {
	svc, _ := newFixture(t, domain.CallStatusQueued)
	ctx := context.Background()

	require.NoError(t, svc.Process(ctx, nil))
	require.NoError(t, svc.Process(ctx, &WebhookEnvelope{}))
	require.NoError(t, svc.Process(ctx, &WebhookEnvelope{Message: &WebhookMessage{Type: MessageTypeHang}}))
}

func TestProcessRecordsBookedMeeting(t *testing.T) {
	svc, f := newFixture(t, domain.CallStatusInProgress)
	ctx := context.Background()
	startsAt := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)

	require.NoError(t, svc.Process(ctx, envelope(f.call.ExternalCallID, MessageTypeEndOfCallReport, func(m *WebhookMessage) {
		m.Analysis = &WebhookAnalysis{StructuredData: map[string]interface{}{
			"bookingId":     "cal_789",
			"attendeeEmail": "ada@example.com",
			"startsAt":      startsAt.Format(time.RFC3339),
		}}
	})))

	meetings, err := f.repos.Meeting().GetByOrganizationID(ctx, f.orgID)
	require.NoError(t, err)
	require.Len(t, meetings, 1)
	assert.Equal(t, "cal_789", meetings[0].ExternalBookingID)
	assert.Equal(t, "ada@example.com", meetings[0].AttendeeEmail)
	assert.Equal(t, f.call.ID, meetings[0].CallID)
}

func TestMapProviderStatus(t *testing.T) {
	assert.Equal(t, domain.CallStatusQueued, MapProviderStatus("queued"))
	assert.Equal(t, domain.CallStatusRinging, MapProviderStatus("ringing"))
	assert.Equal(t, domain.CallStatusInProgress, MapProviderStatus("in-progress"))
	assert.Equal(t, domain.CallStatusInProgress, MapProviderStatus("forwarding"))
	assert.Equal(t, domain.CallStatusCompleted, MapProviderStatus("ended"))

	// An unrecognized status must never terminate a live call.
	assert.Equal(t, domain.CallStatusInProgress, MapProviderStatus("some-future-status"))
}
