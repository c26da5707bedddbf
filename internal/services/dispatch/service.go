package dispatch

import (
	"context"

	"github.com/ClareAI/astra-dialer-service/internal/adapters/vapi"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// CallCreator is the slice of the provider client the dispatcher needs
type CallCreator interface {
	CreateCall(ctx context.Context, req *vapi.CreateCallRequest) (*vapi.CallResponse, error)
}

// LeadResult is the per-lead outcome of one dispatch batch
type LeadResult struct {
	LeadID string `json:"lead_id"`
	CallID string `json:"call_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// StartResult is the response payload of a dispatch batch
type StartResult struct {
	Started int          `json:"started"`
	Results []LeadResult `json:"results"`
}

// Service dials pending campaign leads against the external call provider.
// Leads are claimed with a conditional pending -> called update before any
// external request, so two concurrent batches never dial the same lead.
type Service struct {
	repos     repository.RepositoryManager
	provider  CallCreator
	limiter   *rate.Limiter
	batchSize int
}

// NewService creates a new campaign dispatch service. The limiter paces
// outbound call initiation; the provider accepts one request at a time.
func NewService(repos repository.RepositoryManager, provider CallCreator, limiter *rate.Limiter, batchSize int) *Service {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &Service{
		repos:     repos,
		provider:  provider,
		limiter:   limiter,
		batchSize: batchSize,
	}
}

// StartCampaign dials up to one batch of pending leads for the campaign.
// Re-invoking is safe: it only ever selects leads still pending, so no lead
// is dialed twice. A provider failure for one lead does not abort the rest
// of the batch.
func (s *Service) StartCampaign(ctx context.Context, orgID, campaignID string) (*StartResult, error) {
	campaign, err := s.repos.Campaign().GetByID(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}

	agent, err := s.repos.Agent().GetByID(ctx, orgID, campaign.AgentID)
	if err != nil {
		return nil, NewPreconditionError("agent", "campaign agent not found")
	}
	if agent.ExternalAssistantID == "" {
		return nil, NewPreconditionError("agent", "agent has no assistant configured with the call provider")
	}

	number, err := s.repos.PhoneNumber().GetFirstActive(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if number == nil {
		return nil, NewPreconditionError("phone_number", "no active phone number available")
	}

	if campaign.Status != domain.CampaignStatusActive {
		if err := s.repos.Campaign().SetStatus(ctx, campaign.ID, domain.CampaignStatusActive); err != nil {
			return nil, err
		}
	}

	leads, err := s.repos.Lead().GetPendingByCampaignID(ctx, campaign.ID, s.batchSize)
	if err != nil {
		return nil, err
	}

	results := make([]LeadResult, 0, len(leads))
	var queued int64
	for _, lead := range leads {
		result := s.dispatchLead(ctx, campaign, agent, number, lead)
		if result == nil {
			// Lost the claim to a concurrent batch; the winner reports it.
			continue
		}
		if result.Status == string(domain.CallStatusQueued) {
			queued++
		}
		results = append(results, *result)
	}

	if queued > 0 {
		if err := s.repos.Campaign().IncrementCalledLeads(ctx, campaign.ID, queued); err != nil {
			logger.Base().Error("Failed to increment called leads counter",
				zap.String("campaign_id", campaign.ID),
				zap.Int64("queued", queued),
				zap.Error(err))
		}
	}

	return &StartResult{Started: len(results), Results: results}, nil
}

// dispatchLead claims one lead and initiates its call. Returns nil when the
// claim was lost to a concurrent dispatcher.
func (s *Service) dispatchLead(ctx context.Context, campaign *domain.Campaign, agent *domain.Agent, number *domain.PhoneNumber, lead *domain.Lead) *LeadResult {
	claimed, err := s.repos.Lead().Claim(ctx, lead.ID)
	if err != nil {
		return &LeadResult{LeadID: lead.ID, Status: string(domain.LeadStatusFailed), Error: err.Error()}
	}
	if !claimed {
		return nil
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			s.failLead(ctx, lead.ID)
			return &LeadResult{LeadID: lead.ID, Status: string(domain.LeadStatusFailed), Error: err.Error()}
		}
	}

	resp, err := s.provider.CreateCall(ctx, &vapi.CreateCallRequest{
		AssistantID:   agent.ExternalAssistantID,
		PhoneNumberID: number.ExternalPhoneNumberID,
		Customer: vapi.CallCustomer{
			Number: lead.Phone,
			Name:   lead.Name,
		},
		Metadata: map[string]interface{}{
			"campaignId": campaign.ID,
			"leadId":     lead.ID,
		},
	})
	if err != nil {
		callErr := &ExternalCallError{LeadID: lead.ID, Err: err}
		logger.Base().Warn("Outbound call initiation failed",
			zap.String("campaign_id", campaign.ID),
			zap.String("lead_id", lead.ID),
			zap.Error(err))
		s.failLead(ctx, lead.ID)
		return &LeadResult{LeadID: lead.ID, Status: string(domain.LeadStatusFailed), Error: callErr.Error()}
	}

	call := &domain.Call{
		OrganizationID: campaign.OrganizationID,
		AgentID:        agent.ID,
		PhoneNumberID:  number.ID,
		CampaignID:     campaign.ID,
		LeadID:         lead.ID,
		ExternalCallID: resp.ID,
		Direction:      domain.CallDirectionOutbound,
		Status:         domain.CallStatusQueued,
		FromNumber:     number.Number,
		ToNumber:       lead.Phone,
	}
	if err := s.repos.Call().Create(ctx, call); err != nil {
		// The provider call now exists with no local record. Nothing can
		// reconcile it, so surface it as loudly as possible.
		// TODO: cancel the external call via the provider API to compensate.
		logger.Base().Error("ANOMALY: external call created but local call record failed to persist",
			zap.String("campaign_id", campaign.ID),
			zap.String("lead_id", lead.ID),
			zap.String("external_call_id", resp.ID),
			zap.Error(err))
		s.failLead(ctx, lead.ID)
		return &LeadResult{LeadID: lead.ID, Status: string(domain.LeadStatusFailed), Error: err.Error()}
	}

	if err := s.repos.Lead().AttachCall(ctx, lead.ID, call.ID); err != nil {
		logger.Base().Error("Failed to attach call to lead",
			zap.String("lead_id", lead.ID),
			zap.String("call_id", call.ID),
			zap.Error(err))
	}

	return &LeadResult{LeadID: lead.ID, CallID: call.ID, Status: string(domain.CallStatusQueued)}
}

func (s *Service) failLead(ctx context.Context, leadID string) {
	if err := s.repos.Lead().MarkClaimedFailed(ctx, leadID); err != nil {
		logger.Base().Error("Failed to mark lead failed", zap.String("lead_id", leadID), zap.Error(err))
	}
}

// Stats assembles the counter snapshot for one campaign, including the
// unresolved bucket (dialed leads that no provider event ever settled).
func (s *Service) Stats(ctx context.Context, orgID, campaignID string) (*domain.CampaignStats, error) {
	campaign, err := s.repos.Campaign().GetByID(ctx, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	pending, err := s.repos.Lead().CountByCampaignID(ctx, campaign.ID, domain.LeadStatusPending)
	if err != nil {
		return nil, err
	}
	return &domain.CampaignStats{
		CampaignID:      campaign.ID,
		Status:          campaign.Status,
		TotalLeads:      campaign.TotalLeads,
		CalledLeads:     campaign.CalledLeads,
		SuccessfulCalls: campaign.SuccessfulCalls,
		FailedCalls:     campaign.FailedCalls,
		Unresolved:      campaign.UnresolvedCalls(),
		PendingLeads:    pending,
	}, nil
}

// ImportLeads bulk-creates leads for a campaign and bumps the total counter.
func (s *Service) ImportLeads(ctx context.Context, orgID, campaignID string, req *domain.ImportLeadsRequest) (int, error) {
	campaign, err := s.repos.Campaign().GetByID(ctx, orgID, campaignID)
	if err != nil {
		return 0, err
	}

	leads := make([]*domain.Lead, 0, len(req.Leads))
	for _, row := range req.Leads {
		if row.Phone == "" {
			continue
		}
		leads = append(leads, &domain.Lead{
			CampaignID:     campaign.ID,
			OrganizationID: campaign.OrganizationID,
			Name:           row.Name,
			Phone:          row.Phone,
			Email:          row.Email,
			Status:         domain.LeadStatusPending,
		})
	}
	if len(leads) == 0 {
		return 0, nil
	}

	if err := s.repos.Lead().BulkCreate(ctx, leads); err != nil {
		return 0, err
	}
	if err := s.repos.Campaign().IncrementTotalLeads(ctx, campaign.ID, int64(len(leads))); err != nil {
		return len(leads), err
	}
	return len(leads), nil
}
