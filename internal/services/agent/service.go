package agent

import (
	"context"
	"encoding/json"

	"github.com/ClareAI/astra-dialer-service/internal/adapters/vapi"
	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/ClareAI/astra-dialer-service/internal/prompts"
	"github.com/ClareAI/astra-dialer-service/internal/repository"
	"github.com/ClareAI/astra-dialer-service/pkg/logger"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"
)

// Service manages voice agents and their assistant counterparts on the call
// provider. The local row is the source of truth; the provider assistant is
// provisioned from it and kept in sync on update.
type Service struct {
	repos    repository.RepositoryManager
	provider *vapi.Client
}

// NewService creates a new agent service
func NewService(repos repository.RepositoryManager, provider *vapi.Client) *Service {
	return &Service{repos: repos, provider: provider}
}

// Create persists the agent and provisions its provider assistant. A
// provider failure leaves the agent usable for editing but not dialable
// until a later update succeeds.
func (s *Service) Create(ctx context.Context, orgID string, req *domain.CreateAgentRequest) (*domain.Agent, error) {
	created, err := s.repos.Agent().Create(ctx, req, orgID)
	if err != nil {
		return nil, err
	}

	resp, err := s.provider.CreateAssistant(ctx, s.assistantPayload(created))
	if err != nil {
		logger.Base().Error("Failed to provision assistant with provider",
			zap.String("agent_id", created.ID),
			zap.Error(err))
		return created, nil
	}

	if err := s.repos.Agent().SetExternalAssistantID(ctx, created.ID, resp.ID); err != nil {
		logger.Base().Error("Failed to store assistant reference",
			zap.String("agent_id", created.ID),
			zap.String("assistant_id", resp.ID),
			zap.Error(err))
		return created, err
	}
	created.ExternalAssistantID = resp.ID
	return created, nil
}

// Update patches the agent and pushes the new configuration to the provider
func (s *Service) Update(ctx context.Context, orgID, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	updated, err := s.repos.Agent().Update(ctx, orgID, id, req)
	if err != nil {
		return nil, err
	}

	payload := s.assistantPayload(updated)
	if updated.ExternalAssistantID == "" {
		resp, err := s.provider.CreateAssistant(ctx, payload)
		if err != nil {
			logger.Base().Error("Failed to provision assistant with provider",
				zap.String("agent_id", updated.ID),
				zap.Error(err))
			return updated, nil
		}
		if err := s.repos.Agent().SetExternalAssistantID(ctx, updated.ID, resp.ID); err != nil {
			return updated, err
		}
		updated.ExternalAssistantID = resp.ID
		return updated, nil
	}

	if _, err := s.provider.UpdateAssistant(ctx, updated.ExternalAssistantID, payload); err != nil {
		logger.Base().Error("Failed to sync assistant with provider",
			zap.String("agent_id", updated.ID),
			zap.String("assistant_id", updated.ExternalAssistantID),
			zap.Error(err))
	}
	return updated, nil
}

// Delete disables the agent locally and removes the provider assistant
func (s *Service) Delete(ctx context.Context, orgID, id string) error {
	existing, err := s.repos.Agent().GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if existing.ExternalAssistantID != "" {
		if err := s.provider.DeleteAssistant(ctx, existing.ExternalAssistantID); err != nil {
			logger.Base().Warn("Failed to delete assistant with provider, disabling locally anyway",
				zap.String("assistant_id", existing.ExternalAssistantID),
				zap.Error(err))
		}
	}
	return s.repos.Agent().Delete(ctx, orgID, id)
}

// assistantPayload maps the local agent onto the provider's assistant shape.
// CustomConfig overrides are copied over the defaults field for field.
func (s *Service) assistantPayload(a *domain.Agent) *vapi.CreateAssistantRequest {
	req := &vapi.CreateAssistantRequest{
		Name:         a.Name,
		FirstMessage: prompts.FirstMessageFor(a),
		Model: vapi.AssistantModel{
			Provider:     "openai",
			Model:        "gpt-4o",
			SystemPrompt: prompts.SystemPromptFor(a),
		},
		Voice: vapi.AssistantVoice{
			Provider: "11labs",
			VoiceID:  a.Voice,
		},
		Metadata: map[string]interface{}{
			"agentId":  a.ID,
			"language": a.Language,
		},
	}
	if len(a.CustomConfig) > 0 {
		var overrides vapi.CreateAssistantRequest
		raw, err := json.Marshal(a.CustomConfig)
		if err == nil {
			err = json.Unmarshal(raw, &overrides)
		}
		if err == nil {
			err = copier.CopyWithOption(req, &overrides, copier.Option{IgnoreEmpty: true})
		}
		if err != nil {
			logger.Base().Warn("Failed to apply custom agent config",
				zap.String("agent_id", a.ID),
				zap.Error(err))
		}
	}
	return req
}
