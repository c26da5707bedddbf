package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormAgentRepository implements AgentRepository using GORM
type GormAgentRepository struct {
	db *gorm.DB
}

// NewGormAgentRepository creates a new GORM agent repository
func NewGormAgentRepository(db *gorm.DB) *GormAgentRepository {
	return &GormAgentRepository{db: db}
}

// Create creates a new agent
func (r *GormAgentRepository) Create(ctx context.Context, req *domain.CreateAgentRequest, orgID string) (*domain.Agent, error) {
	language := req.Language
	if language == "" {
		language = "en"
	}

	agent := &domain.Agent{
		ID:             uuid.New().String(),
		OrganizationID: orgID,
		Name:           req.Name,
		SystemPrompt:   req.SystemPrompt,
		FirstMessage:   req.FirstMessage,
		Voice:          req.Voice,
		Language:       language,
		CustomConfig:   req.CustomConfig,
	}

	if err := r.db.WithContext(ctx).Create(agent).Error; err != nil {
		return nil, fmt.Errorf("failed to create agent: %w", err)
	}

	return agent, nil
}

// GetByID retrieves an agent by ID scoped to an organization
func (r *GormAgentRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("agent not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get agent: %w", err)
	}
	return &agent, nil
}

// GetByOrganizationID retrieves agents by organization ID
func (r *GormAgentRepository) GetByOrganizationID(ctx context.Context, orgID string, includeDisabled bool) ([]*domain.Agent, error) {
	var agents []*domain.Agent
	query := r.db.WithContext(ctx).Where("organization_id = ?", orgID)

	if !includeDisabled {
		query = query.Where("disabled = ?", false)
	}

	if err := query.Order("created_at DESC").Find(&agents).Error; err != nil {
		return nil, fmt.Errorf("failed to get agents by organization ID: %w", err)
	}

	return agents, nil
}

// Update updates an agent
func (r *GormAgentRepository) Update(ctx context.Context, orgID, id string, req *domain.UpdateAgentRequest) (*domain.Agent, error) {
	var agent domain.Agent
	if err := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&agent).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("agent not found: %s", id)
		}
		return nil, fmt.Errorf("failed to find agent: %w", err)
	}

	// Build update map
	updates := make(map[string]interface{})

	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.SystemPrompt != nil {
		updates["system_prompt"] = *req.SystemPrompt
	}
	if req.FirstMessage != nil {
		updates["first_message"] = *req.FirstMessage
	}
	if req.Voice != nil {
		updates["voice"] = *req.Voice
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	if req.CustomConfig != nil {
		updates["custom_config"] = *req.CustomConfig
	}
	if req.Disabled != nil {
		updates["disabled"] = *req.Disabled
	}

	if len(updates) == 0 {
		return &agent, nil // No changes
	}

	if err := r.db.WithContext(ctx).Model(&agent).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update agent: %w", err)
	}

	return &agent, nil
}

// SetExternalAssistantID records the provider's assistant reference
func (r *GormAgentRepository) SetExternalAssistantID(ctx context.Context, id, externalID string) error {
	result := r.db.WithContext(ctx).Model(&domain.Agent{}).Where("id = ?", id).Update("external_assistant_id", externalID)
	if result.Error != nil {
		return fmt.Errorf("failed to set external assistant ID: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}
	return nil
}

// Delete soft deletes an agent
func (r *GormAgentRepository) Delete(ctx context.Context, orgID, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.Agent{}).
		Where("id = ? AND organization_id = ?", id, orgID).
		Update("disabled", true)
	if result.Error != nil {
		return fmt.Errorf("failed to delete agent: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("agent not found: %s", id)
	}

	return nil
}

// CountByOrganizationID counts active agents by organization ID
func (r *GormAgentRepository) CountByOrganizationID(ctx context.Context, orgID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Agent{}).
		Where("organization_id = ? AND disabled = ?", orgID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count agents by organization ID: %w", err)
	}

	return int(count), nil
}
