package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormToolRepository implements ToolRepository using GORM
type GormToolRepository struct {
	db *gorm.DB
}

// NewGormToolRepository creates a new GORM tool repository
func NewGormToolRepository(db *gorm.DB) *GormToolRepository {
	return &GormToolRepository{db: db}
}

// CreateTool creates a new tool record
func (r *GormToolRepository) CreateTool(ctx context.Context, tool *domain.Tool) error {
	if tool.ID == "" {
		tool.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(tool).Error; err != nil {
		return fmt.Errorf("failed to create tool: %w", err)
	}
	return nil
}

// GetToolsByOrganizationID retrieves tools by organization ID
func (r *GormToolRepository) GetToolsByOrganizationID(ctx context.Context, orgID string) ([]*domain.Tool, error) {
	var tools []*domain.Tool
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Find(&tools).Error; err != nil {
		return nil, fmt.Errorf("failed to get tools by organization ID: %w", err)
	}
	return tools, nil
}

// DeleteTool removes a tool record
func (r *GormToolRepository) DeleteTool(ctx context.Context, orgID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).Delete(&domain.Tool{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete tool: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("tool not found: %s", id)
	}
	return nil
}

// CreateCredential creates a new credential record
func (r *GormToolRepository) CreateCredential(ctx context.Context, cred *domain.Credential) error {
	if cred.ID == "" {
		cred.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(cred).Error; err != nil {
		return fmt.Errorf("failed to create credential: %w", err)
	}
	return nil
}

// GetCredentialsByOrganizationID retrieves credentials by organization ID
func (r *GormToolRepository) GetCredentialsByOrganizationID(ctx context.Context, orgID string) ([]*domain.Credential, error) {
	var creds []*domain.Credential
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Find(&creds).Error; err != nil {
		return nil, fmt.Errorf("failed to get credentials by organization ID: %w", err)
	}
	return creds, nil
}

// DeleteCredential removes a credential record
func (r *GormToolRepository) DeleteCredential(ctx context.Context, orgID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).Delete(&domain.Credential{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete credential: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("credential not found: %s", id)
	}
	return nil
}

// GormMeetingRepository implements MeetingRepository using GORM
type GormMeetingRepository struct {
	db *gorm.DB
}

// NewGormMeetingRepository creates a new GORM meeting repository
func NewGormMeetingRepository(db *gorm.DB) *GormMeetingRepository {
	return &GormMeetingRepository{db: db}
}

// Create creates a new meeting record
func (r *GormMeetingRepository) Create(ctx context.Context, meeting *domain.Meeting) error {
	if meeting.ID == "" {
		meeting.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(meeting).Error; err != nil {
		return fmt.Errorf("failed to create meeting: %w", err)
	}
	return nil
}

// GetByOrganizationID retrieves meetings by organization ID
func (r *GormMeetingRepository) GetByOrganizationID(ctx context.Context, orgID string) ([]*domain.Meeting, error) {
	var meetings []*domain.Meeting
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("starts_at DESC").Find(&meetings).Error; err != nil {
		return nil, fmt.Errorf("failed to get meetings by organization ID: %w", err)
	}
	return meetings, nil
}
