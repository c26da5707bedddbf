package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLeadRepository implements LeadRepository using GORM
type GormLeadRepository struct {
	db *gorm.DB
}

// NewGormLeadRepository creates a new GORM lead repository
func NewGormLeadRepository(db *gorm.DB) *GormLeadRepository {
	return &GormLeadRepository{db: db}
}

// BulkCreate inserts a batch of imported leads
func (r *GormLeadRepository) BulkCreate(ctx context.Context, leads []*domain.Lead) error {
	if len(leads) == 0 {
		return nil
	}
	for _, lead := range leads {
		if lead.ID == "" {
			lead.ID = uuid.New().String()
		}
		if lead.Status == "" {
			lead.Status = domain.LeadStatusPending
		}
	}
	if err := r.db.WithContext(ctx).CreateInBatches(leads, 500).Error; err != nil {
		return fmt.Errorf("failed to bulk create leads: %w", err)
	}
	return nil
}

// GetByID retrieves a lead by ID
func (r *GormLeadRepository) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var lead domain.Lead
	if err := r.db.WithContext(ctx).First(&lead, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("lead not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return &lead, nil
}

// GetPendingByCampaignID retrieves up to limit pending leads in insertion order
func (r *GormLeadRepository) GetPendingByCampaignID(ctx context.Context, campaignID string, limit int) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	if err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND status = ?", campaignID, domain.LeadStatusPending).
		Order("created_at ASC, id ASC").Limit(limit).Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("failed to get pending leads: %w", err)
	}
	return leads, nil
}

// CountByCampaignID counts leads of a given status for a campaign
func (r *GormLeadRepository) CountByCampaignID(ctx context.Context, campaignID string, status domain.LeadStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("campaign_id = ? AND status = ?", campaignID, status).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count leads: %w", err)
	}
	return count, nil
}

// Claim attempts the pending -> called transition for one lead. The update is
// conditional on the current status, so of two concurrent dispatchers exactly
// one wins the claim; the loser sees false and skips the lead.
func (r *GormLeadRepository) Claim(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ? AND status = ?", id, domain.LeadStatusPending).
		Update("status", domain.LeadStatusCalled)
	if result.Error != nil {
		return false, fmt.Errorf("failed to claim lead: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// AttachCall records the back-reference to the local call row
func (r *GormLeadRepository) AttachCall(ctx context.Context, id, callID string) error {
	result := r.db.WithContext(ctx).Model(&domain.Lead{}).Where("id = ?", id).Update("call_id", callID)
	if result.Error != nil {
		return fmt.Errorf("failed to attach call to lead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("lead not found: %s", id)
	}
	return nil
}

// MarkClaimedFailed moves a claimed lead to failed after the external call
// initiation failed. Only the called -> failed edge is legal here.
func (r *GormLeadRepository) MarkClaimedFailed(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ? AND status = ?", id, domain.LeadStatusCalled).
		Update("status", domain.LeadStatusFailed)
	if result.Error != nil {
		return fmt.Errorf("failed to mark lead failed: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("lead not in called state: %s", id)
	}
	return nil
}

// Resolve moves a called lead to a terminal status. Returns false when the
// lead was already resolved (redelivered webhook), leaving it untouched.
func (r *GormLeadRepository) Resolve(ctx context.Context, id string, to domain.LeadStatus) (bool, error) {
	if to != domain.LeadStatusSucceeded && to != domain.LeadStatusFailed {
		return false, fmt.Errorf("invalid terminal lead status: %s", to)
	}
	result := r.db.WithContext(ctx).Model(&domain.Lead{}).
		Where("id = ? AND status = ?", id, domain.LeadStatusCalled).
		Update("status", to)
	if result.Error != nil {
		return false, fmt.Errorf("failed to resolve lead: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
