package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCampaignRepository implements CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GORM campaign repository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// Create creates a new campaign
func (r *GormCampaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.New().String()
	}
	if campaign.Status == "" {
		campaign.Status = domain.CampaignStatusDraft
	}
	if err := r.db.WithContext(ctx).Create(campaign).Error; err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// GetByID retrieves a campaign by ID scoped to an organization
func (r *GormCampaignRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Campaign, error) {
	var campaign domain.Campaign
	if err := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&campaign).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("campaign not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get campaign: %w", err)
	}
	return &campaign, nil
}

// GetByOrganizationID retrieves campaigns by organization ID
func (r *GormCampaignRepository) GetByOrganizationID(ctx context.Context, orgID string) ([]*domain.Campaign, error) {
	var campaigns []*domain.Campaign
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to get campaigns by organization ID: %w", err)
	}
	return campaigns, nil
}

// Update updates a campaign
func (r *GormCampaignRepository) Update(ctx context.Context, orgID, id string, req *domain.UpdateCampaignRequest) (*domain.Campaign, error) {
	var campaign domain.Campaign
	if err := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&campaign).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("campaign not found: %s", id)
		}
		return nil, fmt.Errorf("failed to find campaign: %w", err)
	}

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Status != nil {
		updates["status"] = *req.Status
	}

	if len(updates) == 0 {
		return &campaign, nil // No changes
	}

	if err := r.db.WithContext(ctx).Model(&campaign).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	return &campaign, nil
}

// SetStatus sets the campaign status
func (r *GormCampaignRepository) SetStatus(ctx context.Context, id string, status domain.CampaignStatus) error {
	result := r.db.WithContext(ctx).Model(&domain.Campaign{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to set campaign status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("campaign not found: %s", id)
	}
	return nil
}

// Delete removes a campaign and its leads
func (r *GormCampaignRepository) Delete(ctx context.Context, orgID, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND organization_id = ?", id, orgID).Delete(&domain.Campaign{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete campaign: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("campaign not found: %s", id)
		}
		if err := tx.Where("campaign_id = ?", id).Delete(&domain.Lead{}).Error; err != nil {
			return fmt.Errorf("failed to delete campaign leads: %w", err)
		}
		return nil
	})
}

// IncrementTotalLeads atomically bumps the total lead counter
func (r *GormCampaignRepository) IncrementTotalLeads(ctx context.Context, id string, n int64) error {
	return r.increment(ctx, id, "total_leads", n)
}

// IncrementCalledLeads atomically bumps the called lead counter
func (r *GormCampaignRepository) IncrementCalledLeads(ctx context.Context, id string, n int64) error {
	return r.increment(ctx, id, "called_leads", n)
}

// IncrementSuccessfulCalls atomically bumps the successful call counter
func (r *GormCampaignRepository) IncrementSuccessfulCalls(ctx context.Context, id string) error {
	return r.increment(ctx, id, "successful_calls", 1)
}

// IncrementFailedCalls atomically bumps the failed call counter
func (r *GormCampaignRepository) IncrementFailedCalls(ctx context.Context, id string) error {
	return r.increment(ctx, id, "failed_calls", 1)
}

// increment applies a store-level atomic counter update. Read-then-write-back
// would drop updates under interleaved webhook deliveries and dispatch batches.
func (r *GormCampaignRepository) increment(ctx context.Context, id, column string, n int64) error {
	if n == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&domain.Campaign{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + ?", n))
	if result.Error != nil {
		return fmt.Errorf("failed to increment campaign %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("campaign not found: %s", id)
	}
	return nil
}

// CountActiveByOrganizationID counts campaigns not yet completed for an organization
func (r *GormCampaignRepository) CountActiveByOrganizationID(ctx context.Context, orgID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Campaign{}).
		Where("organization_id = ? AND status IN ?", orgID,
			[]domain.CampaignStatus{domain.CampaignStatusDraft, domain.CampaignStatusActive, domain.CampaignStatusPaused}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count campaigns by organization ID: %w", err)
	}
	return int(count), nil
}
