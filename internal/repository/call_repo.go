package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCallRepository implements CallRepository using GORM
type GormCallRepository struct {
	db *gorm.DB
}

// NewGormCallRepository creates a new GORM call repository
func NewGormCallRepository(db *gorm.DB) *GormCallRepository {
	return &GormCallRepository{db: db}
}

// Create creates a new call record
func (r *GormCallRepository) Create(ctx context.Context, call *domain.Call) error {
	if call.ID == "" {
		call.ID = uuid.New().String()
	}
	if call.Status == "" {
		call.Status = domain.CallStatusQueued
	}
	if err := r.db.WithContext(ctx).Create(call).Error; err != nil {
		return fmt.Errorf("failed to create call: %w", err)
	}
	return nil
}

// GetByID retrieves a call by ID scoped to an organization
func (r *GormCallRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Call, error) {
	var call domain.Call
	if err := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("call not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get call: %w", err)
	}
	return &call, nil
}

// GetByExternalCallID retrieves a call by the provider's call identifier.
// Returns nil without error when no local row matches; the reconciler treats
// that as a benign race or cross-environment event.
func (r *GormCallRepository) GetByExternalCallID(ctx context.Context, externalCallID string) (*domain.Call, error) {
	var call domain.Call
	if err := r.db.WithContext(ctx).Where("external_call_id = ?", externalCallID).First(&call).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get call by external ID: %w", err)
	}
	return &call, nil
}

// GetByOrganizationID retrieves calls for an organization, newest first
func (r *GormCallRepository) GetByOrganizationID(ctx context.Context, orgID string, limit, offset int) ([]*domain.Call, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var calls []*domain.Call
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Limit(limit).Offset(offset).Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to get calls by organization ID: %w", err)
	}
	return calls, nil
}

// GetByCampaignID retrieves calls for a campaign
func (r *GormCallRepository) GetByCampaignID(ctx context.Context, campaignID string) ([]*domain.Call, error) {
	var calls []*domain.Call
	if err := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).
		Order("created_at ASC").Find(&calls).Error; err != nil {
		return nil, fmt.Errorf("failed to get calls by campaign ID: %w", err)
	}
	return calls, nil
}

// ApplyStatus moves a call from one non-terminal status to another. The update
// is conditional on the expected current status so a stale or out-of-order
// notification loses the race and is dropped by the caller. When startedAt is
// set and the call has no start timestamp yet, it is stamped now.
func (r *GormCallRepository) ApplyStatus(ctx context.Context, id string, from, to domain.CallStatus, startedAt bool) (bool, error) {
	updates := map[string]interface{}{"status": to}
	query := r.db.WithContext(ctx).Model(&domain.Call{}).
		Where("id = ? AND status = ?", id, from)
	if startedAt {
		query = query.Where("started_at IS NULL")
		updates["started_at"] = time.Now()
		// Reapply without the started_at guard if the timestamp is already
		// set; the status move must still happen.
		result := query.Updates(updates)
		if result.Error != nil {
			return false, fmt.Errorf("failed to apply call status: %w", result.Error)
		}
		if result.RowsAffected > 0 {
			return true, nil
		}
		result = r.db.WithContext(ctx).Model(&domain.Call{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if result.Error != nil {
			return false, fmt.Errorf("failed to apply call status: %w", result.Error)
		}
		return result.RowsAffected > 0, nil
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to apply call status: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Finish moves a call into a terminal status, guarded on the call not being
// terminal already. Returns false when another delivery got there first, in
// which case no side effects (counter increments, lead resolution) may be
// applied by the caller.
func (r *GormCallRepository) Finish(ctx context.Context, id string, updates map[string]interface{}) (bool, error) {
	result := r.db.WithContext(ctx).Model(&domain.Call{}).
		Where("id = ? AND status NOT IN ?", id, domain.TerminalCallStatuses).
		Updates(updates)
	if result.Error != nil {
		return false, fmt.Errorf("failed to finish call: %w", result.Error)
	}
	return result.RowsAffected > 0, nil
}
