package repository

import (
	"context"
	"fmt"

	"github.com/ClareAI/astra-dialer-service/internal/domain"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPhoneNumberRepository implements PhoneNumberRepository using GORM
type GormPhoneNumberRepository struct {
	db *gorm.DB
}

// NewGormPhoneNumberRepository creates a new GORM phone number repository
func NewGormPhoneNumberRepository(db *gorm.DB) *GormPhoneNumberRepository {
	return &GormPhoneNumberRepository{db: db}
}

// Create creates a new phone number record
func (r *GormPhoneNumberRepository) Create(ctx context.Context, number *domain.PhoneNumber) error {
	if number.ID == "" {
		number.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(number).Error; err != nil {
		return fmt.Errorf("failed to create phone number: %w", err)
	}
	return nil
}

// GetByID retrieves a phone number by ID scoped to an organization
func (r *GormPhoneNumberRepository) GetByID(ctx context.Context, orgID, id string) (*domain.PhoneNumber, error) {
	var number domain.PhoneNumber
	if err := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).First(&number).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("phone number not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get phone number: %w", err)
	}
	return &number, nil
}

// GetByOrganizationID retrieves phone numbers by organization ID
func (r *GormPhoneNumberRepository) GetByOrganizationID(ctx context.Context, orgID string) ([]*domain.PhoneNumber, error) {
	var numbers []*domain.PhoneNumber
	if err := r.db.WithContext(ctx).Where("organization_id = ?", orgID).
		Order("created_at DESC").Find(&numbers).Error; err != nil {
		return nil, fmt.Errorf("failed to get phone numbers by organization ID: %w", err)
	}
	return numbers, nil
}

// GetFirstActive retrieves the oldest active, externally provisioned phone
// number for an organization; nil when the organization has none.
func (r *GormPhoneNumberRepository) GetFirstActive(ctx context.Context, orgID string) (*domain.PhoneNumber, error) {
	var number domain.PhoneNumber
	err := r.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ? AND external_phone_number_id <> ''", orgID, true).
		Order("created_at ASC").First(&number).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active phone number: %w", err)
	}
	return &number, nil
}

// Delete removes a phone number record
func (r *GormPhoneNumberRepository) Delete(ctx context.Context, orgID, id string) error {
	result := r.db.WithContext(ctx).Where("id = ? AND organization_id = ?", id, orgID).Delete(&domain.PhoneNumber{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete phone number: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("phone number not found: %s", id)
	}
	return nil
}

// CountByOrganizationID counts phone numbers by organization ID
func (r *GormPhoneNumberRepository) CountByOrganizationID(ctx context.Context, orgID string) (int, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.PhoneNumber{}).
		Where("organization_id = ?", orgID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count phone numbers by organization ID: %w", err)
	}
	return int(count), nil
}
