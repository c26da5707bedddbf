package domain

import (
	"time"
)

// Organization represents a tenant organization in the dialer system
type Organization struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Name      string    `json:"name" gorm:"type:varchar(255);not null"`
	APIKey    string    `json:"api_key" gorm:"type:varchar(512);uniqueIndex:uni_organizations_api_key"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled  bool      `json:"disabled" gorm:"default:false"`
}

// TableName sets the table name for Organization
func (Organization) TableName() string {
	return "organizations"
}

// CreateOrganizationRequest represents the request to register an organization
type CreateOrganizationRequest struct {
	Name string `json:"name" validate:"required"`
}

// UpdateSubscriptionRequest represents the request to change an
// organization's plan
type UpdateSubscriptionRequest struct {
	Plan SubscriptionPlan `json:"plan" validate:"required"`
}

// SubscriptionPlan identifies the billing plan of an organization
type SubscriptionPlan string

const (
	PlanFree       SubscriptionPlan = "free"
	PlanStarter    SubscriptionPlan = "starter"
	PlanGrowth     SubscriptionPlan = "growth"
	PlanEnterprise SubscriptionPlan = "enterprise"
)

// Subscription represents an organization's billing subscription
type Subscription struct {
	ID               string           `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID   string           `json:"organization_id" gorm:"type:uuid;uniqueIndex:uni_subscriptions_org;not null"`
	Plan             SubscriptionPlan `json:"plan" gorm:"type:varchar(32);not null;default:'free'"`
	Status           string           `json:"status" gorm:"type:varchar(32);not null;default:'active'"`
	CurrentPeriodEnd time.Time        `json:"current_period_end"`
	CreatedAt        time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Subscription
func (Subscription) TableName() string {
	return "subscriptions"
}

// UsageRecord captures billed call minutes for an organization in a period
type UsageRecord struct {
	ID              string    `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID  string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	PeriodStart     time.Time `json:"period_start"`
	DurationSeconds int64     `json:"duration_seconds" gorm:"default:0"`
	CostCents       int64     `json:"cost_cents" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for UsageRecord
func (UsageRecord) TableName() string {
	return "usage_records"
}
