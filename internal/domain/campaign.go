package domain

import (
	"time"
)

// CampaignStatus represents the lifecycle state of a campaign
type CampaignStatus string

const (
	CampaignStatusDraft     CampaignStatus = "draft"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusPaused    CampaignStatus = "paused"
	CampaignStatusCompleted CampaignStatus = "completed"
)

// Campaign represents a batch outbound-calling effort against a set of leads
// using one agent.
//
// Counter invariants: CalledLeads <= TotalLeads and
// SuccessfulCalls + FailedCalls <= CalledLeads (strictly less while calls are
// unresolved). Counters are mutated only through atomic store-level increments.
type Campaign struct {
	ID              string         `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID  string         `json:"organization_id" gorm:"type:uuid;index;not null"`
	AgentID         string         `json:"agent_id" gorm:"type:uuid;index;not null"`
	Name            string         `json:"name" gorm:"type:varchar(255);not null"`
	Status          CampaignStatus `json:"status" gorm:"type:varchar(32);not null;default:'draft'"`
	TotalLeads      int64          `json:"total_leads" gorm:"default:0"`
	CalledLeads     int64          `json:"called_leads" gorm:"default:0"`
	SuccessfulCalls int64          `json:"successful_calls" gorm:"default:0"`
	FailedCalls     int64          `json:"failed_calls" gorm:"default:0"`
	CreatedAt       time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Campaign
func (Campaign) TableName() string {
	return "campaigns"
}

// UnresolvedCalls reports dialed leads that landed in neither the success nor
// the failure bucket. Some provider event sequences end a call without a
// report or hang event; the discrepancy is surfaced rather than guessed at.
func (c *Campaign) UnresolvedCalls() int64 {
	return c.CalledLeads - c.SuccessfulCalls - c.FailedCalls
}

// LeadStatus represents the dial state of a lead
type LeadStatus string

const (
	LeadStatusPending   LeadStatus = "pending"
	LeadStatusCalled    LeadStatus = "called"
	LeadStatusSucceeded LeadStatus = "succeeded"
	LeadStatusFailed    LeadStatus = "failed"
)

// Lead represents a contact targeted for outbound calling within a campaign.
// Status only ever moves pending -> called -> {succeeded|failed}; transitions
// are applied with conditional updates so a lead never regresses.
type Lead struct {
	ID             string     `json:"id" gorm:"type:uuid;primary_key"`
	CampaignID     string     `json:"campaign_id" gorm:"type:uuid;index;not null"`
	OrganizationID string     `json:"organization_id" gorm:"type:uuid;index;not null"`
	Name           string     `json:"name" gorm:"type:varchar(255)"`
	Phone          string     `json:"phone" gorm:"type:varchar(32);not null"`
	Email          string     `json:"email" gorm:"type:varchar(255)"`
	Status         LeadStatus `json:"status" gorm:"type:varchar(32);not null;default:'pending';index"`
	CallID         string     `json:"call_id,omitempty" gorm:"type:uuid"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Lead
func (Lead) TableName() string {
	return "leads"
}

// CreateCampaignRequest represents the request to create a new campaign
type CreateCampaignRequest struct {
	Name    string `json:"name" validate:"required"`
	AgentID string `json:"agent_id" validate:"required"`
}

// UpdateCampaignRequest represents the request to update a campaign
type UpdateCampaignRequest struct {
	Name   *string         `json:"name,omitempty"`
	Status *CampaignStatus `json:"status,omitempty"`
}

// ImportLeadsRequest represents a bulk lead import (CSV rows post-parse)
type ImportLeadsRequest struct {
	Leads []ImportLead `json:"leads" validate:"required"`
}

// ImportLead is one row of a lead import
type ImportLead struct {
	Name  string `json:"name"`
	Phone string `json:"phone" validate:"required"`
	Email string `json:"email,omitempty"`
}

// CampaignStats is the counter snapshot returned by the stats endpoint
type CampaignStats struct {
	CampaignID      string         `json:"campaign_id"`
	Status          CampaignStatus `json:"status"`
	TotalLeads      int64          `json:"total_leads"`
	CalledLeads     int64          `json:"called_leads"`
	SuccessfulCalls int64          `json:"successful_calls"`
	FailedCalls     int64          `json:"failed_calls"`
	Unresolved      int64          `json:"unresolved"`
	PendingLeads    int64          `json:"pending_leads"`
}
