package domain

import (
	"time"
)

// Tool represents a reusable function/tool registered with the call provider
// and attachable to agents.
type Tool struct {
	ID             string    `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	Name           string    `json:"name" gorm:"type:varchar(255);not null"`
	Type           string    `json:"type" gorm:"type:varchar(64);not null"`
	ExternalToolID string    `json:"external_tool_id" gorm:"type:varchar(255);index"`
	Config         JSONB     `json:"config" gorm:"type:jsonb"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Tool
func (Tool) TableName() string {
	return "tools"
}

// CreateToolRequest represents the request to create a new tool
type CreateToolRequest struct {
	Name   string `json:"name" validate:"required"`
	Type   string `json:"type" validate:"required"`
	Config JSONB  `json:"config,omitempty"`
}

// Credential represents a provider-side credential object (e.g. a calendar or
// CRM connection) referenced by tools.
type Credential struct {
	ID                   string    `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID       string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	Provider             string    `json:"provider" gorm:"type:varchar(64);not null"`
	ExternalCredentialID string    `json:"external_credential_id" gorm:"type:varchar(255);index"`
	CreatedAt            time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt            time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Credential
func (Credential) TableName() string {
	return "credentials"
}

// CreateCredentialRequest represents the request to register a credential
type CreateCredentialRequest struct {
	Provider string `json:"provider" validate:"required"`
	APIKey   string `json:"api_key" validate:"required"`
}
