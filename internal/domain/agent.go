package domain

import (
	"time"
)

// Agent represents a configured voice agent owned by an organization. The
// external assistant is provisioned on the call provider and referenced by
// ExternalAssistantID.
type Agent struct {
	ID                  string    `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID      string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	Name                string    `json:"name" gorm:"type:varchar(255);not null"`
	ExternalAssistantID string    `json:"external_assistant_id" gorm:"type:varchar(255);index"`
	SystemPrompt        string    `json:"system_prompt" gorm:"type:text"`
	FirstMessage        string    `json:"first_message" gorm:"type:text"`
	Voice               string    `json:"voice" gorm:"type:varchar(64)"`
	Language            string    `json:"language" gorm:"type:varchar(16);default:'en'"`
	CustomConfig        JSONB     `json:"custom_config" gorm:"type:jsonb"`
	CreatedAt           time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
	Disabled            bool      `json:"disabled" gorm:"default:false"`
}

// TableName sets the table name for Agent
func (Agent) TableName() string {
	return "agents"
}

// CreateAgentRequest represents the request to create a new agent
type CreateAgentRequest struct {
	Name         string `json:"name" validate:"required"`
	SystemPrompt string `json:"system_prompt"`
	FirstMessage string `json:"first_message"`
	Voice        string `json:"voice"`
	Language     string `json:"language"`
	CustomConfig JSONB  `json:"custom_config,omitempty"`
}

// UpdateAgentRequest represents the request to update an agent
type UpdateAgentRequest struct {
	Name         *string `json:"name,omitempty"`
	SystemPrompt *string `json:"system_prompt,omitempty"`
	FirstMessage *string `json:"first_message,omitempty"`
	Voice        *string `json:"voice,omitempty"`
	Language     *string `json:"language,omitempty"`
	CustomConfig *JSONB  `json:"custom_config,omitempty"`
	Disabled     *bool   `json:"disabled,omitempty"`
}
