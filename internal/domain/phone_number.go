package domain

import (
	"time"
)

// PhoneNumberProvider identifies where a phone number was provisioned
type PhoneNumberProvider string

const (
	PhoneProviderVapi   PhoneNumberProvider = "vapi"
	PhoneProviderTwilio PhoneNumberProvider = "twilio"
)

// PhoneNumber represents an externally provisioned phone number owned by an
// organization. The dispatcher only reads these; provisioning happens through
// the call provider (or a BYO Twilio import).
type PhoneNumber struct {
	ID                    string              `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID        string              `json:"organization_id" gorm:"type:uuid;index;not null"`
	ExternalPhoneNumberID string              `json:"external_phone_number_id" gorm:"type:varchar(255);index"`
	Number                string              `json:"number" gorm:"type:varchar(32);not null"`
	Provider              PhoneNumberProvider `json:"provider" gorm:"type:varchar(32);not null;default:'vapi'"`
	IsActive              bool                `json:"is_active" gorm:"default:true"`
	CreatedAt             time.Time           `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt             time.Time           `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for PhoneNumber
func (PhoneNumber) TableName() string {
	return "phone_numbers"
}

// CreatePhoneNumberRequest represents the request to provision a phone number
type CreatePhoneNumberRequest struct {
	AreaCode string `json:"area_code,omitempty"`
	Number   string `json:"number,omitempty"`
}

// ImportTwilioNumberRequest represents the request to import a BYO Twilio number
type ImportTwilioNumberRequest struct {
	Number          string `json:"number" validate:"required"`
	TwilioSID       string `json:"twilio_sid"`
	TwilioAuthToken string `json:"twilio_auth_token"`
}
