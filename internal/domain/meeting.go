package domain

import (
	"time"
)

// Meeting records a booking the agent made during a call. Slot computation is
// the scheduling provider's job; only the resulting booking reference lands
// here, lifted from the end-of-call payload.
type Meeting struct {
	ID                string    `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID    string    `json:"organization_id" gorm:"type:uuid;index;not null"`
	CallID            string    `json:"call_id,omitempty" gorm:"type:uuid;index"`
	LeadID            string    `json:"lead_id,omitempty" gorm:"type:uuid"`
	AttendeeEmail     string    `json:"attendee_email" gorm:"type:varchar(255)"`
	StartsAt          time.Time `json:"starts_at"`
	ExternalBookingID string    `json:"external_booking_id" gorm:"type:varchar(255);index"`
	CreatedAt         time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Meeting
func (Meeting) TableName() string {
	return "meetings"
}
