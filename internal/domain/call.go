package domain

import (
	"time"
)

// CallStatus represents the lifecycle state of a call. Status is monotonic
// along queued -> ringing -> in_progress -> {completed|failed|no_answer};
// notifications for an earlier state arriving after a later one are dropped.
type CallStatus string

const (
	CallStatusQueued     CallStatus = "queued"
	CallStatusRinging    CallStatus = "ringing"
	CallStatusInProgress CallStatus = "in_progress"
	CallStatusCompleted  CallStatus = "completed"
	CallStatusFailed     CallStatus = "failed"
	CallStatusNoAnswer   CallStatus = "no_answer"
)

// IsTerminal reports whether no further legitimate transition exists.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer:
		return true
	}
	return false
}

// TerminalCallStatuses lists the statuses from which a call never moves again.
// Used in conditional updates guarding counter increments.
var TerminalCallStatuses = []CallStatus{CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer}

// callStatusRank orders statuses along the legal lifecycle so that an
// out-of-order status-update can be detected and ignored.
var callStatusRank = map[CallStatus]int{
	CallStatusQueued:     0,
	CallStatusRinging:    1,
	CallStatusInProgress: 2,
	CallStatusCompleted:  3,
	CallStatusFailed:     3,
	CallStatusNoAnswer:   3,
}

// Rank returns the position of the status in the lifecycle ordering.
func (s CallStatus) Rank() int {
	return callStatusRank[s]
}

// Call is the local record of one attempted conversation, keyed to the
// provider's call identifier. Created by the dispatcher at initiation time;
// mutated exclusively by the webhook reconciler afterwards.
type Call struct {
	ID              string        `json:"id" gorm:"type:uuid;primary_key"`
	OrganizationID  string        `json:"organization_id" gorm:"type:uuid;index;not null"`
	AgentID         string        `json:"agent_id" gorm:"type:uuid;index"`
	PhoneNumberID   string        `json:"phone_number_id" gorm:"type:uuid"`
	CampaignID      string        `json:"campaign_id,omitempty" gorm:"type:uuid;index"`
	LeadID          string        `json:"lead_id,omitempty" gorm:"type:uuid"`
	ExternalCallID  string        `json:"external_call_id" gorm:"type:varchar(255);uniqueIndex:uni_calls_external_call_id;not null"`
	Direction       CallDirection `json:"direction" gorm:"type:varchar(16);not null;default:'outbound'"`
	Status          CallStatus    `json:"status" gorm:"type:varchar(32);not null;default:'queued'"`
	FromNumber      string        `json:"from_number" gorm:"type:varchar(32)"`
	ToNumber        string        `json:"to_number" gorm:"type:varchar(32)"`
	StartedAt       *time.Time    `json:"started_at,omitempty"`
	EndedAt         *time.Time    `json:"ended_at,omitempty"`
	DurationSeconds int64         `json:"duration_seconds" gorm:"default:0"`
	Transcript      string        `json:"transcript,omitempty" gorm:"type:text"`
	RecordingURL    string        `json:"recording_url,omitempty" gorm:"type:varchar(1024)"`
	Summary         string        `json:"summary,omitempty" gorm:"type:text"`
	CostCents       int64         `json:"cost_cents" gorm:"default:0"`
	CreatedAt       time.Time     `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName sets the table name for Call
func (Call) TableName() string {
	return "calls"
}
