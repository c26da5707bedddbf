package reconcile

import "github.com/ClareAI/astra-dialer-service/internal/domain"

// Webhook message types the provider delivers. Unknown types are logged and
// ignored so provider additions do not break the endpoint.
const (
	MessageTypeStatusUpdate    = "status-update"
	MessageTypeEndOfCallReport = "end-of-call-report"
	MessageTypeHang            = "hang"
)

// HangReasonNoAnswer marks a hang caused by the callee never picking up
const HangReasonNoAnswer = "customer-did-not-answer"

// providerStatusMap is the closed mapping from the provider's status
// vocabulary to the local one.
var providerStatusMap = map[string]domain.CallStatus{
	"queued":      domain.CallStatusQueued,
	"ringing":     domain.CallStatusRinging,
	"in-progress": domain.CallStatusInProgress,
	"forwarding":  domain.CallStatusInProgress,
	"ended":       domain.CallStatusCompleted,
}

// MapProviderStatus translates a provider status string to a local status.
// Unmapped values default to in_progress: marking a live call terminal on an
// unrecognized value would corrupt campaign aggregates, so fail toward
// "still happening".
func MapProviderStatus(s string) domain.CallStatus {
	if mapped, ok := providerStatusMap[s]; ok {
		return mapped
	}
	return domain.CallStatusInProgress
}

// WebhookEnvelope is the outer JSON body of a provider notification
type WebhookEnvelope struct {
	Message *WebhookMessage `json:"message"`
}

// WebhookMessage is the event payload inside the envelope
type WebhookMessage struct {
	Type            string           `json:"type"`
	Call            *WebhookCall     `json:"call"`
	Status          string           `json:"status,omitempty"`
	DurationSeconds *float64         `json:"durationSeconds,omitempty"`
	Transcript      string           `json:"transcript,omitempty"`
	RecordingURL    string           `json:"recordingUrl,omitempty"`
	Summary         string           `json:"summary,omitempty"`
	Cost            float64          `json:"cost,omitempty"`
	Reason          string           `json:"reason,omitempty"`
	Analysis        *WebhookAnalysis `json:"analysis,omitempty"`
}

// WebhookCall carries the provider's call identifier
type WebhookCall struct {
	ID string `json:"id"`
}

// WebhookAnalysis carries post-call structured extraction, including any
// meeting the agent booked during the conversation.
type WebhookAnalysis struct {
	StructuredData map[string]interface{} `json:"structuredData,omitempty"`
}
