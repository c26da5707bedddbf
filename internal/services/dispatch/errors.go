package dispatch

import "fmt"

// PreconditionError indicates the campaign is not ready to dial: a missing
// agent configuration or no usable phone number. No mutation was performed.
type PreconditionError struct {
	Resource string
	Reason   string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition failed (%s): %s", e.Resource, e.Reason)
}

// NewPreconditionError creates a precondition error for the named resource
func NewPreconditionError(resource, reason string) *PreconditionError {
	return &PreconditionError{Resource: resource, Reason: reason}
}

// ExternalCallError wraps a provider failure for a single lead. The batch
// continues past it; the error lands in that lead's result entry.
type ExternalCallError struct {
	LeadID string
	Err    error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("external call failed for lead %s: %v", e.LeadID, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}
