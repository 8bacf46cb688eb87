package dto

const (
	DecisionApproved          = "application.approved"
	DecisionRejected          = "application.rejected"
	DecisionDocumentValidated = "document.validated"
)

// ReviewDecisionEvent is published after the backend confirmed a review action.
type ReviewDecisionEvent struct {
	EventID       string  `json:"event_id"`
	Action        string  `json:"action"`
	ApplicationID uint    `json:"application_id"`
	DocumentID    *uint   `json:"document_id,omitempty"`
	Status        string  `json:"status"`
	Reason        *string `json:"reason,omitempty"`
	DecidedBy     string  `json:"decided_by,omitempty"`
	DecidedAt     string  `json:"decided_at"`
}
