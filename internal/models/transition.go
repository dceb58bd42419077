// internal/models/transition.go
package models

// TransitionReason classifies why ownership of a job engagement changed.
type TransitionReason string

const (
	ReasonInitialAssignment  TransitionReason = "initial-assignment"
	ReasonManualReassignment TransitionReason = "manual-reassignment"
	ReasonExpiredAutoOpen    TransitionReason = "expired-nfd-auto-open"
	ReasonClaimedOpenJob     TransitionReason = "claimed-open-job"
	ReasonManagerOverride    TransitionReason = "manager-override"
)

// OwnershipTransition is the append-only audit record written for every
// ownership change. Rows are never updated or deleted.
type OwnershipTransition struct {
	ID                string           `json:"id"`
	JobEngagementID   int64            `json:"jobEngagementId"`
	CandidateID       string           `json:"candidateId"`
	PreviousOwnerCode string           `json:"previousOwnerCode"`
	NewOwnerCode      string           `json:"newOwnerCode"`
	AssignedByCode    string           `json:"assignedByCode"`
	ReasonCode        TransitionReason `json:"reasonCode"`
	Notes             string           `json:"notes,omitempty"`
	CreatedAt         string           `json:"createdAt"`
}
