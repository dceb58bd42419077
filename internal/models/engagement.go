// internal/models/engagement.go
package models

import "database/sql"

// Transfer states for a job engagement row. Reassignment freezes the old
// row as Inactive and spawns a fresh Active row under the new owner.
const (
	TransferStateActive   = "Active"
	TransferStateInactive = "Inactive"
)

// JobEngagement represents the job_engagements table: one row per
// candidate-per-client relationship. An empty OwnerCode means the
// engagement is unowned and eligible for claiming.
type JobEngagement struct {
	ID                  int64          `json:"id"`
	CandidateID         string         `json:"candidateId"`
	ClientName          string         `json:"clientName"`
	OwnerCode           sql.NullString `json:"ownerCode,omitempty"`
	OwnerAssignedByCode sql.NullString `json:"ownerAssignedByCode,omitempty"`
	PreviousOwnerCode   sql.NullString `json:"previousOwnerCode,omitempty"`
	StatusLabel         sql.NullString `json:"statusLabel,omitempty"`
	NextFollowUpDate    sql.NullTime   `json:"nextFollowUpDate,omitempty"`
	InterviewDate       sql.NullTime   `json:"interviewDate,omitempty"`
	ExpectedJoiningDate sql.NullTime   `json:"expectedJoiningDate,omitempty"`
	SubmissionFlag      bool           `json:"submissionFlag"`
	SubmissionDate      sql.NullTime   `json:"submissionDate,omitempty"`
	TransferState       string         `json:"transferState"`
	CreatedAt           string         `json:"createdAt"`
	UpdatedAt           string         `json:"updatedAt"`
}

// OwnershipSnapshot is the assignment endpoint's response shape and the
// value cached for permission checks.
type OwnershipSnapshot struct {
	JobEngagementID   int64  `json:"jobEngagementId"`
	OwnerCode         string `json:"ownerCode"`
	PreviousOwnerCode string `json:"previousOwnerCode"`
	AssignedByCode    string `json:"assignedByCode"`
	IsAssigned        bool   `json:"isAssigned"`
}
