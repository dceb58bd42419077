// internal/models/candidate.go
package models

import "database/sql"

// Candidate represents the candidates table. The ledger column holds the
// candidate's entire feedback history as a single encoded text blob;
// CurrentOwnerCode is the executive currently credited with the candidate.
type Candidate struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Email            sql.NullString `json:"email,omitempty"`
	Phone            sql.NullString `json:"phone,omitempty"`
	Ledger           string         `json:"-"`
	CurrentOwnerCode sql.NullString `json:"currentOwnerCode,omitempty"`
	CreatedAt        string         `json:"createdAt"`
	UpdatedAt        string         `json:"updatedAt"`
}
