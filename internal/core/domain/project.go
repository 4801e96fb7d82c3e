package domain

import (
	"time"

	"github.com/google/uuid"
)

// ProjectStatus represents the ledger-relevant lifecycle of a project.
// The full review workflow (submission, GIS checks, rejection) lives in the
// project subsystem; the ledger only cares whether credits may still be issued.
type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "PENDING"
	ProjectStatusApproved  ProjectStatus = "APPROVED"
	ProjectStatusFinalized ProjectStatus = "FINALIZED"
)

// Project carries the seller-side credit balance.
// CreditsEarned is the available-for-sale balance: set once at minting,
// decremented by purchases, mutated only inside the settlement engine.
type Project struct {
	ID            uuid.UUID     `json:"id"`
	Name          string        `json:"name"`
	ContributorID uuid.UUID     `json:"contributor_id"`
	Status        ProjectStatus `json:"status"`
	CreditsEarned int64         `json:"credits_earned"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Approvable returns true if credits may still be minted for the project.
func (p *Project) Approvable() bool {
	return p.Status == ProjectStatusApproved
}
