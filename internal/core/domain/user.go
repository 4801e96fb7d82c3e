package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role values supplied by the platform's authentication layer.
const (
	RoleAdmin       = "admin"
	RoleContributor = "contributor"
	RoleBuyer       = "buyer"
)

// User carries the buyer-side running totals.
// CreditsPurchased and RewardPoints are mutated only inside the settlement
// engine's atomic unit.
type User struct {
	ID               uuid.UUID `json:"id"`
	DisplayName      string    `json:"display_name"`
	Role             string    `json:"role"`
	CreditsPurchased int64     `json:"credits_purchased"`
	RewardPoints     int64     `json:"reward_points"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}
