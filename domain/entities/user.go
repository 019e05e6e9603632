package entities

import (
	"time"

	"github.com/google/uuid"
)

// User represents a platform member's star ledger.
// Stars are earned elsewhere in the platform; this service only spends them.
type User struct {
	ID            uuid.UUID `db:"id"`
	CompanyID     uuid.UUID `db:"company_id"`
	Name          string    `db:"name"`
	Email         string    `db:"email"`
	TotalStars    int64     `db:"total_stars"`    // Spendable balance
	RedeemedStars int64     `db:"redeemed_stars"` // Cumulative stars spent
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// CanAfford returns true if the user has at least cost spendable stars
func (u *User) CanAfford(cost int64) bool {
	return u.TotalStars >= cost
}
