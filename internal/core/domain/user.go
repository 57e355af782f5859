package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCitizen    Role = "citizen"
	RolePolitician Role = "politician"
	RoleModerator  Role = "moderator"
)

func (r Role) Valid() bool {
	return r == RoleCitizen || r == RolePolitician
}

type User struct {
	ID          uuid.UUID `json:"id"`
	DisplayName string    `json:"display_name"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

// Wallet holds a user's points. Purchased is the lifetime amount bought and is
// what the other three columns must add up to across the whole system.
type Wallet struct {
	UserID           uuid.UUID `json:"user_id"`
	Available        int64     `json:"available_points"`
	Staked           int64     `json:"staked_points"`
	EarnedOrReleased int64     `json:"earned_or_released_points"`
	Purchased        int64     `json:"-"`
}

// Check reports ErrInvariantViolation when a balance went negative.
func (w *Wallet) Check() error {
	if w.Available < 0 || w.Staked < 0 || w.EarnedOrReleased < 0 {
		return E("wallet.check", w.UserID, ErrInvariantViolation)
	}
	return nil
}
