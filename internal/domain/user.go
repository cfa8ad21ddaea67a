package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultUserTitle = "Cashflow Builder"

type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Title        string
	PasswordHash string
	CreatedAt    time.Time
}

// Scope is the key the user's ledger is stored under.
func (u *User) Scope() string {
	return u.ID.String()
}
