package account

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two signup surfaces sharing one accounts table
const (
	RoleStudent = "student"
	RolePartner = "partner"
)

type Account struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"` // Never expose password hash in JSON
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	Phone            string    `json:"phone"`
	Role             string    `json:"role"`
	EmailVerified    bool      `json:"is_email_verified"`
	ReferralCodeUsed *string   `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewAccountParams carries everything the repository needs to insert an account.
// EmailVerified is always true here: accounts only come into existence after
// the OTP flow has proven control of the email address.
type NewAccountParams struct {
	Email            string
	PasswordHash     string
	FirstName        string
	LastName         string
	Phone            string
	Role             string
	ReferralCodeUsed *string
}
