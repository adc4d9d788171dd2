package signup

import "time"

// Session is the ephemeral pending-signup state held between request-OTP and
// complete-signup. It is addressable only by its opaque ID; there is no lookup
// by email. The password is hashed before it ever reaches the session, so the
// plaintext never outlives the request-OTP handler.
type Session struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"password_hash"`
	Role         string    `json:"role"`
	ReferralCode string    `json:"referral_code,omitempty"`
	OTPCode      string    `json:"otp_code"`
	Verified     bool      `json:"verified"`
	Attempts     int       `json:"attempts"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// Expired reports whether the session is unusable at the given instant
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
