package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the persisted account row for students and referral-portal partners
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a"`

	ID               uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Email            string    `bun:"email,notnull,unique"`
	PasswordHash     string    `bun:"password_hash,notnull"`
	FirstName        string    `bun:"first_name,notnull"`
	LastName         string    `bun:"last_name,notnull"`
	Phone            string    `bun:"phone,notnull"`
	Role             string    `bun:"role,notnull,default:'student'"`
	EmailVerified    bool      `bun:"email_verified,notnull,default:false"`
	ReferralCodeUsed *string   `bun:"referral_code_used"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ReferralCode is a partner-owned code new accounts can sign up with
type ReferralCode struct {
	bun.BaseModel `bun:"table:referral_codes,alias:rc"`

	ID          uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	Code        string    `bun:"code,notnull,unique"`
	OwnerID     uuid.UUID `bun:"owner_id,notnull,type:uuid"`
	SignupCount int64     `bun:"signup_count,notnull,default:0"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// ReferralUse records one account signing up against a referral code
type ReferralUse struct {
	bun.BaseModel `bun:"table:referral_uses,alias:ru"`

	ID             uuid.UUID `bun:"id,pk,type:uuid,default:gen_random_uuid()"`
	ReferralCodeID uuid.UUID `bun:"referral_code_id,notnull,type:uuid"`
	AccountID      uuid.UUID `bun:"account_id,notnull,type:uuid"`
	CreatedAt      time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}
