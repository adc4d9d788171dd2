package signup

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusgate/admissions-api/internal/account"
)

// AccountRepository is the persistence contract the orchestrator needs.
// Create must return account.ErrDuplicateEmail on a unique-constraint
// violation so the completion-time race can be surfaced as a conflict.
type AccountRepository interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, params account.NewAccountParams) (*account.Account, error)
}

// CodeSender delivers one-time codes. Failure must be distinguishable from
// success; its internal cause is opaque to the orchestrator.
type CodeSender interface {
	SendOTPEmail(ctx context.Context, toEmail, code string) error
}

// TokenIssuer mints the signed credential handed out on signup completion
type TokenIssuer interface {
	CreateToken(userID uuid.UUID, email string, duration time.Duration) (string, error)
}

// PostCreateHook runs after account creation as a best-effort side effect.
// Implementations log their own failures; the orchestrator never sees them.
type PostCreateHook func(ctx context.Context, acct *account.Account, referralCode string)

// RateLimiter is the slice of the rate limiter the signup surface uses:
// per-purpose IP buckets plus a per-email cooldown on outbound sends.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	CheckEmailCooldown(ctx context.Context, email string) (bool, error)
	SetEmailCooldown(ctx context.Context, email string) error
}
