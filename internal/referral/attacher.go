package referral

import (
	"context"
	"errors"

	"github.com/campusgate/admissions-api/internal/account"
	"github.com/campusgate/admissions-api/internal/logging"
)

// Attacher records referral use as a best-effort post-create step. Failures
// are logged and swallowed: a bad referral code must never block an account
// that has already been created.
type Attacher struct {
	repo   *Repository
	logger *logging.Logger
}

func NewAttacher(repo *Repository, logger *logging.Logger) *Attacher {
	return &Attacher{repo: repo, logger: logger}
}

// Attach satisfies signup.PostCreateHook
func (a *Attacher) Attach(ctx context.Context, acct *account.Account, code string) {
	if err := a.repo.RecordUse(ctx, code, acct.ID); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			a.logger.Warn("referral code not found", "code", code, "account_id", acct.ID)
			return
		}
		a.logger.Error("failed to record referral use", "code", code, "account_id", acct.ID, "error", err.Error())
	}
}
