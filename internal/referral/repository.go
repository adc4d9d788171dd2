package referral

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campusgate/admissions-api/internal/database"
)

var ErrCodeNotFound = errors.New("referral code not found")

// Repository handles referral code persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// RecordUse resolves a referral code, records the referred account against it
// and increments the owner's signup counter. Both writes happen in one
// transaction so the counter never drifts from the use list.
func (r *Repository) RecordUse(ctx context.Context, code string, accountID uuid.UUID) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		dbCode := new(database.ReferralCode)
		err := tx.NewSelect().
			Model(dbCode).
			Where("code = ?", code).
			Scan(ctx)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("failed to resolve referral code: %w", err)
		}

		use := &database.ReferralUse{
			ReferralCodeID: dbCode.ID,
			AccountID:      accountID,
		}
		if _, err := tx.NewInsert().Model(use).Exec(ctx); err != nil {
			return fmt.Errorf("failed to record referral use: %w", err)
		}

		_, err = tx.NewUpdate().
			Model((*database.ReferralCode)(nil)).
			Set("signup_count = signup_count + 1").
			Where("id = ?", dbCode.ID).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to increment referral counter: %w", err)
		}

		return nil
	})
}
