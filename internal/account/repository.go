package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/campusgate/admissions-api/internal/database"
)

var (
	ErrNotFound       = errors.New("account not found")
	ErrDuplicateEmail = errors.New("email already registered")
)

// Repository handles account persistence
type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account. The email_verified flag is set at creation
// because the signup flow only reaches this point after OTP verification.
func (r *Repository) Create(ctx context.Context, params NewAccountParams) (*Account, error) {
	dbAccount := &database.Account{
		Email:            params.Email,
		PasswordHash:     params.PasswordHash,
		FirstName:        params.FirstName,
		LastName:         params.LastName,
		Phone:            params.Phone,
		Role:             params.Role,
		EmailVerified:    true,
		ReferralCodeUsed: params.ReferralCodeUsed,
	}

	_, err := r.db.NewInsert().
		Model(dbAccount).
		Returning("*").
		Exec(ctx)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// ExistsByEmail reports whether an account with the given email already exists
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.db.NewSelect().
		Model((*database.Account)(nil)).
		Where("email = ?", email).
		Count(ctx)

	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}

	return count > 0, nil
}

// GetByEmail retrieves an account by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by email: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// GetByID retrieves an account by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	dbAccount := new(database.Account)
	err := r.db.NewSelect().
		Model(dbAccount).
		Where("id = ?", id).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account by id: %w", err)
	}

	return mapDBAccountToModel(dbAccount), nil
}

// mapDBAccountToModel converts database model to domain model
func mapDBAccountToModel(dba *database.Account) *Account {
	return &Account{
		ID:               dba.ID,
		Email:            dba.Email,
		PasswordHash:     dba.PasswordHash,
		FirstName:        dba.FirstName,
		LastName:         dba.LastName,
		Phone:            dba.Phone,
		Role:             dba.Role,
		EmailVerified:    dba.EmailVerified,
		ReferralCodeUsed: dba.ReferralCodeUsed,
		CreatedAt:        dba.CreatedAt,
		UpdatedAt:        dba.UpdatedAt,
	}
}
