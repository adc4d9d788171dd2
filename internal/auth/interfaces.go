package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/campusgate/admissions-api/internal/account"
)

// TokenService defines the interface for token creation and validation
type TokenService interface {
	CreateToken(accountID uuid.UUID, email string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// RefreshTokenRepository defines the interface for refresh token storage
type RefreshTokenRepository interface {
	StoreRefreshToken(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, token string) error
	RevokeAllAccountTokens(ctx context.Context, accountID uuid.UUID) error
}

// AccountReader is the slice of the account repository login needs
type AccountReader interface {
	GetByEmail(ctx context.Context, email string) (*account.Account, error)
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}
