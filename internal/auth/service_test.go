package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/admissions-api/internal/account"
)

type fakeAccountReader struct {
	byEmail map[string]*account.Account
	byID    map[uuid.UUID]*account.Account
}

func newFakeAccountReader() *fakeAccountReader {
	return &fakeAccountReader{
		byEmail: map[string]*account.Account{},
		byID:    map[uuid.UUID]*account.Account{},
	}
}

func (f *fakeAccountReader) add(acct *account.Account) {
	f.byEmail[acct.Email] = acct
	f.byID[acct.ID] = acct
}

func (f *fakeAccountReader) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	acct, ok := f.byEmail[email]
	if !ok {
		return nil, account.ErrNotFound
	}
	return acct, nil
}

func (f *fakeAccountReader) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	acct, ok := f.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return acct, nil
}

type fakeRefreshRepo struct {
	tokens map[string]*RefreshToken
}

func newFakeRefreshRepo() *fakeRefreshRepo {
	return &fakeRefreshRepo{tokens: map[string]*RefreshToken{}}
}

func (f *fakeRefreshRepo) StoreRefreshToken(ctx context.Context, accountID uuid.UUID, token string, expiresAt time.Time) error {
	f.tokens[token] = &RefreshToken{
		AccountID: accountID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	return nil
}

func (f *fakeRefreshRepo) GetRefreshToken(ctx context.Context, token string) (*RefreshToken, error) {
	rt, ok := f.tokens[token]
	if !ok {
		return nil, ErrRefreshTokenNotFound
	}
	return rt, nil
}

func (f *fakeRefreshRepo) RevokeRefreshToken(ctx context.Context, token string) error {
	rt, ok := f.tokens[token]
	if !ok {
		return ErrRefreshTokenNotFound
	}
	now := time.Now()
	rt.RevokedAt = &now
	return nil
}

func (f *fakeRefreshRepo) RevokeAllAccountTokens(ctx context.Context, accountID uuid.UUID) error {
	now := time.Now()
	for _, rt := range f.tokens {
		if rt.AccountID == accountID {
			rt.RevokedAt = &now
		}
	}
	return nil
}

type authFixture struct {
	svc      *Service
	accounts *fakeAccountReader
	refresh  *fakeRefreshRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	accounts := newFakeAccountReader()
	refresh := newFakeRefreshRepo()
	tokens := newTestPasetoService(t)

	return &authFixture{
		svc:      NewService(accounts, refresh, tokens, 15*time.Minute, 7*24*time.Hour),
		accounts: accounts,
		refresh:  refresh,
	}
}

func (f *authFixture) addAccount(t *testing.T, email, password string, verified bool) *account.Account {
	t.Helper()

	hash, err := HashPassword(password)
	require.NoError(t, err)

	acct := &account.Account{
		ID:            uuid.New(),
		Email:         email,
		PasswordHash:  hash,
		FirstName:     "Mina",
		LastName:      "Okafor",
		Role:          account.RoleStudent,
		EmailVerified: verified,
	}
	f.accounts.add(acct)
	return acct
}

func TestLoginSuccess(t *testing.T) {
	f := newAuthFixture(t)
	f.addAccount(t, "mina.okafor@example.com", "correct horse battery", true)

	tokens, err := f.svc.Login(context.Background(), "mina.okafor@example.com", "correct horse battery")
	require.NoError(t, err)

	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, "Bearer", tokens.TokenType)
	assert.Equal(t, int64((15 * time.Minute).Seconds()), tokens.ExpiresIn)

	stored, err := f.refresh.GetRefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.True(t, stored.IsValid())
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	f.addAccount(t, "mina.okafor@example.com", "correct horse battery", true)

	_, err := f.svc.Login(context.Background(), "mina.okafor@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "nobody@example.com", "whatever password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginEmptyInput(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.Login(context.Background(), "", "password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), "mina.okafor@example.com", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnverifiedEmail(t *testing.T) {
	f := newAuthFixture(t)
	f.addAccount(t, "legacy@example.com", "correct horse battery", false)

	_, err := f.svc.Login(context.Background(), "legacy@example.com", "correct horse battery")
	assert.ErrorIs(t, err, ErrEmailNotVerified)
}

func TestRefreshAccessTokenRotates(t *testing.T) {
	f := newAuthFixture(t)
	f.addAccount(t, "mina.okafor@example.com", "correct horse battery", true)
	ctx := context.Background()

	tokens, err := f.svc.Login(ctx, "mina.okafor@example.com", "correct horse battery")
	require.NoError(t, err)

	rotated, err := f.svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, tokens.RefreshToken, rotated.RefreshToken)
	assert.NotEmpty(t, rotated.AccessToken)

	// The rotated-out token is revoked; replaying it must fail
	_, err = f.svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}

func TestRefreshAccessTokenExpired(t *testing.T) {
	f := newAuthFixture(t)
	acct := f.addAccount(t, "mina.okafor@example.com", "correct horse battery", true)
	ctx := context.Background()

	require.NoError(t, f.refresh.StoreRefreshToken(ctx, acct.ID, "stale-token", time.Now().Add(-time.Hour)))

	_, err := f.svc.RefreshAccessToken(ctx, "stale-token")
	assert.ErrorIs(t, err, ErrRefreshTokenExpired)
}

func TestRefreshAccessTokenUnknown(t *testing.T) {
	f := newAuthFixture(t)

	_, err := f.svc.RefreshAccessToken(context.Background(), "never-issued")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevokeRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	f.addAccount(t, "mina.okafor@example.com", "correct horse battery", true)
	ctx := context.Background()

	tokens, err := f.svc.Login(ctx, "mina.okafor@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, f.svc.RevokeRefreshToken(ctx, tokens.RefreshToken))

	_, err = f.svc.RefreshAccessToken(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenRevoked)
}
