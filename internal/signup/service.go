package signup

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/campusgate/admissions-api/internal/account"
	"github.com/campusgate/admissions-api/internal/auth"
	"github.com/campusgate/admissions-api/internal/logging"
)

var (
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrInvalidPhoneFormat = errors.New("invalid phone number")
	ErrSessionNotVerified = errors.New("session has not been verified")
	ErrInvalidOTP         = errors.New("invalid verification code")
	ErrTooManyAttempts    = errors.New("too many failed verification attempts")
	ErrDeliveryFailure    = errors.New("failed to deliver verification code")
)

// phonePattern accepts an optional leading + followed by 7 to 15 digits
var phonePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// MissingFieldsError names the required fields absent from a request
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// SignupRequest carries the candidate account fields captured at request-OTP time
type SignupRequest struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Password     string
	ReferralCode string
}

// Result is what a completed signup returns to the client: a signed credential
// plus the public account fields. Never the password or its hash.
type Result struct {
	Token   string
	Account *account.Account
}

// Service is the signup orchestrator. It drives a session through
// request-OTP, verify-OTP and complete-signup (plus resend), and is the only
// component that knows about the store, the code sender, the account
// repository and the token issuer together.
//
// The same instance serves student and referral-portal signups; the role and
// the optional post-create hook are the only things that differ between them.
type Service struct {
	store       Store
	accounts    AccountRepository
	sender      CodeSender
	tokens      TokenIssuer
	postCreate  PostCreateHook
	logger      *logging.Logger
	otpLength   int
	otpTTL      time.Duration
	maxAttempts int // 0 disables the cap
	tokenTTL    time.Duration

	now func() time.Time
}

func NewService(
	store Store,
	accounts AccountRepository,
	sender CodeSender,
	tokens TokenIssuer,
	postCreate PostCreateHook,
	logger *logging.Logger,
	otpLength int,
	otpTTL time.Duration,
	maxAttempts int,
	tokenTTL time.Duration,
) *Service {
	return &Service{
		store:       store,
		accounts:    accounts,
		sender:      sender,
		tokens:      tokens,
		postCreate:  postCreate,
		logger:      logger,
		otpLength:   otpLength,
		otpTTL:      otpTTL,
		maxAttempts: maxAttempts,
		tokenTTL:    tokenTTL,
		now:         time.Now,
	}
}

// RequestOTP validates the candidate account fields, opens a signup session
// and emails a one-time code. The returned session ID is the only handle the
// client retains; no account exists yet.
func (s *Service) RequestOTP(ctx context.Context, role string, req SignupRequest) (string, error) {
	if err := validateRequest(req); err != nil {
		return "", err
	}

	exists, err := s.accounts.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return "", account.ErrDuplicateEmail
	}

	if len(req.Password) < 8 {
		return "", ErrPasswordTooShort
	}
	if !phonePattern.MatchString(req.Phone) {
		return "", ErrInvalidPhoneFormat
	}

	// Hash up front so the plaintext never enters the session store
	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}

	code, err := GenerateCode(s.otpLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate otp: %w", err)
	}

	now := s.now()
	session := &Session{
		ID:           sessionID,
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		PasswordHash: passwordHash,
		Role:         role,
		ReferralCode: req.ReferralCode,
		OTPCode:      code,
		Verified:     false,
		ExpiresAt:    now.Add(s.otpTTL),
		CreatedAt:    now,
	}

	if err := s.store.Put(ctx, session); err != nil {
		return "", fmt.Errorf("failed to store signup session: %w", err)
	}

	// Delivery is synchronous: the client must learn whether a code is on
	// its way. A failed send destroys the session, so the client restarts
	// from request-OTP instead of resending into a dead session.
	if err := s.sender.SendOTPEmail(ctx, req.Email, code); err != nil {
		if delErr := s.store.Delete(ctx, sessionID); delErr != nil {
			s.logger.Warn("failed to delete session after send failure", "error", delErr)
		}
		return "", fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}

	return sessionID, nil
}

// VerifyOTP checks a submitted code against the session. A correct code marks
// the session verified; submitting it again is a no-op success. A wrong code
// counts toward the attempt cap, and exceeding the cap drops the session.
func (s *Service) VerifyOTP(ctx context.Context, sessionID, code string) error {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if !VerifyCode(code, session.OTPCode) {
		// The store increments only the counter; a concurrent successful
		// verify is never rolled back by this path landing after it
		attempts, err := s.store.RecordFailedAttempt(ctx, sessionID)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				return err
			}
			return fmt.Errorf("failed to record failed attempt: %w", err)
		}

		if s.maxAttempts > 0 && attempts >= s.maxAttempts {
			if err := s.store.Delete(ctx, sessionID); err != nil {
				s.logger.Warn("failed to delete session after attempt cap", "error", err)
			}
			return ErrTooManyAttempts
		}
		return ErrInvalidOTP
	}

	if session.Verified {
		// false->true happens once; repeating the correct code stays a success
		return nil
	}

	if err := s.store.MarkVerified(ctx, sessionID); err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("failed to mark session verified: %w", err)
	}

	return nil
}

// CompleteSignup turns a verified session into a persisted account exactly
// once, runs the best-effort post-create hook, and issues the auth token.
func (s *Service) CompleteSignup(ctx context.Context, sessionID string) (*Result, error) {
	// Take removes the session atomically, so of N concurrent completions
	// for the same session only one proceeds past this line.
	session, err := s.store.Take(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !session.Verified {
		// Put the untouched session back; the client still has to verify
		if putErr := s.store.Put(ctx, session); putErr != nil {
			s.logger.Warn("failed to restore unverified session", "error", putErr)
		}
		return nil, ErrSessionNotVerified
	}

	params := account.NewAccountParams{
		Email:        session.Email,
		PasswordHash: session.PasswordHash,
		FirstName:    session.FirstName,
		LastName:     session.LastName,
		Phone:        session.Phone,
		Role:         session.Role,
	}
	if session.ReferralCode != "" {
		params.ReferralCodeUsed = &session.ReferralCode
	}

	acct, err := s.accounts.Create(ctx, params)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			// A concurrent signup for the same email won the race
			return nil, account.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if session.ReferralCode != "" && s.postCreate != nil {
		s.postCreate(ctx, acct, session.ReferralCode)
	}

	token, err := s.tokens.CreateToken(acct.ID, acct.Email, s.tokenTTL)
	if err != nil {
		// The account already exists and its email is verified; the client
		// recovers by logging in with the credentials it chose at request-OTP
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	return &Result{Token: token, Account: acct}, nil
}

// SessionEmail returns the address a session was opened for. The resend
// surface uses it to key its per-email cooldown before triggering a send.
func (s *Service) SessionEmail(ctx context.Context, sessionID string) (string, error) {
	session, err := s.store.Peek(ctx, sessionID)
	if err != nil {
		return "", err
	}
	return session.Email, nil
}

// ResendOTP replaces the session's code, pushes out its deadline and resets
// the verified flag, permanently invalidating the previous code. Unlike
// request-OTP, a failed send keeps the session alive: the client already
// holds a reserved session ID and may simply try again.
func (s *Service) ResendOTP(ctx context.Context, sessionID string) error {
	// Peek instead of Get: a session whose TTL lapsed but whose entry still
	// exists may be refreshed, matching the platform's original behavior.
	session, err := s.store.Peek(ctx, sessionID)
	if err != nil {
		return err
	}

	code, err := GenerateCode(s.otpLength)
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	session.OTPCode = code
	session.Verified = false
	session.Attempts = 0
	session.ExpiresAt = s.now().Add(s.otpTTL)

	if err := s.store.Put(ctx, session); err != nil {
		return fmt.Errorf("failed to refresh signup session: %w", err)
	}

	if err := s.sender.SendOTPEmail(ctx, session.Email, code); err != nil {
		return fmt.Errorf("%w: %w", ErrDeliveryFailure, err)
	}

	return nil
}

func validateRequest(req SignupRequest) error {
	var missing []string
	if req.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if req.LastName == "" {
		missing = append(missing, "lastName")
	}
	if req.Email == "" {
		missing = append(missing, "email")
	}
	if req.Phone == "" {
		missing = append(missing, "phone")
	}
	if req.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}

	if len(req.Email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return ErrInvalidEmailFormat
	}

	return nil
}

// generateSessionID creates a cryptographically secure opaque session handle
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
