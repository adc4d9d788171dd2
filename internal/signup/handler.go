package signup

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/campusgate/admissions-api/internal/account"
	"github.com/campusgate/admissions-api/internal/auth"
	"github.com/campusgate/admissions-api/internal/httputil"
	"github.com/campusgate/admissions-api/internal/logging"
	"github.com/campusgate/admissions-api/internal/ratelimit"
)

// collapsedSessionMessage is the single client-facing message for both absent
// and expired sessions, so session IDs cannot be probed for existence.
const collapsedSessionMessage = "invalid OTP or session expired"

// Handler contains HTTP handlers for one signup surface. The student and
// referral-portal surfaces each get a Handler with their own role, sharing
// the same Service.
type Handler struct {
	service      *Service
	rateLimiter  RateLimiter
	logger       *logging.Logger
	role         string
	isProduction bool
	tokenMaxAge  time.Duration
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger, role string, isProduction bool, tokenMaxAge time.Duration) *Handler {
	return &Handler{
		service:      service,
		rateLimiter:  rateLimiter,
		logger:       logger,
		role:         role,
		isProduction: isProduction,
		tokenMaxAge:  tokenMaxAge,
	}
}

// RequestOTPRequest represents the request-OTP request body
type RequestOTPRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Password     string `json:"password"`
	ReferralCode string `json:"referralCode,omitempty"`
}

// VerifyOTPRequest represents the verify-OTP request body
type VerifyOTPRequest struct {
	SessionID string `json:"sessionId"`
	Code      string `json:"code"`
}

// CompleteSignupRequest represents the complete-signup request body
type CompleteSignupRequest struct {
	SessionID string `json:"sessionId"`
}

// ResendOTPRequest represents the resend-OTP request body
type ResendOTPRequest struct {
	SessionID string `json:"sessionId"`
}

// AccountResponse represents the public account fields in API responses
type AccountResponse struct {
	ID              uuid.UUID `json:"id"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
	Role            string    `json:"role"`
	IsEmailVerified bool      `json:"isEmailVerified"`
}

// CompleteSignupResponse represents the completed-signup response payload
type CompleteSignupResponse struct {
	Token   string          `json:"token"`
	Account AccountResponse `json:"account"`
}

// RequestOTP opens a signup session
// @Summary      Request a signup OTP
// @Description  Validate candidate account fields, open a pending-signup session and email a one-time code.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Param        request body RequestOTPRequest true "Candidate account fields"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Missing or malformed fields"
// @Failure      409 {object} httputil.Envelope "Email already registered"
// @Failure      502 {object} httputil.Envelope "Code delivery failed"
// @Router       /auth/signup/request-otp [post]
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP
	ip := ratelimit.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "signup")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for signup", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req RequestOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid request-otp body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email, "role": h.role})

	// Check email cooldown before triggering another send
	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), req.Email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown")
		respondError(w, "please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "signup"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	sessionID, err := h.service.RequestOTP(r.Context(), h.role, SignupRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     req.Password,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		var missing *MissingFieldsError
		switch {
		case errors.As(err, &missing):
			logger.Warn("request-otp failed: missing fields", "fields", missing.Fields)
			respondError(w, missing.Error(), httputil.CodeMissingFields, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			logger.Warn("request-otp failed: invalid email")
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, account.ErrDuplicateEmail):
			logger.Warn("request-otp failed: email already registered")
			respondError(w, "email already registered", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrPasswordTooShort):
			logger.Warn("request-otp failed: password too short")
			respondError(w, err.Error(), httputil.CodePasswordTooShort, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidPhoneFormat):
			logger.Warn("request-otp failed: invalid phone")
			respondError(w, err.Error(), httputil.CodeInvalidPhoneFormat, http.StatusBadRequest)
		case errors.Is(err, ErrDeliveryFailure):
			logger.Error("request-otp failed: delivery failure", "error", err.Error())
			respondError(w, "failed to send verification code, please try again", httputil.CodeDeliveryFailure, http.StatusBadGateway)
		default:
			logger.Error("request-otp failed: internal error", "error", err.Error())
			respondError(w, "failed to start signup", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), req.Email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	logger.Info("signup session opened")

	respondSuccess(w, "verification code sent", map[string]string{"sessionId": sessionID}, http.StatusOK)
}

// VerifyOTP marks a session verified
// @Summary      Verify a signup OTP
// @Description  Check the submitted one-time code against the pending-signup session.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Param        request body VerifyOTPRequest true "Session ID and code"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Session missing or expired"
// @Failure      401 {object} httputil.Envelope "Wrong code"
// @Failure      429 {object} httputil.Envelope "Attempt cap exceeded"
// @Router       /auth/signup/verify-otp [post]
func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid verify-otp body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyOTP(r.Context(), req.SessionID, req.Code); err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			logger.Warn("verify-otp failed: session missing or expired")
			respondError(w, collapsedSessionMessage, httputil.CodeSessionExpired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidOTP):
			logger.Warn("verify-otp failed: wrong code")
			respondError(w, "invalid verification code", httputil.CodeInvalidOTP, http.StatusUnauthorized)
		case errors.Is(err, ErrTooManyAttempts):
			logger.Warn("verify-otp failed: attempt cap exceeded")
			respondError(w, "too many failed attempts, please start over", httputil.CodeTooManyOTPAttempts, http.StatusTooManyRequests)
		default:
			logger.Error("verify-otp failed: internal error", "error", err.Error())
			respondError(w, "failed to verify code", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("signup session verified")

	respondSuccess(w, "code verified", map[string]bool{"verified": true}, http.StatusOK)
}

// CompleteSignup creates the account from a verified session
// @Summary      Complete signup
// @Description  Create the account from a verified session, exactly once, and issue an auth token.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Param        request body CompleteSignupRequest true "Session ID"
// @Success      201 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Session missing, expired or unverified"
// @Failure      409 {object} httputil.Envelope "Email registered by a concurrent signup"
// @Router       /auth/signup/complete [post]
func (h *Handler) CompleteSignup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req CompleteSignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid complete-signup body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.CompleteSignup(r.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			logger.Warn("complete-signup failed: session missing or expired")
			respondError(w, collapsedSessionMessage, httputil.CodeSessionExpired, http.StatusBadRequest)
		case errors.Is(err, ErrSessionNotVerified):
			logger.Warn("complete-signup failed: session not verified")
			respondError(w, "verify the code before completing signup", httputil.CodeSessionNotVerified, http.StatusBadRequest)
		case errors.Is(err, account.ErrDuplicateEmail):
			logger.Warn("complete-signup failed: email already registered")
			respondError(w, "email already registered", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		default:
			logger.Error("complete-signup failed: internal error", "error", err.Error())
			respondError(w, "failed to complete signup", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("signup completed", "account_id", result.Account.ID)

	// Browsers additionally get the token as a session cookie
	if auth.ShouldUseCookies(r) {
		auth.SetAccessCookie(w, result.Token, h.isProduction, h.tokenMaxAge)
	}

	respondSuccess(w, "account created", CompleteSignupResponse{
		Token: result.Token,
		Account: AccountResponse{
			ID:              result.Account.ID,
			FirstName:       result.Account.FirstName,
			LastName:        result.Account.LastName,
			Email:           result.Account.Email,
			Phone:           result.Account.Phone,
			Role:            result.Account.Role,
			IsEmailVerified: result.Account.EmailVerified,
		},
	}, http.StatusCreated)
}

// ResendOTP refreshes the session with a new code
// @Summary      Resend a signup OTP
// @Description  Replace the session's code and deadline; the previous code becomes permanently invalid.
// @Tags         signup
// @Accept       json
// @Produce      json
// @Param        request body ResendOTPRequest true "Session ID"
// @Success      200 {object} httputil.Envelope
// @Failure      400 {object} httputil.Envelope "Session missing"
// @Failure      429 {object} httputil.Envelope "Rate limited or cooldown active"
// @Failure      502 {object} httputil.Envelope "Code delivery failed"
// @Router       /auth/signup/resend-otp [post]
func (h *Handler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	// Rate limit by IP: resend shares the signup bucket, otherwise one
	// reserved session ID would be a free pass to unlimited outbound email
	ip := ratelimit.ClientIP(r)
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, "signup")
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
	} else if exceeded {
		logger.Warn("IP rate limit exceeded for resend", "ip", ip)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return
	}

	var req ResendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid resend-otp body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	// Cooldown is keyed on the session's email, same as request-otp
	email, err := h.service.SessionEmail(r.Context(), req.SessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			logger.Warn("resend-otp failed: session missing")
			respondError(w, collapsedSessionMessage, httputil.CodeSessionExpired, http.StatusBadRequest)
			return
		}
		logger.Error("resend-otp failed: internal error", "error", err.Error())
		respondError(w, "failed to resend code", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	onCooldown, err := h.rateLimiter.CheckEmailCooldown(r.Context(), email)
	if err != nil {
		logger.Error("failed to check email cooldown", "error", err.Error())
	} else if onCooldown {
		logger.Warn("email on cooldown for resend")
		respondError(w, "please wait before requesting another code", httputil.CodeCooldownActive, http.StatusTooManyRequests)
		return
	}

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "signup"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	if err := h.service.ResendOTP(r.Context(), req.SessionID); err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			logger.Warn("resend-otp failed: session missing")
			respondError(w, collapsedSessionMessage, httputil.CodeSessionExpired, http.StatusBadRequest)
		case errors.Is(err, ErrDeliveryFailure):
			// The session survives a failed resend; the client may retry
			logger.Error("resend-otp failed: delivery failure", "error", err.Error())
			respondError(w, "failed to send verification code, please try again", httputil.CodeDeliveryFailure, http.StatusBadGateway)
		default:
			logger.Error("resend-otp failed: internal error", "error", err.Error())
			respondError(w, "failed to resend code", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	if err := h.rateLimiter.SetEmailCooldown(r.Context(), email); err != nil {
		logger.Error("failed to set email cooldown", "error", err.Error())
	}

	logger.Info("signup code resent")

	respondSuccess(w, "verification code sent", map[string]bool{"sent": true}, http.StatusOK)
}

// respondSuccess sends a success envelope
func respondSuccess(w http.ResponseWriter, message string, data any, statusCode int) {
	httputil.RespondSuccess(w, message, data, statusCode)
}

// respondError sends an error envelope with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
