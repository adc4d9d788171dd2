package signup

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusgate/admissions-api/internal/account"
	"github.com/campusgate/admissions-api/internal/httputil"
	"github.com/campusgate/admissions-api/internal/logging"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

type fakeLimiter struct {
	ipExceeded bool
	onCooldown bool
	recorded   int
	cooldowns  []string
}

func (f *fakeLimiter) CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error) {
	return f.ipExceeded, nil
}

func (f *fakeLimiter) RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error {
	f.recorded++
	return nil
}

func (f *fakeLimiter) CheckEmailCooldown(ctx context.Context, email string) (bool, error) {
	return f.onCooldown, nil
}

func (f *fakeLimiter) SetEmailCooldown(ctx context.Context, email string) error {
	f.cooldowns = append(f.cooldowns, email)
	return nil
}

type handlerFixture struct {
	*serviceFixture
	limiter *fakeLimiter
	handler *Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	sf := newServiceFixture(t)
	limiter := &fakeLimiter{}

	handler := NewHandler(
		sf.svc,
		limiter,
		logging.NewLogger(true),
		account.RoleStudent,
		false,
		15*time.Minute,
	)

	return &handlerFixture{serviceFixture: sf, limiter: limiter, handler: handler}
}

func postJSON(t *testing.T, handlerFunc http.HandlerFunc, path string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handlerFunc(rec, req)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return rec, env
}

func (f *handlerFixture) openSession(t *testing.T) (sessionID, code string) {
	t.Helper()

	rec, env := postJSON(t, f.handler.RequestOTP, "/auth/signup/request-otp", RequestOTPRequest{
		FirstName: "Mina",
		LastName:  "Okafor",
		Email:     "mina.okafor@example.com",
		Phone:     "+420777123456",
		Password:  "correct horse battery",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	var data struct {
		SessionID string `json:"sessionId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.SessionID)

	return data.SessionID, f.sender.lastCode(t)
}

func TestHandlerRequestOTP(t *testing.T) {
	f := newHandlerFixture(t)

	sessionID, code := f.openSession(t)
	assert.NotEmpty(t, sessionID)
	assert.Len(t, code, 6)
}

func TestHandlerRequestOTPDuplicateEmail(t *testing.T) {
	f := newHandlerFixture(t)
	f.accounts.existing["mina.okafor@example.com"] = true

	rec, env := postJSON(t, f.handler.RequestOTP, "/auth/signup/request-otp", RequestOTPRequest{
		FirstName: "Mina",
		LastName:  "Okafor",
		Email:     "mina.okafor@example.com",
		Phone:     "+420777123456",
		Password:  "correct horse battery",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, httputil.CodeEmailAlreadyExists, env.Code)
}

func TestHandlerRequestOTPMissingFields(t *testing.T) {
	f := newHandlerFixture(t)

	rec, env := postJSON(t, f.handler.RequestOTP, "/auth/signup/request-otp", RequestOTPRequest{
		Email: "mina.okafor@example.com",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeMissingFields, env.Code)
	assert.Contains(t, env.Message, "firstName")
}

func TestHandlerRequestOTPMalformedBody(t *testing.T) {
	f := newHandlerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup/request-otp", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.handler.RequestOTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var env envelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, httputil.CodeInvalidRequestBody, env.Code)
}

func TestHandlerRequestOTPRateLimited(t *testing.T) {
	f := newHandlerFixture(t)
	f.limiter.ipExceeded = true

	rec, env := postJSON(t, f.handler.RequestOTP, "/auth/signup/request-otp", RequestOTPRequest{
		FirstName: "Mina",
		LastName:  "Okafor",
		Email:     "mina.okafor@example.com",
		Phone:     "+420777123456",
		Password:  "correct horse battery",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeTooManyRequests, env.Code)
	assert.Empty(t, f.sender.sent)
}

func TestHandlerRequestOTPEmailCooldown(t *testing.T) {
	f := newHandlerFixture(t)
	f.limiter.onCooldown = true

	rec, env := postJSON(t, f.handler.RequestOTP, "/auth/signup/request-otp", RequestOTPRequest{
		FirstName: "Mina",
		LastName:  "Okafor",
		Email:     "mina.okafor@example.com",
		Phone:     "+420777123456",
		Password:  "correct horse battery",
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeCooldownActive, env.Code)
	assert.Empty(t, f.sender.sent)
}

func TestHandlerVerifyOTPWrongCode(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, _ := f.openSession(t)

	rec, env := postJSON(t, f.handler.VerifyOTP, "/auth/signup/verify-otp", VerifyOTPRequest{
		SessionID: sessionID,
		Code:      "000000",
	})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, httputil.CodeInvalidOTP, env.Code)
}

func TestHandlerVerifyOTPUnknownSessionIsCollapsed(t *testing.T) {
	f := newHandlerFixture(t)

	rec, env := postJSON(t, f.handler.VerifyOTP, "/auth/signup/verify-otp", VerifyOTPRequest{
		SessionID: "no-such-session",
		Code:      "000000",
	})

	// An absent session and an expired one must look identical to the client
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeSessionExpired, env.Code)
	assert.Equal(t, collapsedSessionMessage, env.Message)
}

func TestHandlerVerifyOTPExpiredSessionIsCollapsed(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, code := f.openSession(t)

	*f.clock = f.clock.Add(6 * time.Minute)

	rec, env := postJSON(t, f.handler.VerifyOTP, "/auth/signup/verify-otp", VerifyOTPRequest{
		SessionID: sessionID,
		Code:      code,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, collapsedSessionMessage, env.Message)
}

func TestHandlerCompleteSignupUnverified(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, _ := f.openSession(t)

	rec, env := postJSON(t, f.handler.CompleteSignup, "/auth/signup/complete", CompleteSignupRequest{
		SessionID: sessionID,
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, httputil.CodeSessionNotVerified, env.Code)
}

func TestHandlerFullSignupFlow(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, code := f.openSession(t)

	rec, env := postJSON(t, f.handler.VerifyOTP, "/auth/signup/verify-otp", VerifyOTPRequest{
		SessionID: sessionID,
		Code:      code,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	rec, env = postJSON(t, f.handler.CompleteSignup, "/auth/signup/complete", CompleteSignupRequest{
		SessionID: sessionID,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.True(t, env.Success)

	var data CompleteSignupResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "token-for-mina.okafor@example.com", data.Token)
	assert.Equal(t, "mina.okafor@example.com", data.Account.Email)
	assert.Equal(t, account.RoleStudent, data.Account.Role)
	assert.True(t, data.Account.IsEmailVerified)

	// Replaying the completed session must not mint another account
	rec, env = postJSON(t, f.handler.CompleteSignup, "/auth/signup/complete", CompleteSignupRequest{
		SessionID: sessionID,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, collapsedSessionMessage, env.Message)
}

func TestHandlerCompleteSignupSetsCookieForBrowsers(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, code := f.openSession(t)

	_, env := postJSON(t, f.handler.VerifyOTP, "/auth/signup/verify-otp", VerifyOTPRequest{
		SessionID: sessionID,
		Code:      code,
	})
	require.True(t, env.Success)

	payload, err := json.Marshal(CompleteSignupRequest{SessionID: sessionID})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/auth/signup/complete", bytes.NewReader(payload))
	req.Header.Set("X-Use-Cookies", "true")
	rec := httptest.NewRecorder()
	f.handler.CompleteSignup(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "access_token", cookies[0].Name)
	assert.Equal(t, "token-for-mina.okafor@example.com", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
}

func TestHandlerResendOTP(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, oldCode := f.openSession(t)

	rec, env := postJSON(t, f.handler.ResendOTP, "/auth/signup/resend-otp", ResendOTPRequest{
		SessionID: sessionID,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)

	// Both the original request and the resend start a cooldown
	assert.Equal(t, []string{"mina.okafor@example.com", "mina.okafor@example.com"}, f.limiter.cooldowns)

	newCode := f.sender.lastCode(t)
	assert.NotEqual(t, oldCode, newCode)

	rec, _ = postJSON(t, f.handler.VerifyOTP, "/auth/signup/verify-otp", VerifyOTPRequest{
		SessionID: sessionID,
		Code:      newCode,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerResendOTPRateLimited(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, _ := f.openSession(t)
	f.limiter.ipExceeded = true

	rec, env := postJSON(t, f.handler.ResendOTP, "/auth/signup/resend-otp", ResendOTPRequest{
		SessionID: sessionID,
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeTooManyRequests, env.Code)
	assert.Len(t, f.sender.sent, 1, "only the original code may have gone out")
}

func TestHandlerResendOTPEmailCooldown(t *testing.T) {
	f := newHandlerFixture(t)
	sessionID, _ := f.openSession(t)
	f.limiter.onCooldown = true

	rec, env := postJSON(t, f.handler.ResendOTP, "/auth/signup/resend-otp", ResendOTPRequest{
		SessionID: sessionID,
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, httputil.CodeCooldownActive, env.Code)
	assert.Len(t, f.sender.sent, 1, "only the original code may have gone out")
}

func TestHandlerResendOTPUnknownSession(t *testing.T) {
	f := newHandlerFixture(t)

	rec, env := postJSON(t, f.handler.ResendOTP, "/auth/signup/resend-otp", ResendOTPRequest{
		SessionID: "no-such-session",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, collapsedSessionMessage, env.Message)
}
