package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mock ---

type mockOTPSvc struct{ mock.Mock }

func (m *mockOTPSvc) Issue(ctx context.Context, req otp.IssueRequest) error {
	return m.Called(ctx, req).Error(0)
}

func (m *mockOTPSvc) Verify(ctx context.Context, email, submitted string) error {
	return m.Called(ctx, email, submitted).Error(0)
}

// --- helpers ---

func postJSON(t *testing.T, h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// --- Request ---

func TestRequestOTP_Success(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Issue", mock.Anything, otp.IssueRequest{
		Email:       "user@example.com",
		DisplayName: "User",
		TemplateID:  "account-verification",
	}).Return(nil)

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{
		"email": "user@example.com",
		"name":  "User",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "OTP sent to email. Please verify your account.", env.Message)
	svc.AssertExpectations(t)
}

func TestRequestOTP_CustomTemplate(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Issue", mock.Anything, otp.IssueRequest{
		Email:      "user@example.com",
		TemplateID: "password-reset",
	}).Return(nil)

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{
		"email":       "user@example.com",
		"template_id": "password-reset",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestRequestOTP_InvalidEmail(t *testing.T) {
	svc := &mockOTPSvc{}

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{
		"email": "not-an-email",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	svc.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything)
}

func TestRequestOTP_MalformedBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{")))
	rec := httptest.NewRecorder()
	NewOTPHandler(&mockOTPSvc{}).Request(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequestOTP_Cooldown(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Issue", mock.Anything, mock.Anything).Return(domain.ErrCooldown)

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{"email": "user@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "COOLDOWN", env.Error.Code)
	assert.Equal(t, "Please wait 1 minute before requesting a new OTP!", env.Error.Message)
}

func TestRequestOTP_SpamLocked(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Issue", mock.Anything, mock.Anything).Return(domain.ErrSpamLocked)

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{"email": "user@example.com"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "SPAM_LOCKED", env.Error.Code)
	assert.Equal(t, "Too many OTP requests! Please wait 1 hour before requesting again.", env.Error.Message)
}

func TestRequestOTP_DeliveryError(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Issue", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: smtp timeout", domain.ErrDelivery))

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{"email": "user@example.com"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "DELIVERY_ERROR", env.Error.Code)
}

func TestRequestOTP_StoreUnavailable(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Issue", mock.Anything, mock.Anything).
		Return(fmt.Errorf("%w: connection refused", domain.ErrStoreUnavailable))

	rec := postJSON(t, NewOTPHandler(svc).Request, map[string]string{"email": "user@example.com"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "STORE_UNAVAILABLE", env.Error.Code)
}

// --- Verify ---

func TestVerifyOTP_Success(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "user@example.com", "1234").Return(nil)

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "1234",
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)
	assert.Equal(t, "OTP verified successfully.", env.Message)
	svc.AssertExpectations(t)
}

func TestVerifyOTP_RejectsNonNumericCode(t *testing.T) {
	svc := &mockOTPSvc{}

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "12ab",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_RejectsWrongLength(t *testing.T) {
	svc := &mockOTPSvc{}

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "123",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	svc.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_IncorrectCode(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "user@example.com", "9999").
		Return(&domain.IncorrectCodeError{AttemptsLeft: 2})

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "9999",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INCORRECT_CODE", env.Error.Code)
	assert.Equal(t, "Incorrect OTP! You have 2 attempt(s) left.", env.Error.Message)
	require.NotNil(t, env.Error.AttemptsLeft)
	assert.Equal(t, 2, *env.Error.AttemptsLeft)
}

func TestVerifyOTP_AccountLocked(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "user@example.com", "9999").Return(domain.ErrAccountLocked)

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "9999",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "ACCOUNT_LOCKED", env.Error.Code)
	assert.Equal(t, "Account locked due to multiple failed attempts! Try again after 30 minutes.", env.Error.Message)
}

func TestVerifyOTP_ExpiredOrInvalid(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "user@example.com", "9999").Return(domain.ErrExpiredOrInvalidCode)

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "9999",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "EXPIRED_OR_INVALID_CODE", env.Error.Code)
	assert.Equal(t, "OTP expired or invalid! Please request a new one.", env.Error.Message)
}

func TestVerifyOTP_UnknownErrorIsInternal(t *testing.T) {
	svc := &mockOTPSvc{}
	svc.On("Verify", mock.Anything, "user@example.com", "9999").
		Return(fmt.Errorf("unexpected"))

	rec := postJSON(t, NewOTPHandler(svc).Verify, map[string]string{
		"email": "user@example.com",
		"otp":   "9999",
	})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INTERNAL", env.Error.Code)
}
