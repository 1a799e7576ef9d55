package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/abuse-guard/internal/application/otp"
	"github.com/abuse-guard/internal/pkg/validate"
)

// OTPService is the minimal interface the handler requires from the OTP
// engine.
type OTPService interface {
	Issue(ctx context.Context, req otp.IssueRequest) error
	Verify(ctx context.Context, email, submitted string) error
}

// OTPHandler handles code issuance and verification endpoints.
type OTPHandler struct {
	svc OTPService
}

func NewOTPHandler(svc OTPService) *OTPHandler {
	return &OTPHandler{svc: svc}
}

type requestOTPBody struct {
	Email      string `json:"email" validate:"required,email"`
	Name       string `json:"name"`
	TemplateID string `json:"template_id"`
}

type verifyOTPBody struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=4,numeric"`
}

func (h *OTPHandler) Request(w http.ResponseWriter, r *http.Request) {
	var body requestOTPBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: "invalid request body"})
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeError(w, http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: err.Error()})
		return
	}
	if body.TemplateID == "" {
		body.TemplateID = "account-verification"
	}

	if err := h.svc.Issue(r.Context(), otp.IssueRequest{
		Email:       body.Email,
		DisplayName: body.Name,
		TemplateID:  body.TemplateID,
	}); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP sent to email. Please verify your account.")
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body verifyOTPBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: "invalid request body"})
		return
	}
	if err := validate.Struct(&body); err != nil {
		writeError(w, http.StatusBadRequest, APIError{Code: "VALIDATION_ERROR", Message: err.Error()})
		return
	}

	if err := h.svc.Verify(r.Context(), body.Email, body.OTP); err != nil {
		httpError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "OTP verified successfully.")
}
