package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/proskill/portal-auth/internal/auth/service"
	"github.com/proskill/portal-auth/pkg/httpx"
	"github.com/proskill/portal-auth/pkg/sanitize"
	"github.com/proskill/portal-auth/pkg/slogx"
)

// OTPHandler serves the challenge endpoints: request, resend, verify.
type OTPHandler struct {
	ChallengeService *service.ChallengeService
}

type otpRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	CountryCode string `json:"countryCode"`
	OTP         string `json:"otp"`
}

type challengeData struct {
	PhoneNumber string `json:"phoneNumber"`
	CountryCode string `json:"countryCode"`
	ExpiresIn   string `json:"expiresIn"`
	Name        string `json:"name,omitempty"`
}

// HandleRequest issues an OTP, creating the account on first contact.
func (h *OTPHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOTPRequest(w, r)
	if !ok {
		return
	}
	if req.PhoneNumber == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Phone number is required", "PHONE_NUMBER_REQUIRED")
		return
	}

	ch, err := h.ChallengeService.RequestChallenge(r.Context(), req.PhoneNumber, req.CountryCode)
	if err != nil {
		writeChallengeError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "OTP sent successfully", challengeData{
		PhoneNumber: ch.PhoneNumber,
		CountryCode: ch.CountryCode,
		ExpiresIn:   "10 minutes",
		Name:        sanitize.EscapeHTML(ch.StudentName),
	})
}

// HandleResend reissues an OTP for an existing account.
func (h *OTPHandler) HandleResend(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOTPRequest(w, r)
	if !ok {
		return
	}
	if req.PhoneNumber == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Phone number is required", "PHONE_NUMBER_REQUIRED")
		return
	}

	ch, err := h.ChallengeService.ResendChallenge(r.Context(), req.PhoneNumber, req.CountryCode)
	if err != nil {
		writeChallengeError(w, r, err)
		return
	}

	httpx.WriteSuccess(w, http.StatusOK, "OTP resent successfully", challengeData{
		PhoneNumber: ch.PhoneNumber,
		CountryCode: ch.CountryCode,
		ExpiresIn:   "10 minutes",
	})
}

type verifyData struct {
	Token                string         `json:"token"`
	IsFirstTimeLogin     bool           `json:"isFirstTimeLogin"`
	IsRosterStudent      bool           `json:"isRosterStudent"`
	RequiresRegistration bool           `json:"requiresRegistration"`
	User                 accountPayload `json:"user"`
}

// HandleVerify checks the code and logs the account in.
func (h *OTPHandler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeOTPRequest(w, r)
	if !ok {
		return
	}
	if req.PhoneNumber == "" || req.OTP == "" {
		httpx.WriteError(w, http.StatusBadRequest, "Phone number and OTP are required", "MISSING_FIELDS")
		return
	}

	result, err := h.ChallengeService.VerifyChallenge(r.Context(), req.PhoneNumber, req.CountryCode, req.OTP)
	if err != nil {
		writeChallengeError(w, r, err)
		return
	}

	message := "Login successful"
	if result.FirstLogin {
		message = "Registration successful"
	}

	httpx.WriteSuccess(w, http.StatusOK, message, verifyData{
		Token:                result.Token,
		IsFirstTimeLogin:     result.FirstLogin,
		IsRosterStudent:      result.RosterStudent,
		RequiresRegistration: !result.RosterStudent,
		User:                 newAccountPayload(result.Account),
	})
}

func decodeOTPRequest(w http.ResponseWriter, r *http.Request) (otpRequest, bool) {
	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
		return otpRequest{}, false
	}
	return req, true
}

func writeChallengeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPhone):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid phone number", "INVALID_PHONE_NUMBER")
	case errors.Is(err, service.ErrOTPFormat):
		httpx.WriteError(w, http.StatusBadRequest, "OTP must be 6 digits", "INVALID_OTP_FORMAT")
	case errors.Is(err, service.ErrOTPInvalid):
		httpx.WriteError(w, http.StatusBadRequest, "Invalid or expired OTP", "INVALID_OTP")
	case errors.Is(err, service.ErrAccountNotFound):
		httpx.WriteError(w, http.StatusNotFound, "User not found. Please request OTP first.", "USER_NOT_FOUND")
	case errors.Is(err, service.ErrAccountDeactivated):
		httpx.WriteError(w, http.StatusForbidden, "Account is deactivated. Please contact support.", "ACCOUNT_DEACTIVATED")
	case errors.Is(err, service.ErrSMSDelivery):
		httpx.WriteError(w, http.StatusInternalServerError, "Failed to send OTP. Please try again.", "SMS_SEND_FAILED")
	default:
		slogx.FromContext(r.Context()).Error("otp endpoint failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "An error occurred. Please try again.", "INTERNAL_SERVER_ERROR")
	}
}
