package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grapeapp/grape-backend/internal/usecase/auth"
)

type AuthHandler struct {
	authUseCase *auth.AuthUseCase
}

func NewAuthHandler(authUseCase *auth.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

// SendOTPRequest carries a phone number or an email address. Contact wins
// over the typed fields when several are set.
type SendOTPRequest struct {
	Contact     string `json:"contact"`
	PhoneNumber string `json:"phoneNumber"`
	Email       string `json:"email"`
}

func (r *SendOTPRequest) contact() string {
	for _, v := range []string{r.Contact, r.PhoneNumber, r.Email} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// VerifyOTPRequest answers a challenge
type VerifyOTPRequest struct {
	SessionInfo string `json:"sessionInfo" binding:"required"`
	Code        string `json:"code" binding:"required"`
}

// SendEmailOTPRequest starts attaching an email to the account
type SendEmailOTPRequest struct {
	Email string `json:"email" binding:"required"`
}

// SendOTP handles POST /auth/send-otp
// @Summary Send one-time code
// @Description Issue an OTP challenge to a phone number or email
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Contact"
// @Success 200 {object} SuccessResponse{data=auth.SendOTPResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 429 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/send-otp [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	contact := req.contact()
	if contact == "" {
		badRequest(c, "phone number or email is required")
		return
	}

	result, err := h.authUseCase.SendOTP(c.Request.Context(), contact)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OTP sent successfully", result)
}

// VerifyOTP handles POST /auth/verify-otp
// @Summary Verify one-time code
// @Description Sign in with an OTP, creating the account on first use
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Challenge answer"
// @Success 200 {object} SuccessResponse{data=auth.AuthResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/verify-otp [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "sessionInfo and code are required")
		return
	}

	result, err := h.authUseCase.VerifyOTP(c.Request.Context(), req.SessionInfo, req.Code)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OTP verified successfully", result)
}

// CompleteProfile handles POST /auth/complete-profile
// @Summary Complete profile
// @Description Fill in the onboarding profile and get a refreshed token
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body auth.CompleteProfileRequest true "Profile"
// @Success 200 {object} SuccessResponse{data=auth.AuthResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/complete-profile [post]
func (h *AuthHandler) CompleteProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req auth.CompleteProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	result, err := h.authUseCase.CompleteProfile(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Profile completed successfully", result)
}

// SendEmailOTP handles POST /auth/send-email-otp
// @Summary Send email verification code
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body SendEmailOTPRequest true "Email"
// @Success 200 {object} SuccessResponse{data=auth.SendOTPResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/send-email-otp [post]
func (h *AuthHandler) SendEmailOTP(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req SendEmailOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}

	result, err := h.authUseCase.SendEmailOTP(c.Request.Context(), userID, req.Email)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "OTP sent to email", result)
}

// VerifyEmailOTP handles POST /auth/verify-email-otp
// @Summary Verify email code
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body auth.VerifyEmailRequest true "Email challenge answer"
// @Success 200 {object} SuccessResponse{data=auth.AuthResponse}
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/verify-email-otp [post]
func (h *AuthHandler) VerifyEmailOTP(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req auth.VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, sessionInfo and code are required")
		return
	}

	result, err := h.authUseCase.VerifyEmailOTP(c.Request.Context(), userID, &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Email verified successfully", result)
}
