package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/shresth2708/edu-api/internal/application"
	"github.com/shresth2708/edu-api/internal/domain/entity"
	"github.com/shresth2708/edu-api/internal/interface/middleware"
	"github.com/shresth2708/edu-api/pkg/response"
	"github.com/shresth2708/edu-api/pkg/validation"
)

type AuthHandler struct {
	Svc    *application.AuthService
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type registerRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,pwd"`
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Phone     string `json:"phone" binding:"omitempty,phone"`
	Role      string `json:"role" binding:"required,oneof=STUDENT TEACHER PARENT"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type verifyEmailRequest struct {
	OTP string `json:"otp" binding:"required"`
}

type verifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTP     string `json:"otp" binding:"required"`
	Purpose string `json:"purpose" binding:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,pwd"`
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      entity.Role(req.Role),
	})
	if err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{
		"user":         u.Sanitized(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "User registered successfully. Please verify your email.", nil)
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"user":         u.Sanitized(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "Login successful", nil)
}

// Logout POST /auth/logout (auth required). Succeeds regardless of how many
// sessions actually existed.
func (h *AuthHandler) Logout(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	token := c.GetString(middleware.CtxAccessTokenKey)
	if err := h.Svc.Logout(c.Request.Context(), uid, token); err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Logout successful", nil)
}

// Refresh POST /auth/refresh-token
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Refresh token is required", validation.ToDetails(err))
		return
	}
	access, exp, err := h.Svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"accessToken": access}, "Token refreshed", map[string]any{"expires_at": exp})
}

// VerifyEmail POST /auth/verify-email (auth required)
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "OTP is required", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.VerifyEmail(c.Request.Context(), uid, req.OTP); err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Email verified successfully", nil)
}

// VerifyOTP POST /auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "Email, OTP, and purpose are required", validation.ToDetails(err))
		return
	}
	uid, err := h.Svc.VerifyOTP(c.Request.Context(), req.Email, req.OTP, req.Purpose)
	if err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"userId": uid}, "OTP verified successfully", nil)
}

// ResendOTP POST /auth/resend-otp (auth required)
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.ResendOTP(c.Request.Context(), uid); err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "OTP sent successfully", nil)
}

// ForgotPassword POST /auth/forgot-password. Answers 200 with the same
// message whether or not the account exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "If the email exists, a reset code will be sent", nil)
}

// ResetPassword POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password reset successfully", nil)
}

// ChangePassword POST /auth/change-password (auth required)
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid := c.GetString(middleware.CtxUserIDKey)
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.OldPassword, req.NewPassword); err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success[any](c, http.StatusOK, nil, "Password changed successfully", nil)
}

// Me GET /auth/me (auth required)
func (h *AuthHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := h.Svc.CurrentUser(c.Request.Context(), uid)
	if err != nil {
		response.HandleError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, u.Sanitized(), "current user", nil)
}
