package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shresth2708/edu-api/internal/container"
	handlers "github.com/shresth2708/edu-api/internal/interface/http"
	"github.com/shresth2708/edu-api/internal/interface/middleware"
)

type AuthModule struct {
	Handler *handlers.AuthHandler
}

func NewAuthModule(h *handlers.AuthHandler) *AuthModule {
	return &AuthModule{Handler: h}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Register and login get the strictest limits; the remaining public
	// endpoints a softer per-IP-and-path window.
	authLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), nil)
	publicLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath(), nil)

	rg.POST("/auth/register", authLimiter, m.Handler.Register)
	rg.POST("/auth/login", authLimiter, m.Handler.Login)
	rg.POST("/auth/refresh-token", publicLimiter, m.Handler.Refresh)
	rg.POST("/auth/verify-otp", publicLimiter, m.Handler.VerifyOTP)
	rg.POST("/auth/forgot-password", publicLimiter, m.Handler.ForgotPassword)
	rg.POST("/auth/reset-password", publicLimiter, m.Handler.ResetPassword)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetJWT(), container.GetCache()))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.POST("/auth/verify-email", m.Handler.VerifyEmail)
		auth.POST("/auth/resend-otp", m.Handler.ResendOTP)
		auth.POST("/auth/change-password", m.Handler.ChangePassword)
		auth.GET("/auth/me", m.Handler.Me)
	}
}
