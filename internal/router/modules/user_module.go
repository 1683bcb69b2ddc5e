package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shresth2708/edu-api/internal/application"
	"github.com/shresth2708/edu-api/internal/container"
	"github.com/shresth2708/edu-api/internal/domain/entity"
	handlers "github.com/shresth2708/edu-api/internal/interface/http"
	"github.com/shresth2708/edu-api/internal/interface/middleware"
)

type UserModule struct {
	Handler *handlers.UserHandler
	Auth    *application.AuthService
}

func NewUserModule(h *handlers.UserHandler, auth *application.AuthService) *UserModule {
	return &UserModule{Handler: h, Auth: auth}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetJWT(), container.GetCache()))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), nil))
	{
		auth.PUT("/users/me", m.Handler.UpdateProfile)
		auth.POST("/users/me/avatar", m.Handler.UploadAvatar)

		admin := auth.Group("/")
		admin.Use(middleware.RequireRole(m.lookupRole, entity.RoleAdmin))
		admin.GET("/users/search", m.Handler.Search)
	}
}

func (m *UserModule) lookupRole(c *gin.Context) (entity.Role, error) {
	uid := c.GetString(middleware.CtxUserIDKey)
	u, err := m.Auth.CurrentUser(c.Request.Context(), uid)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}
