package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shresth2708/edu-api/internal/domain/entity"
	"github.com/shresth2708/edu-api/pkg/cache"
	"github.com/shresth2708/edu-api/pkg/helpers"
	"github.com/shresth2708/edu-api/pkg/response"
)

const (
	CtxUserIDKey      = "userID"
	CtxAccessTokenKey = "accessToken"
	CtxRoleKey        = "userRole"
)

// Auth validates the bearer access token and rejects tokens revoked by
// logout. It sets userID and the raw token in the Gin context on success.
func Auth(jwt *helpers.JWTManager, store cache.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Error[any](c, http.StatusUnauthorized, "missing access token", nil)
			c.Abort()
			return
		}
		claims, err := jwt.Verify(token, helpers.TokenAccess)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}
		var revoked bool
		if store != nil && store.Get(c.Request.Context(), helpers.BlacklistKey(token), &revoked) && revoked {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxAccessTokenKey, token)
		c.Next()
	}
}

// RequireRole allows only users whose stored role is one of the given set.
// It must run after Auth; the role is loaded lazily by the handler layer via
// a lookup function to keep this middleware store-agnostic.
func RequireRole(lookup func(c *gin.Context) (entity.Role, error), roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, err := lookup(c)
		if err != nil {
			response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.Abort()
			return
		}
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		response.Error[any](c, http.StatusForbidden, "insufficient permissions", nil)
		c.Abort()
	}
}

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
