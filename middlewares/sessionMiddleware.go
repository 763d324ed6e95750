package middlewares

import (
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/smallops/backoffice_backend/config"
	"bitbucket.org/smallops/backoffice_backend/models"
	"bitbucket.org/smallops/backoffice_backend/utils"
	"github.com/gin-gonic/gin"
)

// SessionMiddleware resolves the bearer token into the session user
// and stores the identity in the request context. Requests without a
// token pass through anonymous; protected routes check downstream.
func SessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Request.Header.Get("token")
		if token == "" {
			auth := c.Request.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				token = strings.TrimPrefix(auth, "Bearer ")
			}
		}
		if token == "" {
			c.Next()
			return
		}

		parsed, err := utils.JwtValidate(token)
		if err != nil || !parsed.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		claims, ok := parsed.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)

		// user name keeps the audit trail readable; cache via redis
		var user models.User
		exists, err := config.GetRedisObject("User:"+strconv.Itoa(claims.ID), &user)
		if err == nil && !exists {
			if db := config.GetDB(); db != nil {
				if err := db.WithContext(ctx).First(&user, claims.ID).Error; err == nil {
					_ = config.SetRedisObject("User:"+strconv.Itoa(user.ID), &user, 0)
					exists = true
				}
			}
		}
		if exists || user.Username != "" {
			ctx = utils.SetUsernameInContext(ctx, user.Username)
			ctx = utils.SetUserNameInContext(ctx, user.Username)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireUser guards mutating routes.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUserIdFromContext(c.Request.Context()); !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		c.Next()
	}
}
