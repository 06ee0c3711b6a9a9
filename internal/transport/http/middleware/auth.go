package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"account-service/internal/app"
	"account-service/internal/model"
	"account-service/internal/transport/http/response"
)

const (
	ContextUserKey  = "user"
	ContextTokenKey = "token"

	bearerPrefix = "Bearer "
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthBearer guards a route with a bearer token. On success the resolved user
// and the raw token are stored on the context.
func AuthBearer(auth Authenticator, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), bearerPrefix)
		if !ok {
			response.Message(c, http.StatusUnauthorized, app.MsgSessionExpired)
			c.Abort()
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			response.Error(c, logger, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextTokenKey, token)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*model.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*model.User)
	return user, ok && user != nil
}

func CurrentToken(c *gin.Context) string {
	return c.GetString(ContextTokenKey)
}
