package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/streampulse/account-service/internal/adapters/transport/http/dto"
	"github.com/streampulse/account-service/internal/app/account/service"
	"github.com/streampulse/account-service/internal/domain/account/model"
)

// contextUserKey is where the gate stores the authenticated, sanitized user.
const contextUserKey = "currentUser"

// AuthGate verifies the access token from the accessToken cookie or the
// Authorization bearer header, loads the user and attaches it to the
// request context. Any failure rejects the request before business logic.
func AuthGate(svc service.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := extractAccessToken(c)
		if raw == "" {
			abortUnauthorized(c, "missing access token")
			return
		}

		user, err := svc.Validate(c.Request.Context(), raw)
		if err != nil {
			abortUnauthorized(c, "invalid or expired access token")
			return
		}

		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the identity the gate attached to the context.
func CurrentUser(c *gin.Context) (model.User, bool) {
	v, ok := c.Get(contextUserKey)
	if !ok {
		return model.User{}, false
	}
	user, ok := v.(model.User)
	return user, ok
}

func extractAccessToken(c *gin.Context) string {
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie != "" {
		return cookie
	}
	header := c.GetHeader("Authorization")
	if after, found := strings.CutPrefix(header, "Bearer "); found {
		return strings.TrimSpace(after)
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Envelope{
		Status:  http.StatusUnauthorized,
		Message: msg,
	})
}
