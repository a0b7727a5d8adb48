package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/service"
	"github.com/gunuduru/assignment-auth/pkg/logger"
	"go.uber.org/zap"
)

type AdminCredentials struct {
	Username string
	Password string
}

func (a AdminCredentials) match(user, pass string) bool {
	if a.Username == "" || a.Password == "" {
		return false
	}
	u := subtle.ConstantTimeCompare([]byte(user), []byte(a.Username))
	p := subtle.ConstantTimeCompare([]byte(pass), []byte(a.Password))
	return u&p == 1
}

// AdminAuthMiddleware accepts either HTTP basic auth with the configured admin
// credentials or a bearer token whose role is ADMIN.
func AdminAuthMiddleware(creds AdminCredentials, parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, pass, ok := c.Request.BasicAuth(); ok {
			if !creds.match(user, pass) {
				logger.Warn("admin basic auth rejected", zap.String("user", user), zap.String("ip", c.ClientIP()))
				c.Header("WWW-Authenticate", `Basic realm="admin"`)
				abort(c, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid admin credentials")
				return
			}
			op := &service.OperatorInfo{Username: user, Role: "ADMIN", BasicAuth: true}
			c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), op))
			c.Next()
			return
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			c.Header("WWW-Authenticate", `Basic realm="admin"`)
			abort(c, http.StatusUnauthorized, "TOKEN_MISSING", "admin authentication required")
			return
		}
		claims, err := parser.ParseAccessToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid access token")
			return
		}
		op := operatorFromClaims(claims)
		if !op.IsAdmin() {
			abort(c, http.StatusForbidden, "FORBIDDEN", "admin role required")
			return
		}

		c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), op))
		c.Next()
	}
}
