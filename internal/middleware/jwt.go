package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/service"
)

// TokenParser validates an access token.
type TokenParser interface {
	ParseAccessToken(token string) (*service.UserClaims, error)
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	// EventSource cannot set headers
	return c.Query("token")
}

func operatorFromClaims(claims *service.UserClaims) *service.OperatorInfo {
	return &service.OperatorInfo{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}
}

// JWTMiddleware requires a valid access token and puts the caller into the
// request context.
func JWTMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "TOKEN_MISSING", "Authorization header missing")
			return
		}

		claims, err := parser.ParseAccessToken(tokenString)
		if err != nil {
			abort(c, http.StatusUnauthorized, "TOKEN_INVALID", "Invalid access token")
			return
		}

		ctx := service.WithOperator(c.Request.Context(), operatorFromClaims(claims))
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
