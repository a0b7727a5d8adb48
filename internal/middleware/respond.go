package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/gunuduru/assignment-auth/internal/dto/resp"
)

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, resp.Envelope{Success: false, Code: code, Message: message})
}
