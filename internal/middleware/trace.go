package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gunuduru/assignment-auth/internal/service"
)

const (
	TraceHeader = "X-Trace-ID"
	TraceKey    = "TraceID"
)

func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Set(TraceKey, traceID)
		c.Writer.Header().Set(TraceHeader, traceID)

		ctx := service.WithRequestMeta(c.Request.Context(), service.RequestMeta{TraceID: traceID, IP: c.ClientIP()})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
