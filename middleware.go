package hns

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIdHeader = "X-Request-Id"

// RequestIdMiddleware tags every request with an id, reusing the caller's if present.
func RequestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIdHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestId", id)
		c.Writer.Header().Set(RequestIdHeader, id)
		c.Next()
	}
}

func MetricMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metricRequest(c.FullPath(), c.Writer.Status(), time.Since(start).Seconds())
	}
}
