package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDHeader is the header used to correlate a request across logs.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns a request id (from the inbound header if present,
// otherwise a fresh UUID) and echoes it on the response, grounded on the
// teacher's internal/middleware/request_id.go.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("requestID", id)
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}
