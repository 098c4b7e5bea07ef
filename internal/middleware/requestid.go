package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader carries the request id on both request and
	// response.
	RequestIDHeader = "X-Request-Id"
	// ContextRequestIDKey is the gin context key the id is stored
	// under for handlers and error logging.
	ContextRequestIDKey = "request_id"
)

// RequestID tags every request with an id, honoring one supplied by
// the caller, and echoes it back in the response headers.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Set(ContextRequestIDKey, id)
		c.Next()
	}
}
