package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// RequestIDHeader is the HTTP header used to propagate the request identifier.
	RequestIDHeader = "X-Request-ID"

	// RequestIDKey is the gin.Context key under which the request ID is stored.
	RequestIDKey = "request_id"
)

// RequestIDMiddleware tags every request with an identifier. An inbound
// X-Request-ID (from a gateway or the mobile client retrying a sync) is
// reused unchanged; otherwise a UUID v4 is minted. The ID is stored in the
// context under RequestIDKey and echoed in the response header so callers
// can correlate a failed census submission with server-side log entries.
//
// Register it before the logging middleware so every access record carries
// the ID.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}

		c.Set(RequestIDKey, id)
		c.Header(RequestIDHeader, id)

		c.Next()
	}
}

// RequestID returns the identifier stored by RequestIDMiddleware, or ""
// when the middleware did not run.
func RequestID(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
