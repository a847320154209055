// Package respond maps classified errors onto HTTP responses. Handlers call
// Error with whatever came up the stack; the apperr kind decides the status
// code and the client-safe message, so no handler ever picks a status for a
// domain error on its own.
package respond

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/ward-census/ward-census/internal/apperr"
)

// Error writes the JSON error response for err and aborts the request.
// Unexpected errors are logged with their cause; the client only ever sees a
// generic message for those.
func Error(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnexpected {
		slog.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
	}

	c.AbortWithStatusJSON(apperr.HTTPStatus(err), gin.H{
		"error": apperr.Message(err),
		"kind":  kind.String(),
	})
}
