package rest

import (
	"time"

	"github.com/dmitrijs2005/beanfeed/internal/logging"
	"github.com/dmitrijs2005/beanfeed/internal/server/auth"
	"github.com/gin-gonic/gin"
)

// Authenticate resolves the request principal and stores it in the request
// context. Requests without a principal pass through; the access layer
// rejects them.
func Authenticate(a *auth.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p := a.Resolve(c.Request); p != nil {
			c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		}
		c.Next()
	}
}

// RequestLogger logs one line per request.
func RequestLogger(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		name := ""
		if p := auth.FromContext(c.Request.Context()); p != nil {
			name = p.Name
		}

		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"duration", time.Since(start),
			"principal", name,
			"bytes", c.Writer.Size(),
		}
		ctx := c.Request.Context()
		switch {
		case status >= 500:
			args = append(args, "errors", c.Errors.String())
			logger.Error(ctx, "http_request", args...)
		case status >= 400:
			logger.Warn(ctx, "http_request", args...)
		default:
			logger.Info(ctx, "http_request", args...)
		}
	}
}
