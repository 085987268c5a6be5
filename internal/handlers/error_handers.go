package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lablabs/countries-explorer/internal/logging"
)

// statusError carries the HTTP status a handler error should be rendered with.
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string {
	return e.err.Error()
}

func (e *statusError) Unwrap() error {
	return e.err
}

// abortWith records err for ErrorHandler and stops the chain.
func abortWith(c *gin.Context, status int, err error) {
	_ = c.Error(&statusError{status: status, err: err})
	c.Abort()
}

// ErrorHandler middleware handles errors and logs them
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			status := http.StatusInternalServerError
			var se *statusError
			if errors.As(err.Err, &se) {
				status = se.status
			}
			logging.Error("Request error", map[string]interface{}{
				"method": c.Request.Method,
				"path":   c.Request.URL.Path,
				"status": status,
				"error":  err.Error(),
			})
			c.JSON(status, gin.H{"error": err.Error()})
		}
	}
}
