package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"activity-log-api/internal/models"
)

// SecurityHeaders adds security headers to responses
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Remove server information
		c.Header("Server", "")

		c.Next()
	}
}

// RequestSizeLimit limits the size of POST bodies, the only ones the API
// reads. Other methods pass through so their handler can refuse them first.
// A non-positive limit disables it.
func RequestSizeLimit(maxSize int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxSize <= 0 || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxSize {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, models.ErrorBody{
				Error:  "request body too large",
				Detail: fmt.Sprintf("body size %d exceeds %d bytes", c.Request.ContentLength, maxSize),
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize)
		c.Next()
	}
}
