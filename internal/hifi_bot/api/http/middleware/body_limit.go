package middleware

import (
	"github.com/gin-gonic/gin"
	"net/http"
)

// BodyLimit caps the request body at maxBytes. Reads past the limit fail with *http.MaxBytesError.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
