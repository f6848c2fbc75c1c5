package middleware

import (
	"fmt"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"net/http"
	"runtime/debug"
)

// Recovery turns a panic in a handler into the JSON 500 the webhook clients expect.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logrus.WithFields(logrus.Fields{
					"panic": r,
					"path":  c.Request.URL.Path,
					"stack": string(debug.Stack()),
				}).Error("Recovered from panic in HTTP handler")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "server_error",
					"details": fmt.Sprint(r),
				})
			}
		}()
		c.Next()
	}
}
