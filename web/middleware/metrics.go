package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// RequestCounter calls count for every request outside the asset paths.
func RequestCounter(assetsPrefix string, count func()) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, assetsPrefix) {
			count()
		}
		c.Next()
	}
}
