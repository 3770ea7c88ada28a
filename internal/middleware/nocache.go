package middleware

import "github.com/gin-gonic/gin"

// NoCache keeps browsers from showing authenticated pages from history
// after logout.
func NoCache() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		h.Set("Surrogate-Control", "no-store")
		c.Next()
	}
}
