package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"usermanagement/internal/auth"
)

// RequireAuthenticated lets the request through only when the session
// holds an identity for domain; otherwise it ends at the entry page.
func RequireAuthenticated(domain auth.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentSession(c).Authenticated(domain) {
			c.Redirect(http.StatusFound, domain.EntryPage())
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAnonymous sends visitors already signed in to domain to its home
// page.
func RequireAnonymous(domain auth.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentSession(c).Authenticated(domain) {
			c.Redirect(http.StatusFound, domain.HomePage())
			c.Abort()
			return
		}
		c.Next()
	}
}
