package middleware

import (
	"github.com/gin-gonic/gin"

	"usermanagement/internal/session"
)

const sessionKey = "session"

// Sessions resolves the request's session once and keeps it on the gin
// context. Handlers commit it before writing their response.
func Sessions(manager *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(sessionKey, manager.Load(c.Request))
		c.Next()
	}
}

// CurrentSession returns the session set by Sessions, or a fresh anonymous
// one when the middleware did not run.
func CurrentSession(c *gin.Context) *session.Session {
	if v, ok := c.Get(sessionKey); ok {
		if sess, ok := v.(*session.Session); ok {
			return sess
		}
	}
	sess := session.New()
	c.Set(sessionKey, sess)
	return sess
}
