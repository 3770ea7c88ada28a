package handlers

import (
	"github.com/gin-gonic/gin"

	"usermanagement/internal/auth"
	"usermanagement/internal/middleware"
	"usermanagement/internal/service"
)

type loginForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

type registerForm struct {
	Name            string `form:"name"`
	Email           string `form:"email"`
	Mobile          string `form:"mobile"`
	Password        string `form:"password"`
	ConfirmPassword string `form:"confirmPassword"`
}

func (h HandlerSet) LoginPage(domain auth.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.CurrentSession(c)
		h.respond(c, sess, h.flows.LoginPage(c.Request.Context(), sess, domain))
	}
}

func (h HandlerSet) LoginSubmit(domain auth.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form loginForm
		// an unparsable body leaves the fields empty and fails validation
		_ = c.ShouldBind(&form)

		sess := middleware.CurrentSession(c)
		h.respond(c, sess, h.flows.Login(c.Request.Context(), sess, domain, form.Email, form.Password))
	}
}

func (h HandlerSet) RegisterPage(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	h.respond(c, sess, h.flows.RegisterPage(c.Request.Context(), sess))
}

func (h HandlerSet) RegisterSubmit(c *gin.Context) {
	var form registerForm
	_ = c.ShouldBind(&form)

	out := h.flows.Register(c.Request.Context(), service.RegisterInput{
		Name:            form.Name,
		Email:           form.Email,
		Mobile:          form.Mobile,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	h.respond(c, middleware.CurrentSession(c), out)
}

func (h HandlerSet) Home(domain auth.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.CurrentSession(c)
		h.respond(c, sess, h.flows.Home(c.Request.Context(), sess, domain))
	}
}

func (h HandlerSet) Logout(domain auth.Domain) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := middleware.CurrentSession(c)
		h.respond(c, sess, h.flows.Logout(sess, domain))
	}
}
