package handlers

import (
	"github.com/gin-gonic/gin"

	"usermanagement/internal/middleware"
	"usermanagement/internal/service"
)

type userForm struct {
	ID     string `form:"id"`
	Name   string `form:"name"`
	Email  string `form:"email"`
	Mobile string `form:"mno"`
}

func (f userForm) input() service.UserInput {
	return service.UserInput{Name: f.Name, Email: f.Email, Mobile: f.Mobile}
}

func (h HandlerSet) Dashboard(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	h.respond(c, sess, h.flows.Dashboard(c.Request.Context(), sess, c.Query("search")))
}

func (h HandlerSet) NewUserPage(c *gin.Context) {
	h.respond(c, middleware.CurrentSession(c), h.flows.NewUserPage())
}

func (h HandlerSet) NewUserSubmit(c *gin.Context) {
	var form userForm
	_ = c.ShouldBind(&form)
	h.respond(c, middleware.CurrentSession(c), h.flows.CreateUser(c.Request.Context(), form.input()))
}

func (h HandlerSet) EditUserPage(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	h.respond(c, sess, h.flows.EditUserPage(c.Request.Context(), sess, c.Query("id")))
}

func (h HandlerSet) EditUserSubmit(c *gin.Context) {
	var form userForm
	_ = c.ShouldBind(&form)
	if form.ID == "" {
		form.ID = c.Query("id")
	}

	sess := middleware.CurrentSession(c)
	h.respond(c, sess, h.flows.UpdateUser(c.Request.Context(), sess, form.ID, form.input()))
}

func (h HandlerSet) DeleteUser(c *gin.Context) {
	sess := middleware.CurrentSession(c)
	h.respond(c, sess, h.flows.DeleteUser(c.Request.Context(), sess, c.Query("id")))
}
