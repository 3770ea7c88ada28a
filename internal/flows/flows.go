// Package flows turns the account and authentication services into page
// outcomes: either a redirect or a template plus its data. Each call works
// on the explicit session of the request it serves.
package flows

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"usermanagement/internal/service"
	"usermanagement/internal/session"
)

const (
	MsgLoginIncorrect    = "Email and password is incorrect"
	MsgLoginFailed       = "An error occurred during login"
	MsgRegistered        = "Your registration is successful."
	MsgEmailExists       = "Email already exists. Please use a different email."
	MsgRegistrationError = "An error occurred during registration."
	MsgSomethingWrong    = "Something is wrong"
	MsgUpdateFailed      = "An error occurred while updating the user"
)

// Template names understood by the view renderer.
const (
	ViewUserLogin    = "users/login"
	ViewRegistration = "users/registration"
	ViewUserHome     = "users/home"
	ViewAdminLogin   = "admin/login"
	ViewAdminHome    = "admin/home"
	ViewDashboard    = "admin/dashboard"
	ViewNewUser      = "admin/newuser"
	ViewEditUser     = "admin/edituser"
	ViewError        = "error"
)

const dashboardPath = "/admin/dashboard"

// Outcome is what a flow asks the transport to do. Exactly one of
// Redirect or View is set.
type Outcome struct {
	Redirect string
	View     string
	Status   int
	Data     map[string]any
}

func redirect(to string) Outcome {
	return Outcome{Redirect: to, Status: http.StatusFound}
}

func render(view string, data map[string]any) Outcome {
	return Outcome{View: view, Status: http.StatusOK, Data: data}
}

func failure() Outcome {
	return Outcome{
		View:   ViewError,
		Status: http.StatusInternalServerError,
		Data:   map[string]any{"message": MsgSomethingWrong},
	}
}

// FlashSource hands out the one-shot values stored for a session.
type FlashSource interface {
	TakeFlash(ctx context.Context, sess *session.Session) session.Flash
}

type Controller struct {
	auth     *service.AuthService
	accounts *service.AccountService
	flashes  FlashSource
	log      zerolog.Logger
}

func NewController(auth *service.AuthService, accounts *service.AccountService, flashes FlashSource, log zerolog.Logger) *Controller {
	return &Controller{
		auth:     auth,
		accounts: accounts,
		flashes:  flashes,
		log:      log,
	}
}

func (c *Controller) takeFlash(ctx context.Context, sess *session.Session) (map[string]string, string) {
	f := c.flashes.TakeFlash(ctx, sess)
	errs := f.Errors
	if errs == nil {
		errs = map[string]string{}
	}
	return errs, f.Message
}
