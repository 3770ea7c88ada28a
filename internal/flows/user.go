package flows

import (
	"context"
	"errors"

	"usermanagement/internal/auth"
	"usermanagement/internal/service"
	"usermanagement/internal/session"
)

func loginView(domain auth.Domain) string {
	if domain == auth.DomainAdmin {
		return ViewAdminLogin
	}
	return ViewUserLogin
}

func homeView(domain auth.Domain) string {
	if domain == auth.DomainAdmin {
		return ViewAdminHome
	}
	return ViewUserHome
}

// LoginPage renders the sign-in form of domain with whatever the previous
// attempt left in the flash.
func (c *Controller) LoginPage(ctx context.Context, sess *session.Session, domain auth.Domain) Outcome {
	errs, message := c.takeFlash(ctx, sess)
	return render(loginView(domain), map[string]any{
		"errors":  errs,
		"message": message,
	})
}

// Login authenticates against domain. Every rejection goes back to the
// login page through the flash and leaves the session identity untouched.
func (c *Controller) Login(ctx context.Context, sess *session.Session, domain auth.Domain, email, password string) Outcome {
	user, err := c.auth.Authenticate(ctx, domain, email, password)
	if err != nil {
		if v, ok := service.IsValidation(err); ok {
			sess.AddFlash(session.Flash{Errors: v.Fields})
		} else if errors.Is(err, service.ErrAuthentication) {
			sess.AddFlash(session.Flash{Message: MsgLoginIncorrect})
		} else {
			c.log.Error().Err(err).Str("domain", domain.String()).Msg("login failed")
			sess.AddFlash(session.Flash{Message: MsgLoginFailed})
		}
		return redirect(domain.LoginPage())
	}

	sess.Authenticate(domain, user.ID)
	c.log.Info().Str("user_id", user.ID).Str("domain", domain.String()).Msg("login")
	return redirect(domain.HomePage())
}

func (c *Controller) RegisterPage(ctx context.Context, sess *session.Session) Outcome {
	errs, message := c.takeFlash(ctx, sess)
	return render(ViewRegistration, map[string]any{
		"errors":   errs,
		"message":  message,
		"formData": map[string]string{},
	})
}

// Register re-renders the form in every case; only the password fields
// are never echoed back.
func (c *Controller) Register(ctx context.Context, input service.RegisterInput) Outcome {
	formData := map[string]string{
		"name":   input.Name,
		"email":  input.Email,
		"mobile": input.Mobile,
	}
	data := map[string]any{
		"errors":   map[string]string{},
		"message":  "",
		"formData": formData,
	}

	_, err := c.auth.Register(ctx, input)
	switch {
	case err == nil:
		data["message"] = MsgRegistered
		data["formData"] = map[string]string{}
	case errors.Is(err, service.ErrConflict):
		data["message"] = MsgEmailExists
	default:
		if v, ok := service.IsValidation(err); ok {
			data["errors"] = map[string]string(v.Fields)
			break
		}
		c.log.Error().Err(err).Msg("registration failed")
		data["message"] = MsgRegistrationError
	}
	return render(ViewRegistration, data)
}

// Home shows the signed-in record of domain. A record that no longer
// exists ends the session.
func (c *Controller) Home(ctx context.Context, sess *session.Session, domain auth.Domain) Outcome {
	user, err := c.auth.CurrentUser(ctx, sess.Identity(domain))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			sess.Destroy()
			return redirect(domain.EntryPage())
		}
		c.log.Error().Err(err).Str("domain", domain.String()).Msg("load home failed")
		return failure()
	}
	return render(homeView(domain), map[string]any{"user": user})
}

// Logout ends the whole session, whichever domain it is requested from.
func (c *Controller) Logout(sess *session.Session, domain auth.Domain) Outcome {
	sess.Destroy()
	return redirect(domain.EntryPage())
}
