package flows

import (
	"context"
	"errors"

	"usermanagement/internal/models"
	"usermanagement/internal/service"
	"usermanagement/internal/session"
)

// Dashboard lists regular accounts matching query.
func (c *Controller) Dashboard(ctx context.Context, sess *session.Session, query string) Outcome {
	errs, message := c.takeFlash(ctx, sess)

	users, err := c.accounts.Search(ctx, query)
	if err != nil {
		c.log.Error().Err(err).Msg("dashboard search failed")
		users = []models.User{}
		message = MsgSomethingWrong
	}

	return render(ViewDashboard, map[string]any{
		"users":       users,
		"searchQuery": query,
		"errors":      errs,
		"message":     message,
	})
}

func (c *Controller) NewUserPage() Outcome {
	return render(ViewNewUser, map[string]any{
		"errors":   map[string]string{},
		"message":  "",
		"formData": map[string]string{},
	})
}

// CreateUser provisions an account from the admin form.
func (c *Controller) CreateUser(ctx context.Context, input service.UserInput) Outcome {
	data := map[string]any{
		"errors":  map[string]string{},
		"message": "",
		"formData": map[string]string{
			"name":  input.Name,
			"email": input.Email,
			"mno":   input.Mobile,
		},
	}

	_, err := c.accounts.CreateUser(ctx, input)
	if err == nil {
		return redirect(dashboardPath)
	}

	if v, ok := service.IsValidation(err); ok {
		data["errors"] = map[string]string(v.Fields)
	} else if errors.Is(err, service.ErrConflict) {
		data["message"] = MsgEmailExists
	} else {
		c.log.Error().Err(err).Msg("create user failed")
		data["message"] = MsgSomethingWrong
	}
	return render(ViewNewUser, data)
}

// EditUserPage loads the edit form; an unknown id goes back to the dashboard.
func (c *Controller) EditUserPage(ctx context.Context, sess *session.Session, id string) Outcome {
	user, err := c.accounts.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			c.log.Error().Err(err).Str("user_id", id).Msg("load user for edit failed")
			sess.AddFlash(session.Flash{Message: MsgSomethingWrong})
		}
		return redirect(dashboardPath)
	}
	return editForm(user, map[string]string{}, "")
}

func editForm(user models.User, errs map[string]string, message string) Outcome {
	return render(ViewEditUser, map[string]any{
		"user":    user,
		"errors":  errs,
		"message": message,
	})
}

// UpdateUser applies the admin edit. A rejected edit re-renders the
// stored record, never the submitted values.
func (c *Controller) UpdateUser(ctx context.Context, sess *session.Session, id string, input service.UserInput) Outcome {
	err := c.accounts.UpdateUser(ctx, id, input)
	if err == nil {
		return redirect(dashboardPath)
	}

	var errs map[string]string
	message := ""
	switch {
	case errors.Is(err, service.ErrNotFound):
		return redirect(dashboardPath)
	case errors.Is(err, service.ErrConflict):
		message = MsgEmailExists
	default:
		v, ok := service.IsValidation(err)
		if !ok {
			c.log.Error().Err(err).Str("user_id", id).Msg("update user failed")
			sess.AddFlash(session.Flash{Message: MsgUpdateFailed})
			return redirect(dashboardPath)
		}
		errs = v.Fields
	}

	stored, err := c.accounts.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			c.log.Error().Err(err).Str("user_id", id).Msg("reload user after rejected edit failed")
			sess.AddFlash(session.Flash{Message: MsgUpdateFailed})
		}
		return redirect(dashboardPath)
	}
	if errs == nil {
		errs = map[string]string{}
	}
	return editForm(stored, errs, message)
}

// DeleteUser is idempotent; only an unreachable store is reported.
func (c *Controller) DeleteUser(ctx context.Context, sess *session.Session, id string) Outcome {
	if id != "" {
		if err := c.accounts.DeleteUser(ctx, id); err != nil {
			c.log.Error().Err(err).Str("user_id", id).Msg("delete user failed")
			sess.AddFlash(session.Flash{Message: MsgSomethingWrong})
		}
	}
	return redirect(dashboardPath)
}
