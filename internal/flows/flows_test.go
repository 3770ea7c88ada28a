package flows

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"usermanagement/internal/auth"
	"usermanagement/internal/models"
	"usermanagement/internal/repository/repotest"
	"usermanagement/internal/security"
	"usermanagement/internal/service"
	"usermanagement/internal/session"
	"usermanagement/internal/validation"
)

type nopProvisioner struct{ delivered []service.Credentials }

func (p *nopProvisioner) Deliver(_ context.Context, creds service.Credentials) error {
	p.delivered = append(p.delivered, creds)
	return nil
}

type fixture struct {
	ctl     *Controller
	users   *repotest.MemoryStore
	manager *session.Manager
	prov    *nopProvisioner
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := session.NewStore(rdb, "session", time.Hour)
	manager := session.NewManager(store, security.NewSessionCodec("secret", time.Hour), session.CookieOptions{Name: "sid"}, zerolog.Nop())

	users := repotest.NewMemoryStore()
	hasher := security.BcryptHasher{Cost: bcrypt.MinCost}
	prov := &nopProvisioner{}

	authSvc := service.NewAuthService(users, hasher, zerolog.Nop())
	accounts := service.NewAccountService(users, hasher, prov, store, 6, zerolog.Nop())

	return fixture{
		ctl:     NewController(authSvc, accounts, manager, zerolog.Nop()),
		users:   users,
		manager: manager,
		prov:    prov,
	}
}

func (f fixture) seed(t *testing.T, id, email, password string, admin bool) models.User {
	t.Helper()
	digest, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := models.User{ID: id, Name: "Seed User", Email: email, Mobile: "9876543210", PasswordHash: digest, IsAdmin: admin}
	f.users.Set(u)
	return u
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u1", "a@b.co", "Secret12", false)
	sess := session.New()

	out := f.ctl.Login(context.Background(), sess, auth.DomainUser, "a@b.co", "Secret12")
	assert.Equal(t, "/home", out.Redirect)
	assert.Equal(t, "u1", sess.Identity(auth.DomainUser))
	assert.False(t, sess.Authenticated(auth.DomainAdmin))
}

func TestLoginWrongPasswordLeavesIdentityUnset(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u1", "a@b.co", "Secret12", false)
	sess := session.New()

	out := f.ctl.Login(context.Background(), sess, auth.DomainUser, "a@b.co", "Wrong1234")
	assert.Equal(t, "/login", out.Redirect)
	assert.False(t, sess.Authenticated(auth.DomainUser))

	flash, ok := sess.PendingFlash()
	require.True(t, ok)
	assert.Equal(t, MsgLoginIncorrect, flash.Message)
}

func TestAdminLoginRejectsRegularUser(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u1", "a@b.co", "Secret12", false)
	sess := session.New()

	out := f.ctl.Login(context.Background(), sess, auth.DomainAdmin, "a@b.co", "Secret12")
	assert.Equal(t, "/admin", out.Redirect)
	assert.False(t, sess.Authenticated(auth.DomainAdmin))
	assert.False(t, sess.Authenticated(auth.DomainUser))

	flash, _ := sess.PendingFlash()
	assert.Equal(t, MsgLoginIncorrect, flash.Message)
}

func TestLoginValidationErrorsGoToFlash(t *testing.T) {
	f := newFixture(t)
	sess := session.New()

	out := f.ctl.Login(context.Background(), sess, auth.DomainAdmin, "nope", "x")
	assert.Equal(t, "/admin", out.Redirect)

	flash, _ := sess.PendingFlash()
	assert.Equal(t, validation.MsgInvalidEmailAddress, flash.Errors["email"])
	assert.Equal(t, validation.MsgInvalidPassword, flash.Errors["password"])
}

func TestLoginStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.Err = assert.AnError
	sess := session.New()

	out := f.ctl.Login(context.Background(), sess, auth.DomainUser, "a@b.co", "Secret12")
	assert.Equal(t, "/login", out.Redirect)
	assert.False(t, sess.Authenticated(auth.DomainUser))

	flash, _ := sess.PendingFlash()
	assert.Equal(t, MsgLoginFailed, flash.Message)
}

func TestLoginPageConsumesFlashOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := session.New()

	f.ctl.Login(ctx, sess, auth.DomainUser, "a@b.co", "Wrong1234")
	require.NoError(t, f.manager.Store().Save(ctx, sess))

	first := f.ctl.LoginPage(ctx, sess, auth.DomainUser)
	assert.Equal(t, ViewUserLogin, first.View)
	assert.Equal(t, MsgLoginIncorrect, first.Data["message"])

	second := f.ctl.LoginPage(ctx, sess, auth.DomainUser)
	assert.Equal(t, "", second.Data["message"])
	assert.Empty(t, second.Data["errors"])
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	input := service.RegisterInput{
		Name:            "Asha",
		Email:           "asha@b.co",
		Mobile:          "9876543210",
		Password:        "Secret12",
		ConfirmPassword: "Secret12",
	}

	out := f.ctl.Register(ctx, input)
	assert.Equal(t, ViewRegistration, out.View)
	assert.Equal(t, MsgRegistered, out.Data["message"])
	assert.Empty(t, out.Data["formData"])

	out = f.ctl.Register(ctx, input)
	assert.Equal(t, MsgEmailExists, out.Data["message"])
	assert.Equal(t, "asha@b.co", out.Data["formData"].(map[string]string)["email"])
	assert.Equal(t, 1, f.users.CountEmail("asha@b.co"))
}

func TestRegisterNeverEchoesPassword(t *testing.T) {
	f := newFixture(t)

	out := f.ctl.Register(context.Background(), service.RegisterInput{
		Name:            "Asha",
		Email:           "asha@b.co",
		Mobile:          "98765",
		Password:        "Secret12",
		ConfirmPassword: "Secret13",
	})
	form := out.Data["formData"].(map[string]string)
	assert.Equal(t, "98765", form["mobile"])
	assert.NotContains(t, form, "password")

	errs := out.Data["errors"].(map[string]string)
	assert.Equal(t, validation.MsgInvalidMobile, errs["mobile"])
	assert.Equal(t, validation.MsgPasswordMismatch, errs["confirmPassword"])
}

func TestRegisterStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.Err = assert.AnError

	out := f.ctl.Register(context.Background(), service.RegisterInput{
		Name: "Asha", Email: "asha@b.co", Mobile: "9876543210",
		Password: "Secret12", ConfirmPassword: "Secret12",
	})
	assert.Equal(t, MsgRegistrationError, out.Data["message"])
}

func TestHome(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "u1", "a@b.co", "Secret12", false)

	sess := session.New()
	sess.Authenticate(auth.DomainUser, "u1")
	out := f.ctl.Home(ctx, sess, auth.DomainUser)
	assert.Equal(t, ViewUserHome, out.View)
	assert.Equal(t, "u1", out.Data["user"].(models.User).ID)

	require.NoError(t, f.users.Delete(ctx, "u1"))
	out = f.ctl.Home(ctx, sess, auth.DomainUser)
	assert.Equal(t, "/", out.Redirect)
	assert.True(t, sess.Destroyed())
}

func TestHomeStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.users.Err = assert.AnError
	sess := session.New()
	sess.Authenticate(auth.DomainAdmin, "a1")

	out := f.ctl.Home(context.Background(), sess, auth.DomainAdmin)
	assert.Equal(t, ViewError, out.View)
	assert.Equal(t, http.StatusInternalServerError, out.Status)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	sess := session.New()
	sess.Authenticate(auth.DomainAdmin, "a1")

	out := f.ctl.Logout(sess, auth.DomainAdmin)
	assert.Equal(t, "/admin", out.Redirect)
	assert.True(t, sess.Destroyed())
}

func TestDashboardSearch(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "u1", "asha@b.co", "Secret12", false)
	f.seed(t, "a1", "asha.admin@b.co", "Secret12", true)

	out := f.ctl.Dashboard(context.Background(), session.New(), "asha")
	assert.Equal(t, ViewDashboard, out.View)
	assert.Equal(t, "asha", out.Data["searchQuery"])
	users := out.Data["users"].([]models.User)
	require.Len(t, users, 1)
	assert.Equal(t, "u1", users[0].ID)
}

func TestCreateUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out := f.ctl.CreateUser(ctx, service.UserInput{Name: "Ravi", Email: "ravi@b.co", Mobile: "9876543210"})
	assert.Equal(t, "/admin/dashboard", out.Redirect)
	require.Len(t, f.prov.delivered, 1)
	assert.Len(t, f.prov.delivered[0].Passkey, 6)

	out = f.ctl.CreateUser(ctx, service.UserInput{Name: "Ravi", Email: "ravi@b.co", Mobile: "9876543210"})
	assert.Equal(t, ViewNewUser, out.View)
	assert.Equal(t, MsgEmailExists, out.Data["message"])

	out = f.ctl.CreateUser(ctx, service.UserInput{Name: "R4vi", Email: "ravi2@b.co", Mobile: "9876543210"})
	assert.Equal(t, validation.MsgInvalidName, out.Data["errors"].(map[string]string)["name"])
	assert.Equal(t, "R4vi", out.Data["formData"].(map[string]string)["name"])
}

func TestEditUserInvalidMobileEchoesStoredRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	before := f.seed(t, "u1", "a@b.co", "Secret12", false)

	out := f.ctl.UpdateUser(ctx, session.New(), "u1", service.UserInput{Name: "Changed", Email: "changed@b.co", Mobile: "123"})
	assert.Equal(t, ViewEditUser, out.View)

	shown := out.Data["user"].(models.User)
	assert.Equal(t, before.Name, shown.Name)
	assert.Equal(t, before.Mobile, shown.Mobile)
	assert.Equal(t, validation.MsgInvalidMobile, out.Data["errors"].(map[string]string)["mobile"])

	stored, err := f.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before.Email, stored.Email)
}

func TestEditUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "u1", "a@b.co", "Secret12", false)

	out := f.ctl.EditUserPage(ctx, session.New(), "u1")
	assert.Equal(t, ViewEditUser, out.View)

	out = f.ctl.EditUserPage(ctx, session.New(), "missing")
	assert.Equal(t, "/admin/dashboard", out.Redirect)

	out = f.ctl.UpdateUser(ctx, session.New(), "u1", service.UserInput{Name: "Changed", Email: "new@b.co", Mobile: "1234567890"})
	assert.Equal(t, "/admin/dashboard", out.Redirect)
	stored, err := f.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Changed", stored.Name)
}

func TestEditUserStoreFailureFlashes(t *testing.T) {
	f := newFixture(t)
	f.users.Err = assert.AnError
	sess := session.New()

	out := f.ctl.UpdateUser(context.Background(), sess, "u1", service.UserInput{Name: "Changed", Email: "new@b.co", Mobile: "1234567890"})
	assert.Equal(t, "/admin/dashboard", out.Redirect)
	flash, ok := sess.PendingFlash()
	require.True(t, ok)
	assert.Equal(t, MsgUpdateFailed, flash.Message)
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "u1", "a@b.co", "Secret12", false)
	sess := session.New()

	assert.Equal(t, "/admin/dashboard", f.ctl.DeleteUser(ctx, sess, "u1").Redirect)
	assert.Equal(t, "/admin/dashboard", f.ctl.DeleteUser(ctx, sess, "u1").Redirect)
	_, pending := sess.PendingFlash()
	assert.False(t, pending)
	assert.Zero(t, f.users.Len())
}
