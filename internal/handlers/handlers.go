package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"usermanagement/internal/auth"
	"usermanagement/internal/config"
	"usermanagement/internal/flows"
	"usermanagement/internal/middleware"
	"usermanagement/internal/repository"
	"usermanagement/internal/security"
	"usermanagement/internal/service"
	"usermanagement/internal/session"
)

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	flows    *flows.Controller
	users    repository.UserStore
	cache    *redis.Client
	sessions *session.Manager
}

func NewHandlerSet(
	log zerolog.Logger,
	cfg *config.AppConfig,
	users repository.UserStore,
	cache *redis.Client,
	sessions *session.Manager,
	hasher security.Hasher,
	provisioner service.Provisioner,
) HandlerSet {
	authSvc := service.NewAuthService(users, hasher, log)
	accounts := service.NewAccountService(users, hasher, provisioner, sessions.Store(), cfg.Security.PasskeyLength, log)

	return HandlerSet{
		log:      log,
		cfg:      cfg,
		flows:    flows.NewController(authSvc, accounts, sessions, log),
		users:    users,
		cache:    cache,
		sessions: sessions,
	}
}

func (h HandlerSet) Register(router *gin.Engine) {
	router.GET("/healthz", h.Health)

	pages := router.Group("/")
	pages.Use(middleware.NoCache(), middleware.Sessions(h.sessions))

	user := auth.DomainUser
	pages.GET("/register", middleware.RequireAnonymous(user), h.RegisterPage)
	pages.POST("/register", h.RegisterSubmit)
	pages.GET("/", middleware.RequireAnonymous(user), h.LoginPage(user))
	pages.GET("/login", middleware.RequireAnonymous(user), h.LoginPage(user))
	pages.POST("/login", h.LoginSubmit(user))
	pages.GET("/home", middleware.RequireAuthenticated(user), h.Home(user))
	pages.GET("/logout", middleware.RequireAuthenticated(user), h.Logout(user))

	adminDomain := auth.DomainAdmin
	admin := pages.Group("/admin")
	admin.GET("", middleware.RequireAnonymous(adminDomain), h.LoginPage(adminDomain))
	admin.POST("", h.LoginSubmit(adminDomain))

	protected := admin.Group("")
	protected.Use(middleware.RequireAuthenticated(adminDomain))
	protected.GET("/home", h.Home(adminDomain))
	protected.GET("/logout", h.Logout(adminDomain))
	protected.GET("/dashboard", h.Dashboard)
	protected.GET("/newuser", h.NewUserPage)
	protected.POST("/newuser", h.NewUserSubmit)
	protected.GET("/edituser", h.EditUserPage)
	protected.POST("/edituser", h.EditUserSubmit)
	protected.GET("/deleteuser", h.DeleteUser)
}

// respond persists the session, then writes the outcome. The session has
// to be committed first since its cookie goes out with the headers.
func (h HandlerSet) respond(c *gin.Context, sess *session.Session, out flows.Outcome) {
	if err := h.sessions.Commit(c.Request.Context(), c.Writer, sess); err != nil {
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("commit session failed")
		c.HTML(http.StatusInternalServerError, flows.ViewError, gin.H{"message": flows.MsgSomethingWrong})
		return
	}

	if out.Redirect != "" {
		status := out.Status
		if status == 0 {
			status = http.StatusFound
		}
		c.Redirect(status, out.Redirect)
		return
	}

	status := out.Status
	if status == 0 {
		status = http.StatusOK
	}
	c.HTML(status, out.View, out.Data)
}
