package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

const loginTokenId = "authenticate"

// LoginForm represents the login request structure.
type LoginForm struct {
	Login    string `form:"login"`
	Password string `form:"password"`
	Token    string `form:"_token"`
}

// IndexController handles the main index and login-related routes.
type IndexController struct {
	BaseController

	userService *service.UserService
	limiter     gin.HandlerFunc
}

func NewIndexController(g *gin.RouterGroup, deps Deps, limiter gin.HandlerFunc) *IndexController {
	a := &IndexController{
		BaseController: BaseController{basePath: deps.BasePath},
		userService:    deps.UserService,
		limiter:        limiter,
	}
	a.initRouter(g)
	return a
}

func (a *IndexController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.index)
	g.GET("/login", a.loginPage)
	g.POST("/login", a.limiter, a.login)
	g.GET("/logout", a.logout)
}

// index sends members to the posts and everyone else to the login page.
func (a *IndexController) index(c *gin.Context) {
	if middleware.GetUser(c) != nil {
		c.Redirect(http.StatusFound, a.url("posts/"))
		return
	}
	c.Redirect(http.StatusFound, a.loginURL())
}

func (a *IndexController) loginPage(c *gin.Context) {
	if middleware.GetUser(c) != nil {
		c.Redirect(http.StatusFound, a.url("posts/"))
		return
	}
	html(c, "login.html", "pages.login.title", gin.H{
		"token": session.CsrfToken(c, loginTokenId),
	})
}

func (a *IndexController) login(c *gin.Context) {
	var form LoginForm
	if err := c.ShouldBind(&form); err != nil {
		a.loginFailed(c, "pages.login.toasts.invalidFormData")
		return
	}
	if !session.IsCsrfTokenValid(c, loginTokenId, form.Token) {
		a.loginFailed(c, "pages.login.toasts.invalidToken")
		return
	}
	form.Login = strings.TrimSpace(form.Login)
	if form.Login == "" || form.Password == "" {
		a.loginFailed(c, "pages.login.toasts.emptyCredentials")
		return
	}

	user, err := a.userService.CheckUser(c.Request.Context(), middleware.GetUnitOfWork(c), form.Login, form.Password)
	switch {
	case errors.Is(err, service.ErrRestricted):
		logger.Warningf("restricted user %q refused, IP: %q", form.Login, getRemoteIp(c))
		a.loginFailed(c, "pages.login.toasts.restricted")
		return
	case err != nil:
		logger.Warningf("wrong login %q, IP: %q", form.Login, getRemoteIp(c))
		a.loginFailed(c, "pages.login.toasts.wrongUsernameOrPassword")
		return
	}

	if err := session.SetLoginUser(c, user.Id); err != nil {
		logger.Warning("Unable to save session:", err)
		a.loginFailed(c, "pages.login.toasts.invalidFormData")
		return
	}
	middleware.SetUser(c, user)
	middleware.RecordAudit(c, service.ActionLogin, "user", user.Id, nil)
	logger.Infof("%s logged in successfully, Ip Address: %s", user.Username, getRemoteIp(c))

	if user.IsGranted(model.RoleAdmin) {
		c.Redirect(http.StatusFound, a.url("admin/"))
		return
	}
	c.Redirect(http.StatusFound, a.url("posts/"))
}

func (a *IndexController) loginFailed(c *gin.Context, messageKey string) {
	session.AddFlash(c, session.FlashDanger, messageKey)
	c.Redirect(http.StatusFound, a.loginURL())
}

func (a *IndexController) logout(c *gin.Context) {
	if user := middleware.GetUser(c); user != nil {
		middleware.RecordAudit(c, service.ActionLogout, "user", user.Id, nil)
		logger.Infof("%s logged out successfully", user.Username)
	}
	if err := session.ClearSession(c); err != nil {
		logger.Warning("Unable to save session after clearing:", err)
	}
	c.Redirect(http.StatusFound, a.loginURL())
}
