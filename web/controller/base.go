// Package controller serves the blogpanel pages: login, posts, member
// comments and the admin area.
package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/form"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

// Deps are the collaborators shared by every controller.
type Deps struct {
	BasePath         string
	FormOptions      form.Options
	UserService      *service.UserService
	AuditService     *service.AuditLogService
	DashboardService *service.DashboardService
	FileService      *service.FileService
}

// BaseController builds URLs under the base path and turns handler errors
// into flash messages.
type BaseController struct {
	basePath string
}

func (a *BaseController) url(format string, args ...any) string {
	return a.basePath + strings.TrimPrefix(fmt.Sprintf(format, args...), "/")
}

func (a *BaseController) loginURL() string {
	return a.url("login")
}

// redirectError ends an action with a warning flash and a redirect. It
// covers missing entities and rejected CSRF tokens.
type redirectError struct {
	message  string
	location string
	status   int
}

func (e *redirectError) Error() string {
	return e.message
}

func notFound(location string, format string, args ...any) error {
	return &redirectError{message: fmt.Sprintf(format, args...), location: location, status: http.StatusFound}
}

func csrfInvalid(location string) error {
	return &redirectError{message: "CSRF token not valid", location: location, status: http.StatusFound}
}

// actionFunc is a handler whose failures are reported instead of rendered.
type actionFunc func(c *gin.Context) error

// action runs fn and translates what it returns: a redirectError becomes a
// warning, any other error or panic a danger flash and a redirect to
// fallback.
func (a *BaseController) action(fallback string, fn actionFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic in", c.Request.Method, c.Request.URL.Path, ":", r)
				a.fail(c, fallback, fmt.Errorf("%v", r))
			}
		}()
		if err := fn(c); err != nil {
			a.fail(c, fallback, err)
		}
	}
}

func (a *BaseController) fail(c *gin.Context, fallback string, err error) {
	var re *redirectError
	if errors.As(err, &re) {
		session.AddFlash(c, session.FlashWarning, re.message)
		c.Redirect(re.status, re.location)
		return
	}
	logger.Warningf("%s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	if c.Writer.Written() {
		return
	}
	session.AddFlash(c, session.FlashDanger, err.Error())
	c.Redirect(http.StatusFound, fallback)
}
