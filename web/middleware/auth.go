package middleware

import (
	"net/http"

	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/locale"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// NoAccessMessage is the body of every 401 answer.
const NoAccessMessage = "No access! Get out!"

// LoadUser resolves the session login into a user. A session pointing at
// a deleted or restricted account is cleared.
func LoadUser(userService *service.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := session.GetLoginUserId(c)
		if id == 0 {
			c.Next()
			return
		}
		user, err := userService.GetUser(c.Request.Context(), GetUnitOfWork(c), id)
		if err != nil {
			logger.Warning("load session user:", err)
		}
		if user == nil || user.IsRestricted {
			_ = session.ClearSession(c)
			c.Next()
			return
		}
		SetUser(c, user)
		cookie, _ := c.Cookie("lang")
		c.Set(locale.ContextKey, locale.Resolve(user.Locale, cookie, c.GetHeader("Accept-Language")))
		c.Next()
	}
}

func SetUser(c *gin.Context, user *model.User) {
	c.Set(userKey, user)
}

// GetUser returns the logged in user, nil when anonymous.
func GetUser(c *gin.Context) *model.User {
	if v, ok := c.Get(userKey); ok {
		return v.(*model.User)
	}
	return nil
}

// RequireLogin redirects anonymous callers to loginPath.
func RequireLogin(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUser(c) == nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireRole lets through users holding at least role. Anonymous callers
// are sent to loginPath, everyone else gets a 401.
func RequireRole(role model.Role, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUser(c)
		if user == nil {
			c.Redirect(http.StatusFound, loginPath)
			c.Abort()
			return
		}
		if !user.IsGranted(role) {
			logger.Warningf("user %s denied %s %s", user.Username, c.Request.Method, c.Request.URL.Path)
			c.String(http.StatusUnauthorized, NoAccessMessage)
			c.Abort()
			return
		}
		c.Next()
	}
}
