// Package session stores the login, flash messages and CSRF tokens in the
// gin session.
package session

import (
	"encoding/gob"
	"net/http"

	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/crypto"
	"github.com/mhsanaei/blogpanel/util/random"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// BasePathKey is the context key holding the panel's base path.
const BasePathKey = "base_path"

const (
	loginUser   = "LOGIN_USER"
	csrfPrefix  = "_csrf/"
	tokenLength = 32
)

// Flash severities.
const (
	FlashInfo    = "info"
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

type Flash struct {
	Type    string
	Message string
}

func init() {
	gob.Register(Flash{})
}

func SetLoginUser(c *gin.Context, userId int) error {
	s := sessions.Default(c)
	s.Set(loginUser, userId)
	return s.Save()
}

// GetLoginUserId returns the id stored at login, 0 when anonymous.
func GetLoginUserId(c *gin.Context) int {
	if id, ok := sessions.Default(c).Get(loginUser).(int); ok {
		return id
	}
	return 0
}

func IsLogin(c *gin.Context) bool {
	return GetLoginUserId(c) > 0
}

// ClearSession drops everything, including pending flashes and tokens. The
// cookie is expired at the base path it was issued for.
func ClearSession(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	s.Options(sessions.Options{
		Path:     cookiePath(c),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return s.Save()
}

func cookiePath(c *gin.Context) string {
	if basePath := c.GetString(BasePathKey); basePath != "" {
		return basePath
	}
	return "/"
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, kind, message string) {
	s := sessions.Default(c)
	s.AddFlash(Flash{Type: kind, Message: message})
	if err := s.Save(); err != nil {
		logger.Warning("Unable to save flash:", err)
	}
}

// Flashes consumes the queued messages.
func Flashes(c *gin.Context) []Flash {
	s := sessions.Default(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := s.Save(); err != nil {
		logger.Warning("Unable to save session after reading flashes:", err)
	}
	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes
}

// CsrfToken returns the token for id, creating it on first use. A token
// stays valid for the session's lifetime so several open forms keep working.
func CsrfToken(c *gin.Context, id string) string {
	s := sessions.Default(c)
	if token, ok := s.Get(csrfPrefix + id).(string); ok && token != "" {
		return token
	}
	token := random.Seq(tokenLength)
	s.Set(csrfPrefix+id, token)
	if err := s.Save(); err != nil {
		logger.Warning("Unable to save csrf token:", err)
	}
	return token
}

func IsCsrfTokenValid(c *gin.Context, id, token string) bool {
	stored, _ := sessions.Default(c).Get(csrfPrefix + id).(string)
	return crypto.SecretsEqual(stored, token)
}
