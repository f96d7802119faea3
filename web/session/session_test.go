package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mhsanaei/blogpanel/logger"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve runs handler twice through a cookie session so that values written
// by the first request are read by the second.
func serve(t *testing.T, first, second gin.HandlerFunc) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(sessions.Sessions("blogpanel", cookie.NewStore([]byte("secret"))))
	engine.GET("/first", first)
	engine.GET("/second", second)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/first", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/second", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginUser(t *testing.T) {
	serve(t, func(c *gin.Context) {
		assert.False(t, IsLogin(c))
		require.NoError(t, SetLoginUser(c, 9))
		c.Status(http.StatusOK)
	}, func(c *gin.Context) {
		assert.Equal(t, 9, GetLoginUserId(c))
		require.NoError(t, ClearSession(c))
		assert.False(t, IsLogin(c))
		c.Status(http.StatusOK)
	})
}

func TestFlashesAreConsumed(t *testing.T) {
	serve(t, func(c *gin.Context) {
		AddFlash(c, FlashInfo, "one")
		AddFlash(c, FlashWarning, "two")
		c.Status(http.StatusOK)
	}, func(c *gin.Context) {
		assert.Equal(t, []Flash{{FlashInfo, "one"}, {FlashWarning, "two"}}, Flashes(c))
		assert.Empty(t, Flashes(c))
		c.Status(http.StatusOK)
	})
}

func TestCsrfToken(t *testing.T) {
	var token string
	serve(t, func(c *gin.Context) {
		token = CsrfToken(c, "user_item")
		assert.Equal(t, token, CsrfToken(c, "user_item"))
		c.Status(http.StatusOK)
	}, func(c *gin.Context) {
		assert.True(t, IsCsrfTokenValid(c, "user_item", token))
		assert.False(t, IsCsrfTokenValid(c, "delete-user", token))
		assert.False(t, IsCsrfTokenValid(c, "user_item", "wrong"))
		assert.False(t, IsCsrfTokenValid(c, "user_item", ""))
		c.Status(http.StatusOK)
	})
}

func TestClearSessionExpiresCookieAtBasePath(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := cookie.NewStore([]byte("secret"))
	store.Options(sessions.Options{Path: "/panel/"})
	engine := gin.New()
	engine.Use(sessions.Sessions("blogpanel", store))
	engine.Use(func(c *gin.Context) { c.Set(BasePathKey, "/panel/") })
	engine.GET("/panel/logout", func(c *gin.Context) {
		require.NoError(t, ClearSession(c))
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panel/logout", nil))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "/panel/", cookies[0].Path)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestOversizedFlashIsLogged(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(sessions.Sessions("blogpanel", cookie.NewStore([]byte("secret"))))
	engine.GET("/", func(c *gin.Context) {
		AddFlash(c, FlashDanger, strings.Repeat("x", 5000))
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	logs := logger.GetLogs(1, "WARNING")
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0], "Unable to save flash")
}
