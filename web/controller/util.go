package controller

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/web/locale"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

// getRemoteIp extracts the real IP address from the request headers or remote address.
func getRemoteIp(c *gin.Context) string {
	value := c.GetHeader("X-Real-IP")
	if value != "" {
		return value
	}
	value = c.GetHeader("X-Forwarded-For")
	if value != "" {
		ips := strings.Split(value, ",")
		return strings.TrimSpace(ips[0])
	}
	ip, _, _ := net.SplitHostPort(c.Request.RemoteAddr)
	return ip
}

// html renders a page with the data every layout needs: title key,
// language, session user and the pending flashes.
func html(c *gin.Context, name string, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	data["lang"] = c.GetString(locale.ContextKey)
	data["base_path"] = c.GetString(session.BasePathKey)
	data["request_uri"] = c.Request.RequestURI
	data["current_user"] = middleware.GetUser(c)
	data["flashes"] = session.Flashes(c)
	c.HTML(http.StatusOK, name, getContext(data))
}

// getContext adds version and other context data to the provided gin.H.
func getContext(h gin.H) gin.H {
	a := gin.H{
		"cur_ver": config.GetVersion(),
	}
	for key, value := range h {
		a[key] = value
	}
	return a
}

// paramId parses a positive integer path parameter.
func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isSubmitted(c *gin.Context) bool {
	return c.Request.Method == http.MethodPost
}

func itoa(i int) string {
	return strconv.Itoa(i)
}
