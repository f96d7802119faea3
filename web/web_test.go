package web

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/dbtest"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/util/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	adminPassword = "admin-secret"
	userPassword  = "user-secret"
)

var (
	formTokenRe   = regexp.MustCompile(`name="_token" value="([^"]+)"`)
	deleteTokenRe = regexp.MustCompile(`name="token" value="([^"]+)"`)
)

type testApp struct {
	t   *testing.T
	db  *gorm.DB
	url string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppAt(t, "/")
}

func newTestAppAt(t *testing.T, basePath string) *testApp {
	t.Helper()
	db := dbtest.Open(t)
	require.NoError(t, database.SeedAdmin(db, "admin", "admin@example.com", adminPassword, "en"))

	locales := []config.Locale{{Code: "en", Label: "English"}, {Code: "fr", Label: "Français"}}
	require.NoError(t, InitLocalizer(locales))

	cfg := &config.Config{
		Port:          8080,
		BasePath:      basePath,
		Secret:        "test-secret-test-secret-test-sec",
		SessionMaxAge: 60,
		SessionStore:  config.SessionStoreCookie,
		Locales:       locales,
		Storage: &config.StorageConfig{
			Type:  config.StorageTypeLocal,
			Local: config.LocalStorageConfig{Root: filepath.Join(t.TempDir(), "files")},
		},
		AuditRetentionDays: 90,
	}
	server := NewServer(cfg, db)
	handler, err := server.Handler()
	require.NoError(t, err)

	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		ts.Close()
		_ = server.Stop()
	})
	return &testApp{t: t, db: db, url: ts.URL}
}

// addUser stores a user with userPassword directly in the database.
func (a *testApp) addUser(username string, role model.Role) *model.User {
	hash, err := crypto.HashPasswordAsBcrypt(userPassword)
	require.NoError(a.t, err)
	u := &model.User{Username: username, Email: username + "@example.com", Password: hash, Role: role, Locale: "en"}
	dbtest.Create(a.t, a.db, u)
	return u
}

func (a *testApp) addPosts(n int) {
	for i := 1; i <= n; i++ {
		dbtest.Create(a.t, a.db, &model.Post{Title: fmt.Sprintf("Post %d", i), Body: "body"})
	}
}

type browser struct {
	app    *testApp
	client *http.Client
}

func (a *testApp) browser() *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &browser{app: a, client: &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
}

type page struct {
	status   int
	location string
	body     string
}

func (b *browser) do(req *http.Request) page {
	t := b.app.t
	t.Helper()
	resp, err := b.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return page{status: resp.StatusCode, location: resp.Header.Get("Location"), body: string(body)}
}

func (b *browser) get(path string) page {
	b.app.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.app.url+path, nil)
	require.NoError(b.app.t, err)
	return b.do(req)
}

func (b *browser) post(path string, values url.Values) page {
	b.app.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.app.url+path, strings.NewReader(values.Encode()))
	require.NoError(b.app.t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

// follow loads the page a redirect points to, consuming its flashes.
func (b *browser) follow(p page) page {
	b.app.t.Helper()
	require.NotEmpty(b.app.t, p.location, "expected a redirect, got %d", p.status)
	return b.get(p.location)
}

func (b *browser) formToken(path string) string {
	b.app.t.Helper()
	p := b.get(path)
	require.Equal(b.app.t, http.StatusOK, p.status, p.body)
	m := formTokenRe.FindStringSubmatch(p.body)
	require.NotNil(b.app.t, m, "no form token on %s", path)
	return m[1]
}

func (b *browser) deleteToken(path string) string {
	b.app.t.Helper()
	p := b.get(path)
	require.Equal(b.app.t, http.StatusOK, p.status, p.body)
	m := deleteTokenRe.FindStringSubmatch(p.body)
	require.NotNil(b.app.t, m, "no delete token on %s", path)
	return m[1]
}

func (b *browser) login(login, password string) page {
	b.app.t.Helper()
	token := b.formToken("/login")
	return b.post("/login", url.Values{"login": {login}, "password": {password}, "_token": {token}})
}

func TestLogin(t *testing.T) {
	app := newTestApp(t)
	app.addUser("bob", model.RoleUser)

	t.Run("admin lands on dashboard", func(t *testing.T) {
		b := app.browser()
		p := b.login("admin", adminPassword)
		assert.Equal(t, http.StatusFound, p.status)
		assert.Equal(t, "/admin/", p.location)

		dash := b.follow(p)
		assert.Equal(t, http.StatusOK, dash.status)
		assert.Contains(t, dash.body, "admin")
	})

	t.Run("login by email", func(t *testing.T) {
		p := app.browser().login("bob@example.com", userPassword)
		assert.Equal(t, "/posts/", p.location)
	})

	t.Run("wrong password", func(t *testing.T) {
		b := app.browser()
		p := b.login("bob", "nope")
		assert.Equal(t, "/login", p.location)
		assert.Contains(t, b.follow(p).body, "Invalid username or password.")
	})

	t.Run("missing token", func(t *testing.T) {
		b := app.browser()
		p := b.post("/login", url.Values{"login": {"bob"}, "password": {userPassword}})
		assert.Equal(t, "/login", p.location)
		assert.Equal(t, "/login", b.get("/admin/").location)
	})

	t.Run("logout", func(t *testing.T) {
		b := app.browser()
		b.login("admin", adminPassword)
		assert.Equal(t, "/login", b.get("/logout").location)
		assert.Equal(t, "/login", b.get("/admin/").location)
	})
}

func TestLogoutUnderBasePath(t *testing.T) {
	app := newTestAppAt(t, "/panel/")
	b := app.browser()

	token := b.formToken("/panel/login")
	p := b.post("/panel/login", url.Values{"login": {"admin"}, "password": {adminPassword}, "_token": {token}})
	assert.Equal(t, "/panel/admin/", p.location)
	assert.Equal(t, http.StatusOK, b.get("/panel/admin/").status)

	p = b.get("/panel/logout")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/panel/login", p.location)

	p = b.get("/panel/admin/")
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/panel/login", p.location)
}

func TestAccessControl(t *testing.T) {
	app := newTestApp(t)
	app.addUser("bob", model.RoleUser)
	app.addUser("mod", model.RoleModerator)

	anonymous := app.browser()
	for _, path := range []string{"/admin/", "/admin/user/", "/admin/file/", "/comments/"} {
		p := anonymous.get(path)
		assert.Equal(t, http.StatusFound, p.status, path)
		assert.Equal(t, "/login", p.location, path)
	}

	for _, name := range []string{"bob", "mod"} {
		b := app.browser()
		b.login(name, userPassword)
		for _, path := range []string{"/admin/", "/admin/user/", "/admin/file/1/edit-name"} {
			p := b.get(path)
			assert.Equal(t, http.StatusUnauthorized, p.status, path)
			assert.Equal(t, "No access! Get out!", p.body, path)
		}
		assert.Equal(t, http.StatusOK, b.get("/comments/").status)
	}
}

func TestCreateUser(t *testing.T) {
	app := newTestApp(t)
	b := app.browser()
	b.login("admin", adminPassword)

	token := b.formToken("/admin/user/new")
	p := b.post("/admin/user/new", url.Values{
		"email":    {"alice@example.com"},
		"username": {"alice"},
		"roles":    {"ROLE_USER"},
		"locale":   {"en"},
		"password": {"alice-password"},
		"_token":   {token},
	})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Equal(t, "/admin/user/", p.location)

	var alice model.User
	require.NoError(t, app.db.Where("username = ?", "alice").First(&alice).Error)
	assert.Equal(t, model.RoleUser, alice.Role)
	assert.NotEqual(t, "alice-password", alice.Password)
	assert.True(t, crypto.CheckPasswordHash(alice.Password, "alice-password"))
	assert.False(t, alice.IsVerified)

	index := b.follow(p)
	assert.Contains(t, index.body, fmt.Sprintf("Saved new user with id %d", alice.Id))
	assert.Contains(t, index.body, "alice@example.com")

	t.Run("duplicate email is a field error", func(t *testing.T) {
		p := b.post("/admin/user/new", url.Values{
			"email":    {"alice@example.com"},
			"username": {"alice2"},
			"roles":    {"ROLE_USER"},
			"locale":   {"en"},
			"password": {"alice-password"},
			"_token":   {token},
		})
		assert.Equal(t, http.StatusOK, p.status)
		assert.Contains(t, p.body, "There is already an account with this email")
		var count int64
		app.db.Model(&model.User{}).Count(&count)
		assert.EqualValues(t, 2, count)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		p := b.post("/admin/user/new", url.Values{
			"email":    {"carol@example.com"},
			"username": {"carol"},
			"roles":    {"ROLE_GOD"},
			"locale":   {"en"},
			"password": {"carol-password"},
			"_token":   {token},
		})
		assert.Equal(t, http.StatusOK, p.status)
		assert.Contains(t, p.body, "The selected choice is invalid.")
	})

	t.Run("bad csrf token", func(t *testing.T) {
		p := b.post("/admin/user/new", url.Values{
			"email":    {"dave@example.com"},
			"username": {"dave"},
			"roles":    {"ROLE_USER"},
			"locale":   {"en"},
			"password": {"dave-password"},
			"_token":   {"forged"},
		})
		assert.Equal(t, http.StatusOK, p.status)
		assert.Contains(t, p.body, "The CSRF token is invalid. Please try to resubmit the form.")
		assert.ErrorIs(t, app.db.Where("username = ?", "dave").First(&model.User{}).Error, gorm.ErrRecordNotFound)
	})
}

func TestEditUser(t *testing.T) {
	app := newTestApp(t)
	bob := app.addUser("bob", model.RoleUser)
	b := app.browser()
	b.login("admin", adminPassword)

	path := fmt.Sprintf("/admin/user/%d/edit", bob.Id)
	token := b.formToken(path)
	p := b.post(path, url.Values{
		"email":      {"robert@example.com"},
		"username":   {"bob"},
		"roles":      {"ROLE_EDITOR"},
		"locale":     {"fr"},
		"isVerified": {"true"},
		"_token":     {token},
	})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Contains(t, b.follow(p).body, fmt.Sprintf("Updated user with id %d", bob.Id))

	var got model.User
	require.NoError(t, app.db.First(&got, bob.Id).Error)
	assert.Equal(t, "robert@example.com", got.Email)
	assert.Equal(t, model.RoleEditor, got.Role)
	assert.Equal(t, "fr", got.Locale)
	assert.True(t, got.IsVerified)
	assert.Equal(t, bob.Password, got.Password)

	t.Run("password", func(t *testing.T) {
		path := fmt.Sprintf("/admin/user/%d/edit-password", bob.Id)
		token := b.formToken(path)

		p := b.post(path, url.Values{"password": {"new-password"}, "passwordConfirmation": {"other"}, "_token": {token}})
		assert.Equal(t, http.StatusOK, p.status)
		assert.Contains(t, p.body, "The password fields must match.")

		p = b.post(path, url.Values{"password": {"new-password"}, "passwordConfirmation": {"new-password"}, "_token": {token}})
		assert.Equal(t, http.StatusSeeOther, p.status)
		require.NoError(t, app.db.First(&got, bob.Id).Error)
		assert.True(t, crypto.CheckPasswordHash(got.Password, "new-password"))
	})

	t.Run("missing user", func(t *testing.T) {
		p := b.post("/admin/user/999/edit", url.Values{"email": {"x@example.com"}, "_token": {token}})
		assert.Equal(t, http.StatusFound, p.status)
		assert.Equal(t, "/admin/user/", p.location)
		assert.Contains(t, b.follow(p).body, "There is no user with id 999")
	})

	t.Run("show missing user is a failure", func(t *testing.T) {
		p := b.get("/admin/user/999")
		assert.Equal(t, "/admin/user/", p.location)
		assert.Contains(t, b.follow(p).body, "alert-danger")
	})
}

func TestDeleteUser(t *testing.T) {
	app := newTestApp(t)
	bob := app.addUser("bob", model.RoleUser)
	b := app.browser()
	b.login("admin", adminPassword)
	path := fmt.Sprintf("/admin/user/%d", bob.Id)

	p := b.post(path, url.Values{"token": {"wrong"}})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Contains(t, b.follow(p).body, "ERROR : User have not been deleted")
	require.NoError(t, app.db.First(&model.User{}, bob.Id).Error)

	token := b.deleteToken(path)
	p = b.post("/admin/user/1", url.Values{"token": {token}})
	assert.Contains(t, b.follow(p).body, "ERROR : User have not been deleted")
	require.NoError(t, app.db.First(&model.User{}, 1).Error)

	p = b.post(path, url.Values{"token": {token}})
	assert.Equal(t, http.StatusSeeOther, p.status)
	assert.Contains(t, b.follow(p).body, "User have been deleted")
	assert.ErrorIs(t, app.db.First(&model.User{}, bob.Id).Error, gorm.ErrRecordNotFound)

	var audit model.AuditLog
	require.NoError(t, app.db.Where("action = ? AND resource = ?", "DELETE", "user").First(&audit).Error)
	assert.Equal(t, bob.Id, audit.ResourceId)
	assert.Equal(t, "admin", audit.Username)
}

func TestCommentUnderPost(t *testing.T) {
	app := newTestApp(t)
	app.addPosts(5)
	bob := app.addUser("bob", model.RoleUser)
	b := app.browser()
	b.login("bob", userPassword)

	token := b.formToken("/posts/5")
	p := b.post("/comments/post/5/update", url.Values{"body": {"First!"}, "_token": {token}})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/posts/5", p.location)

	var comment model.Comment
	require.NoError(t, app.db.Where("body = ?", "First!").First(&comment).Error)
	assert.Equal(t, 5, comment.PostId)
	assert.Equal(t, bob.Id, comment.AuthorId)

	show := b.follow(p)
	assert.Contains(t, show.body, fmt.Sprintf("Comment update with id %d", comment.Id))
	assert.Contains(t, show.body, "First!")

	t.Run("edit", func(t *testing.T) {
		p := b.post(fmt.Sprintf("/comments/post/5/update/%d", comment.Id), url.Values{"body": {"Edited"}, "_token": {token}})
		assert.Equal(t, "/posts/5", p.location)
		var got model.Comment
		require.NoError(t, app.db.First(&got, comment.Id).Error)
		assert.Equal(t, "Edited", got.Body)
		assert.Equal(t, bob.Id, got.AuthorId)
	})

	t.Run("blank body", func(t *testing.T) {
		p := b.post("/comments/post/5/update", url.Values{"body": {""}, "_token": {token}})
		assert.Equal(t, "/posts/5", p.location)
		assert.Contains(t, b.follow(p).body, "This value should not be blank.")
		var count int64
		app.db.Model(&model.Comment{}).Count(&count)
		assert.EqualValues(t, 1, count)
	})

	t.Run("missing post", func(t *testing.T) {
		p := b.post("/comments/post/42/update", url.Values{"body": {"lost"}, "_token": {token}})
		assert.Equal(t, "/posts/", p.location)
		assert.Contains(t, b.follow(p).body, "There is no post with id 42")
	})

	t.Run("someone else's comment", func(t *testing.T) {
		app.addUser("eve", model.RoleUser)
		eve := app.browser()
		eve.login("eve", userPassword)
		evesToken := eve.formToken("/posts/5")
		p := eve.post(fmt.Sprintf("/comments/post/5/update/%d", comment.Id), url.Values{"body": {"pwned"}, "_token": {evesToken}})
		assert.Equal(t, http.StatusUnauthorized, p.status)
	})
}

func TestDeleteComment(t *testing.T) {
	app := newTestApp(t)
	app.addPosts(5)
	bob := app.addUser("bob", model.RoleUser)
	comment := &model.Comment{Body: "to delete", PostId: 5, AuthorId: bob.Id}
	dbtest.Create(t, app.db, comment)

	b := app.browser()
	b.login("bob", userPassword)
	path := fmt.Sprintf("/comments/delete/%d/post/5", comment.Id)

	p := b.post(path, url.Values{"token": {"wrong"}})
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/posts/5", p.location)
	assert.Contains(t, b.follow(p).body, "CSRF token not valid")
	require.NoError(t, app.db.First(&model.Comment{}, comment.Id).Error)

	token := b.deleteToken("/posts/5")
	p = b.post(path, url.Values{"token": {token}})
	assert.Equal(t, "/posts/5", p.location)
	assert.Contains(t, b.follow(p).body, fmt.Sprintf("The comment with id %d have been deleted", comment.Id))
	assert.ErrorIs(t, app.db.First(&model.Comment{}, comment.Id).Error, gorm.ErrRecordNotFound)

	other := &model.Comment{Body: "on another post", PostId: 4, AuthorId: bob.Id}
	dbtest.Create(t, app.db, other)
	p = b.post(fmt.Sprintf("/comments/delete/%d/post/5", other.Id), url.Values{"token": {token}})
	assert.Equal(t, "/posts/5", p.location)
	assert.Contains(t, b.follow(p).body, fmt.Sprintf("There is no comment with id %d", other.Id))
	require.NoError(t, app.db.First(&model.Comment{}, other.Id).Error)

	p = b.post("/comments/delete/999/post/5", url.Values{"token": {token}})
	assert.Contains(t, b.follow(p).body, "There is no comment with id 999")
}

func TestFileAdmin(t *testing.T) {
	app := newTestApp(t)
	b := app.browser()
	b.login("admin", adminPassword)

	token := b.formToken("/admin/file/new")
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("_token", token))
	require.NoError(t, w.WriteField("description", "the report"))
	part, err := w.CreateFormFile("file", "report.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("hello blog"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, app.url+"/admin/file/new", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	p := b.do(req)
	assert.Equal(t, http.StatusFound, p.status)
	assert.Equal(t, "/admin/file/", p.location)

	var file model.File
	require.NoError(t, app.db.Where("name = ?", "report.txt").First(&file).Error)
	assert.EqualValues(t, len("hello blog"), file.Size)
	assert.Equal(t, "the report", file.Description)
	assert.NotEmpty(t, file.StorageKey)
	assert.Contains(t, b.follow(p).body, fmt.Sprintf("File uploaded with id %d", file.Id))

	download := b.get(fmt.Sprintf("/files/%d", file.Id))
	assert.Equal(t, http.StatusOK, download.status)
	assert.Equal(t, "hello blog", download.body)
	assert.Equal(t, http.StatusNotFound, app.browser().get(fmt.Sprintf("/files/%d", file.Id)).status)

	t.Run("edit name keeps other fields", func(t *testing.T) {
		path := fmt.Sprintf("/admin/file/%d/edit-name", file.Id)
		token := b.formToken(path)
		p := b.post(path, url.Values{"name": {"renamed.txt"}, "description": {"ignored"}, "_token": {token}})
		assert.Equal(t, "/admin/file/", p.location)
		assert.Contains(t, b.follow(p).body, fmt.Sprintf("File %d updated", file.Id))

		var got model.File
		require.NoError(t, app.db.First(&got, file.Id).Error)
		assert.Equal(t, "renamed.txt", got.Name)
		assert.Equal(t, "the report", got.Description)
		assert.Equal(t, file.IsPublished, got.IsPublished)
		assert.Equal(t, file.Private, got.Private)
		assert.Equal(t, file.StorageKey, got.StorageKey)
	})

	t.Run("edition publishes for members", func(t *testing.T) {
		path := fmt.Sprintf("/admin/file/%d/edit", file.Id)
		token := b.formToken(path)
		p := b.post(path, url.Values{"isPublished": {"true"}, "roleAccess": {"ROLE_USER"}, "description": {"public now"}, "_token": {token}})
		assert.Equal(t, "/admin/file/", p.location)

		var got model.File
		require.NoError(t, app.db.First(&got, file.Id).Error)
		assert.True(t, got.IsPublished)
		assert.Equal(t, model.RoleUser, got.RoleAccess)
		assert.Equal(t, "renamed.txt", got.Name)

		app.addUser("bob", model.RoleUser)
		bob := app.browser()
		bob.login("bob", userPassword)
		assert.Equal(t, "hello blog", bob.get(fmt.Sprintf("/files/%d", file.Id)).body)
		assert.Equal(t, http.StatusNotFound, app.browser().get(fmt.Sprintf("/files/%d", file.Id)).status)
	})

	t.Run("missing file is not mutated", func(t *testing.T) {
		p := b.post("/admin/file/999/edit-name", url.Values{"name": {"ghost"}, "_token": {token}})
		assert.Equal(t, "/admin/file/", p.location)
		assert.Contains(t, b.follow(p).body, "There is no file with id 999")
		var count int64
		app.db.Model(&model.File{}).Where("name = ?", "ghost").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("delete needs a valid token", func(t *testing.T) {
		path := fmt.Sprintf("/admin/file/%d/delete", file.Id)
		p := b.post(path, url.Values{"token": {"wrong"}})
		assert.Contains(t, b.follow(p).body, "CSRF token not valid")
		require.NoError(t, app.db.First(&model.File{}, file.Id).Error)

		token := b.deleteToken("/admin/file/")
		p = b.post(path, url.Values{"token": {token}})
		assert.Contains(t, b.follow(p).body, "File have been deleted")
		assert.ErrorIs(t, app.db.First(&model.File{}, file.Id).Error, gorm.ErrRecordNotFound)
		assert.Equal(t, http.StatusNotFound, b.get(fmt.Sprintf("/files/%d", file.Id)).status)
	})
}

func TestDashboard(t *testing.T) {
	app := newTestApp(t)
	app.addPosts(2)
	b := app.browser()
	b.login("admin", adminPassword)

	p := b.get("/admin/")
	assert.Equal(t, http.StatusOK, p.status)
	assert.Contains(t, p.body, "Dashboard")
	assert.Contains(t, p.body, "LOGIN")
}

func TestLocale(t *testing.T) {
	app := newTestApp(t)
	req, err := http.NewRequest(http.MethodGet, app.url+"/login", nil)
	require.NoError(t, err)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")
	p := app.browser().do(req)
	assert.Contains(t, p.body, "Se connecter")
}
