package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/web/form"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

const deleteUserTokenId = "delete-user"

// UserAdminController is the admin user manager under /admin/user.
type UserAdminController struct {
	BaseController

	formOptions form.Options
}

func NewUserAdminController(g *gin.RouterGroup, deps Deps) *UserAdminController {
	a := &UserAdminController{
		BaseController: BaseController{basePath: deps.BasePath},
		formOptions:    deps.FormOptions,
	}
	a.initRouter(g.Group("/user"))
	return a
}

func (a *UserAdminController) initRouter(g *gin.RouterGroup) {
	index := a.indexURL()
	g.GET("/", a.action(a.url("admin/"), a.index))
	g.GET("/new", a.action(index, a.create))
	g.POST("/new", a.action(index, a.create))
	g.GET("/:id/edit", a.action(index, a.edit))
	g.POST("/:id/edit", a.action(index, a.edit))
	g.GET("/:id/edit-password", a.action(index, a.editPassword))
	g.POST("/:id/edit-password", a.action(index, a.editPassword))
	g.GET("/:id", a.action(index, a.show))
	g.POST("/:id", a.action(index, a.delete))
}

func (a *UserAdminController) indexURL() string {
	return a.url("admin/user/")
}

func (a *UserAdminController) toIndex(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, a.indexURL())
}

// findUser loads the :id user; a missing user is a redirect to the index.
func (a *UserAdminController) findUser(c *gin.Context) (*model.User, error) {
	id, ok := paramId(c, "id")
	if !ok {
		return nil, notFound(a.indexURL(), "There is no user with id %s", c.Param("id"))
	}
	user, err := repository.NewUserRepository(middleware.GetUnitOfWork(c)).FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(a.indexURL(), "There is no user with id %d", id)
	}
	return user, err
}

func (a *UserAdminController) index(c *gin.Context) error {
	users, err := repository.NewUserRepository(middleware.GetUnitOfWork(c)).FindAll(c.Request.Context())
	if err != nil {
		return err
	}
	f := form.NewUserCreateForm(a.formOptions).View()
	f.PrepareToken(c)
	html(c, "user_index.html", "pages.users.title", gin.H{
		"users":        users,
		"form":         f,
		"delete_token": session.CsrfToken(c, deleteUserTokenId),
	})
	return nil
}

// checkUnique flags email and username already used by another account.
func checkUnique(ctx context.Context, users *repository.UserRepository, f *form.Form, email, username string, exceptId int) error {
	taken, err := users.Taken(ctx, "email", email, exceptId)
	if err != nil {
		return err
	}
	if taken {
		f.AddFieldError("email", "There is already an account with this email")
	}
	taken, err = users.Taken(ctx, "username", username, exceptId)
	if err != nil {
		return err
	}
	if taken {
		f.AddFieldError("username", "There is already an account with this username")
	}
	return nil
}

// flushUser writes staged changes; a unique index race is reported on the
// form rather than as a failure.
func flushUser(c *gin.Context, f *form.Form) (bool, error) {
	err := middleware.GetUnitOfWork(c).Flush(c.Request.Context())
	if repository.IsDuplicate(err) {
		f.AddFieldError("", "There is already an account with this email or username")
		return false, nil
	}
	return err == nil, err
}

func (a *UserAdminController) create(c *gin.Context) error {
	user := &model.User{}
	f := form.NewUserCreateForm(a.formOptions)
	view := f.View()
	view.PrepareToken(c)

	if isSubmitted(c) && f.Bind(c) {
		users := repository.NewUserRepository(middleware.GetUnitOfWork(c))
		if err := checkUnique(c.Request.Context(), users, view, f.Email(), f.Username(), 0); err != nil {
			return err
		}
		if view.Valid() {
			if err := f.Apply(user); err != nil {
				return err
			}
			users.Add(user)
			ok, err := flushUser(c, view)
			if err != nil {
				return err
			}
			if ok {
				middleware.RecordAudit(c, service.ActionCreate, "user", user.Id, map[string]any{"username": user.Username, "role": user.Role})
				session.AddFlash(c, session.FlashInfo, "Saved new user with id "+itoa(user.Id))
				a.toIndex(c)
				return nil
			}
		}
	}
	html(c, "user_create.html", "pages.users.create", gin.H{"form": view})
	return nil
}

func (a *UserAdminController) edit(c *gin.Context) error {
	user, err := a.findUser(c)
	if err != nil {
		return err
	}
	f := form.NewUserEditForm(user, a.formOptions)
	view := f.View()
	view.PrepareToken(c)

	if isSubmitted(c) && f.Bind(c) {
		users := repository.NewUserRepository(middleware.GetUnitOfWork(c))
		if err := checkUnique(c.Request.Context(), users, view, f.Email(), f.Username(), user.Id); err != nil {
			return err
		}
		if view.Valid() {
			if err := f.Apply(user); err != nil {
				return err
			}
			users.Add(user)
			ok, err := flushUser(c, view)
			if err != nil {
				return err
			}
			if ok {
				middleware.RecordAudit(c, service.ActionUpdate, "user", user.Id, map[string]any{"role": user.Role})
				session.AddFlash(c, session.FlashInfo, "Updated user with id "+itoa(user.Id))
				a.toIndex(c)
				return nil
			}
		}
	}
	html(c, "user_edit.html", "pages.users.edit", gin.H{"user": user, "form": view})
	return nil
}

func (a *UserAdminController) editPassword(c *gin.Context) error {
	user, err := a.findUser(c)
	if err != nil {
		return err
	}
	f := form.NewUserPasswordForm()
	view := f.View()
	view.PrepareToken(c)

	if isSubmitted(c) && f.Bind(c) {
		if err := f.Apply(user); err != nil {
			return err
		}
		uow := middleware.GetUnitOfWork(c)
		repository.NewUserRepository(uow).Add(user)
		if err := uow.Flush(c.Request.Context()); err != nil {
			return err
		}
		middleware.RecordAudit(c, service.ActionUpdate, "user", user.Id, map[string]any{"field": "password"})
		session.AddFlash(c, session.FlashInfo, "Updated user with id "+itoa(user.Id))
		a.toIndex(c)
		return nil
	}
	html(c, "user_password.html", "pages.users.password", gin.H{"user": user, "form": view})
	return nil
}

// show reports a missing user as a failure, not as a warning.
func (a *UserAdminController) show(c *gin.Context) error {
	id, ok := paramId(c, "id")
	if !ok {
		return errors.New("invalid user id " + c.Param("id"))
	}
	user, err := repository.NewUserRepository(middleware.GetUnitOfWork(c)).FindByID(c.Request.Context(), id)
	if err != nil {
		return errors.New("user " + itoa(id) + ": " + err.Error())
	}
	html(c, "user_show.html", "pages.users.show", gin.H{
		"user":         user,
		"delete_token": session.CsrfToken(c, deleteUserTokenId),
	})
	return nil
}

func (a *UserAdminController) delete(c *gin.Context) error {
	user, err := a.findUser(c)
	if err != nil {
		return err
	}
	current := middleware.GetUser(c)
	if !session.IsCsrfTokenValid(c, deleteUserTokenId, c.PostForm("token")) || current.Id == user.Id {
		session.AddFlash(c, session.FlashWarning, "ERROR : User have not been deleted")
		a.toIndex(c)
		return nil
	}

	uow := middleware.GetUnitOfWork(c)
	repository.NewUserRepository(uow).Remove(user)
	if err := uow.Flush(c.Request.Context()); err != nil {
		return err
	}
	middleware.RecordAudit(c, service.ActionDelete, "user", user.Id, map[string]any{"username": user.Username})
	session.AddFlash(c, session.FlashInfo, "User have been deleted")
	a.toIndex(c)
	return nil
}
