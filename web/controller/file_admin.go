package controller

import (
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

const deleteFileTokenId = "delete-file"

// FileAdminController manages site files under /admin/file.
type FileAdminController struct {
	BaseController

	formOptions form.Options
	fileService *service.FileService
}

func NewFileAdminController(g *gin.RouterGroup, deps Deps) *FileAdminController {
	a := &FileAdminController{
		BaseController: BaseController{basePath: deps.BasePath},
		formOptions:    deps.FormOptions,
		fileService:    deps.FileService,
	}
	a.initRouter(g.Group("/file"))
	return a
}

func (a *FileAdminController) initRouter(g *gin.RouterGroup) {
	index := a.indexURL()
	g.GET("/", a.action(a.url("admin/"), a.index))
	g.GET("/new", a.action(index, a.upload))
	g.POST("/new", a.action(index, a.upload))
	for _, mode := range []form.FileMode{form.FileEdition, form.FileEditName, form.FileEditPrivate} {
		path := "/:id/" + string(mode)
		if mode == form.FileEdition {
			path = "/:id/edit"
		}
		g.GET(path, a.action(index, a.edit(mode)))
		g.POST(path, a.action(index, a.edit(mode)))
	}
	g.POST("/:id/delete", a.action(index, a.delete))
}

func (a *FileAdminController) indexURL() string {
	return a.url("admin/file/")
}

func (a *FileAdminController) findFile(c *gin.Context) (*model.File, error) {
	id, ok := paramId(c, "id")
	if !ok {
		return nil, notFound(a.indexURL(), "There is no file with id %s", c.Param("id"))
	}
	file, err := repository.NewFileRepository(middleware.GetUnitOfWork(c)).FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(a.indexURL(), "There is no file with id %d", id)
	}
	return file, err
}

func (a *FileAdminController) index(c *gin.Context) error {
	files, err := repository.NewFileRepository(middleware.GetUnitOfWork(c)).FindAll(c.Request.Context())
	if err != nil {
		return err
	}
	html(c, "file_list.html", "pages.files.title", gin.H{
		"files":        files,
		"delete_token": session.CsrfToken(c, deleteFileTokenId),
	})
	return nil
}

func (a *FileAdminController) upload(c *gin.Context) error {
	f := form.NewFileUploadForm()
	view := f.View()
	view.PrepareToken(c)

	if isSubmitted(c) && f.Bind(c) {
		file := &model.File{}
		if err := f.Apply(file); err != nil {
			return err
		}
		if err := a.fileService.Upload(c.Request.Context(), middleware.GetUnitOfWork(c), file, f.Upload()); err != nil {
			return err
		}
		middleware.RecordAudit(c, service.ActionCreate, "file", file.Id, map[string]any{"name": file.Name, "size": file.Size})
		session.AddFlash(c, session.FlashInfo, "File uploaded with id "+itoa(file.Id))
		c.Redirect(http.StatusFound, a.indexURL())
		return nil
	}
	html(c, "file_upload.html", "pages.files.upload", gin.H{"form": view})
	return nil
}

// edit serves one partial edit mode; fields outside the mode are kept.
func (a *FileAdminController) edit(mode form.FileMode) actionFunc {
	return func(c *gin.Context) error {
		file, err := a.findFile(c)
		if err != nil {
			return err
		}
		f := form.NewFileForm(mode, file, a.formOptions)
		view := f.View()
		view.PrepareToken(c)

		if isSubmitted(c) && f.Bind(c) {
			if err := f.Apply(file); err != nil {
				return err
			}
			uow := middleware.GetUnitOfWork(c)
			repository.NewFileRepository(uow).Add(file)
			if err := uow.Flush(c.Request.Context()); err != nil {
				return err
			}
			middleware.RecordAudit(c, service.ActionUpdate, "file", file.Id, map[string]any{"mode": string(mode)})
			session.AddFlash(c, session.FlashInfo, "File "+itoa(file.Id)+" updated")
			c.Redirect(http.StatusFound, a.indexURL())
			return nil
		}
		html(c, "file_edit.html", "pages.files.edit", gin.H{
			"file": file,
			"form": view,
			"mode": string(mode),
		})
		return nil
	}
}

func (a *FileAdminController) delete(c *gin.Context) error {
	if !session.IsCsrfTokenValid(c, deleteFileTokenId, c.PostForm("token")) {
		return csrfInvalid(a.indexURL())
	}
	file, err := a.findFile(c)
	if err != nil {
		return err
	}
	if err := a.fileService.Remove(c.Request.Context(), middleware.GetUnitOfWork(c), file); err != nil {
		return err
	}
	middleware.RecordAudit(c, service.ActionDelete, "file", file.Id, map[string]any{"name": file.Name})
	session.AddFlash(c, session.FlashInfo, "File have been deleted")
	c.Redirect(http.StatusFound, a.indexURL())
	return nil
}
