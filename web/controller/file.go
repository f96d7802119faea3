package controller

import (
	"errors"
	"mime"
	"net/http"

	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/storage"

	"github.com/gin-gonic/gin"
)

// FileController serves file downloads to whoever may see them.
type FileController struct {
	BaseController

	fileService *service.FileService
}

func NewFileController(g *gin.RouterGroup, deps Deps) *FileController {
	a := &FileController{
		BaseController: BaseController{basePath: deps.BasePath},
		fileService:    deps.FileService,
	}
	g.GET("/files/:id", a.download)
	return a
}

// download answers 404 alike for missing and hidden files.
func (a *FileController) download(c *gin.Context) {
	id, ok := paramId(c, "id")
	if !ok {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	file, err := repository.NewFileRepository(middleware.GetUnitOfWork(c)).FindByID(c.Request.Context(), id)
	if err != nil || !file.VisibleTo(middleware.GetUser(c)) {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.Warning("load file:", err)
		}
		c.String(http.StatusNotFound, "File not found")
		return
	}

	rc, err := a.fileService.Open(c.Request.Context(), file)
	if err != nil {
		if !errors.Is(err, storage.ErrObjectNotFound) {
			logger.Warningf("open blob of file %d: %v", file.Id, err)
		}
		c.String(http.StatusNotFound, "File not found")
		return
	}
	defer rc.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": file.Name})
	c.DataFromReader(http.StatusOK, file.Size, file.ContentType, rc, map[string]string{
		"Content-Disposition": disposition,
	})
}
