package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/web/form"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/service"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

const deleteCommentTokenId = "delete-comment"

// CommentController lets members write comments under posts.
type CommentController struct {
	BaseController
}

func NewCommentController(g *gin.RouterGroup, deps Deps) *CommentController {
	a := &CommentController{BaseController{basePath: deps.BasePath}}
	g = g.Group("/comments")
	g.Use(middleware.RequireLogin(a.loginURL()))
	a.initRouter(g)
	return a
}

func (a *CommentController) initRouter(g *gin.RouterGroup) {
	update := a.action(a.url("posts/"), a.update)
	g.GET("/", a.action(a.url("posts/"), a.list))
	g.GET("/post/:id/update", update)
	g.POST("/post/:id/update", update)
	g.GET("/post/:id/update/:commentId", update)
	g.POST("/post/:id/update/:commentId", update)
	g.POST("/delete/:id/post/:postId", a.action(a.url("posts/"), a.delete))
}

// canWriteComment: authors edit their own comments, moderators any.
func canWriteComment(user *model.User, comment *model.Comment) bool {
	return user != nil && (comment.AuthorId == user.Id || user.IsGranted(model.RoleModerator))
}

func (a *CommentController) list(c *gin.Context) error {
	comments, err := repository.NewCommentRepository(middleware.GetUnitOfWork(c)).FindAll(c.Request.Context())
	if err != nil {
		return err
	}
	html(c, "comment_list.html", "pages.comments.title", gin.H{"comments": comments})
	return nil
}

func (a *CommentController) findPost(c *gin.Context, param string) (*model.Post, error) {
	id, ok := paramId(c, param)
	if !ok {
		return nil, notFound(a.url("posts/"), "There is no post with id %s", c.Param(param))
	}
	post, err := repository.NewPostRepository(middleware.GetUnitOfWork(c)).FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(a.url("posts/"), "There is no post with id %d", id)
	}
	return post, err
}

// update creates a comment under the post, or edits commentId when given.
// Whatever happens the caller lands back on the post.
func (a *CommentController) update(c *gin.Context) error {
	post, err := a.findPost(c, "id")
	if err != nil {
		return err
	}
	showURL := a.url("posts/%d", post.Id)
	uow := middleware.GetUnitOfWork(c)
	comments := repository.NewCommentRepository(uow)
	user := middleware.GetUser(c)

	comment := &model.Comment{}
	if raw := c.Param("commentId"); raw != "" {
		commentId, ok := paramId(c, "commentId")
		if !ok {
			return notFound(showURL, "There is no comment with id %s", raw)
		}
		comment, err = comments.FindByID(c.Request.Context(), commentId)
		if errors.Is(err, repository.ErrNotFound) || (err == nil && comment.PostId != post.Id) {
			return notFound(showURL, "There is no comment with id %d", commentId)
		} else if err != nil {
			return err
		}
		if !canWriteComment(user, comment) {
			c.String(http.StatusUnauthorized, middleware.NoAccessMessage)
			return nil
		}
	}

	f := form.NewCommentForm(comment)
	if !isSubmitted(c) {
		c.Redirect(http.StatusFound, showURL)
		return nil
	}
	if !f.Bind(c) {
		session.AddFlash(c, session.FlashWarning, formErrors(f.View()))
		c.Redirect(http.StatusFound, showURL)
		return nil
	}

	if err := f.Apply(comment); err != nil {
		return err
	}
	created := comment.Id == 0
	if created {
		comment.PostId = post.Id
		comment.AuthorId = user.Id
	}
	comments.Add(comment)
	if err := uow.Flush(c.Request.Context()); err != nil {
		return err
	}

	action := service.ActionUpdate
	if created {
		action = service.ActionCreate
	}
	middleware.RecordAudit(c, action, "comment", comment.Id, map[string]any{"post": post.Id})
	session.AddFlash(c, session.FlashInfo, "Comment update with id "+itoa(comment.Id))
	c.Redirect(http.StatusFound, showURL)
	return nil
}

func (a *CommentController) delete(c *gin.Context) error {
	post, err := a.findPost(c, "postId")
	if err != nil {
		return err
	}
	showURL := a.url("posts/%d", post.Id)
	if !session.IsCsrfTokenValid(c, deleteCommentTokenId, c.PostForm("token")) {
		return csrfInvalid(showURL)
	}

	id, ok := paramId(c, "id")
	if !ok {
		return notFound(showURL, "There is no comment with id %s", c.Param("id"))
	}
	uow := middleware.GetUnitOfWork(c)
	comments := repository.NewCommentRepository(uow)
	comment, err := comments.FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && comment.PostId != post.Id) {
		return notFound(showURL, "There is no comment with id %d", id)
	} else if err != nil {
		return err
	}
	if !canWriteComment(middleware.GetUser(c), comment) {
		c.String(http.StatusUnauthorized, middleware.NoAccessMessage)
		return nil
	}

	comments.Remove(comment)
	if err := uow.Flush(c.Request.Context()); err != nil {
		return err
	}
	middleware.RecordAudit(c, service.ActionDelete, "comment", id, map[string]any{"post": post.Id})
	session.AddFlash(c, session.FlashSuccess, "The comment with id "+itoa(id)+" have been deleted")
	c.Redirect(http.StatusFound, showURL)
	return nil
}

// formErrors joins every error of an invalid form into one flash line.
func formErrors(f *form.Form) string {
	msgs := append([]string{}, f.Errors...)
	for _, field := range f.Fields {
		if field.Error != "" {
			msgs = append(msgs, field.Label+": "+field.Error)
		}
	}
	return strings.Join(msgs, " ")
}
