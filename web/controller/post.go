package controller

import (
	"errors"

	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/web/form"
	"github.com/mhsanaei/blogpanel/web/middleware"
	"github.com/mhsanaei/blogpanel/web/session"

	"github.com/gin-gonic/gin"
)

// PostController shows posts and their comments. Posts are read only.
type PostController struct {
	BaseController
}

func NewPostController(g *gin.RouterGroup, deps Deps) *PostController {
	a := &PostController{BaseController{basePath: deps.BasePath}}
	a.initRouter(g.Group("/posts"))
	return a
}

func (a *PostController) initRouter(g *gin.RouterGroup) {
	g.GET("/", a.action(a.url(""), a.list))
	g.GET("/:id", a.action(a.url("posts/"), a.show))
}

func (a *PostController) list(c *gin.Context) error {
	posts, err := repository.NewPostRepository(middleware.GetUnitOfWork(c)).FindAll(c.Request.Context())
	if err != nil {
		return err
	}
	html(c, "post_list.html", "pages.posts.title", gin.H{"posts": posts})
	return nil
}

// commentView pairs a comment with its own edit form.
type commentView struct {
	Comment  model.Comment
	Form     *form.Form
	CanWrite bool
}

func (a *PostController) show(c *gin.Context) error {
	id, ok := paramId(c, "id")
	if !ok {
		return notFound(a.url("posts/"), "There is no post with id %s", c.Param("id"))
	}
	uow := middleware.GetUnitOfWork(c)
	post, err := repository.NewPostRepository(uow).FindByID(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(a.url("posts/"), "There is no post with id %d", id)
	} else if err != nil {
		return err
	}
	comments, err := repository.NewCommentRepository(uow).FindByPost(c.Request.Context(), id)
	if err != nil {
		return err
	}

	user := middleware.GetUser(c)
	data := gin.H{"post": post}
	if user != nil {
		views := make([]commentView, 0, len(comments))
		for i := range comments {
			f := form.NewCommentForm(&comments[i]).View()
			f.PrepareToken(c)
			views = append(views, commentView{
				Comment:  comments[i],
				Form:     f,
				CanWrite: canWriteComment(user, &comments[i]),
			})
		}
		newForm := form.NewCommentForm(&model.Comment{}).View()
		newForm.PrepareToken(c)
		data["comments"] = views
		data["comment_form"] = newForm
		data["delete_token"] = session.CsrfToken(c, deleteCommentTokenId)
	} else {
		views := make([]commentView, 0, len(comments))
		for _, cm := range comments {
			views = append(views, commentView{Comment: cm})
		}
		data["comments"] = views
	}
	html(c, "post_show.html", "pages.posts.show", data)
	return nil
}
