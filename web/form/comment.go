package form

import (
	"github.com/mhsanaei/blogpanel/database/model"

	"github.com/gin-gonic/gin"
)

const CommentTokenId = "comment_item"

// CommentForm edits the body only; post and author are set by the handler.
type CommentForm struct {
	form  *Form
	input struct {
		Body string `form:"body" binding:"required,max=10000"`
	}
}

func NewCommentForm(comment *model.Comment) *CommentForm {
	submit := "Create"
	if comment.Id > 0 {
		submit = "Edit"
	}
	return &CommentForm{form: &Form{
		Name:    "comment",
		TokenId: CommentTokenId,
		Submit:  submit,
		Fields: []*Field{
			{Name: "body", Kind: KindTextarea, Label: "Body", Required: true, Value: comment.Body},
		},
	}}
}

func (f *CommentForm) View() *Form { return f.form }

func (f *CommentForm) Bind(c *gin.Context) bool {
	return bind(c, f.form, &f.input)
}

func (f *CommentForm) Apply(comment *model.Comment) error {
	comment.Body = f.input.Body
	return nil
}
