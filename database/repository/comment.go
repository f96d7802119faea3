package repository

import (
	"context"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
)

type CommentRepository struct {
	gormRepository[model.Comment]
}

func NewCommentRepository(uow *database.UnitOfWork) *CommentRepository {
	return &CommentRepository{newGormRepository[model.Comment](uow, "Post", "Author")}
}

func (r *CommentRepository) FindByPost(ctx context.Context, postId int) ([]model.Comment, error) {
	var comments []model.Comment
	err := r.query(ctx).Where("post_id = ?", postId).Order("id asc").Find(&comments).Error
	return comments, err
}
