package repository

import (
	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
)

type PostRepository struct {
	gormRepository[model.Post]
}

func NewPostRepository(uow *database.UnitOfWork) *PostRepository {
	return &PostRepository{newGormRepository[model.Post](uow)}
}
