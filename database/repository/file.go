package repository

import (
	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
)

type FileRepository struct {
	gormRepository[model.File]
}

func NewFileRepository(uow *database.UnitOfWork) *FileRepository {
	return &FileRepository{newGormRepository[model.File](uow)}
}
