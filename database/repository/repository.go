package repository

import (
	"context"

	"github.com/mhsanaei/blogpanel/database"

	"gorm.io/gorm"
)

// Repository is the find/add/remove contract shared by every entity.
// Add and Remove only stage work; UnitOfWork.Flush applies it.
type Repository[T any] interface {
	FindByID(ctx context.Context, id int) (*T, error)
	FindAll(ctx context.Context) ([]T, error)
	Count(ctx context.Context) (int64, error)
	Add(entity *T)
	Remove(entity *T)
}

type gormRepository[T any] struct {
	uow      *database.UnitOfWork
	preloads []string
}

func newGormRepository[T any](uow *database.UnitOfWork, preloads ...string) gormRepository[T] {
	return gormRepository[T]{uow: uow, preloads: preloads}
}

func (r gormRepository[T]) query(ctx context.Context) *gorm.DB {
	db := r.uow.DB(ctx)
	for _, p := range r.preloads {
		db = db.Preload(p)
	}
	return db
}

func (r gormRepository[T]) FindByID(ctx context.Context, id int) (*T, error) {
	entity := new(T)
	if err := r.query(ctx).First(entity, id).Error; err != nil {
		return nil, translate(err)
	}
	return entity, nil
}

func (r gormRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	var entities []T
	if err := r.query(ctx).Order("id asc").Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

func (r gormRepository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.uow.DB(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

func (r gormRepository[T]) Add(entity *T) {
	r.uow.Save(entity)
}

func (r gormRepository[T]) Remove(entity *T) {
	r.uow.Delete(entity)
}
