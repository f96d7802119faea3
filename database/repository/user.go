package repository

import (
	"context"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
)

type UserRepository struct {
	gormRepository[model.User]
}

func NewUserRepository(uow *database.UnitOfWork) *UserRepository {
	return &UserRepository{newGormRepository[model.User](uow)}
}

// FindByLogin matches either the username or the email.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*model.User, error) {
	user := &model.User{}
	err := r.uow.DB(ctx).Where("username = ? OR email = ?", login, login).First(user).Error
	if err != nil {
		return nil, translate(err)
	}
	return user, nil
}

// Taken reports whether another user than exceptId already uses column=value.
func (r *UserRepository) Taken(ctx context.Context, column, value string, exceptId int) (bool, error) {
	var n int64
	q := r.uow.DB(ctx).Model(&model.User{}).Where(column+" = ?", value)
	if exceptId > 0 {
		q = q.Where("id <> ?", exceptId)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}
