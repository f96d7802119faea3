package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/crypto"
)

var (
	ErrBadCredentials = errors.New("invalid username or password")
	ErrRestricted     = errors.New("account is restricted")
)

type UserService struct{}

// CheckUser resolves login (username or email) and verifies the password.
// Restricted accounts are refused even with the right password.
func (s *UserService) CheckUser(ctx context.Context, uow *database.UnitOfWork, login, password string) (*model.User, error) {
	user, err := repository.NewUserRepository(uow).FindByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrBadCredentials
	} else if err != nil {
		logger.Warning("check user err:", err)
		return nil, err
	}
	if !crypto.CheckPasswordHash(user.Password, password) {
		return nil, ErrBadCredentials
	}
	if user.IsRestricted {
		return nil, ErrRestricted
	}
	return user, nil
}

// GetUser loads a user by id, nil when the id no longer exists.
func (s *UserService) GetUser(ctx context.Context, uow *database.UnitOfWork, id int) (*model.User, error) {
	if id <= 0 {
		return nil, nil
	}
	user, err := repository.NewUserRepository(uow).FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

// CreateUser stages and flushes a new verified user.
func (s *UserService) CreateUser(ctx context.Context, uow *database.UnitOfWork, username, email, password string, role model.Role, locale string) (*model.User, error) {
	if !role.IsValid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Username:   username,
		Email:      email,
		Password:   hash,
		Role:       role,
		Locale:     locale,
		IsVerified: true,
	}
	repository.NewUserRepository(uow).Add(user)
	if err := uow.Flush(ctx); err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("user %q or %q: %w", username, email, repository.ErrDuplicate)
		}
		return nil, err
	}
	return user, nil
}

// ResetPassword replaces the password of the user matching login.
func (s *UserService) ResetPassword(ctx context.Context, uow *database.UnitOfWork, login, password string) error {
	users := repository.NewUserRepository(uow)
	user, err := users.FindByLogin(ctx, login)
	if err != nil {
		return fmt.Errorf("find user %q: %w", login, err)
	}
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	user.Password = hash
	users.Add(user)
	return uow.Flush(ctx)
}
