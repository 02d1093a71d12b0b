package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lk2023060901/pocketzot/app/economy/internal/model"
	"github.com/lk2023060901/pocketzot/app/economy/internal/repository"
	"github.com/lk2023060901/pocketzot/pkg/logger"
)

// UserService 用户服务
type UserService struct {
	logger   logger.Logger
	store    repository.Store
	validate *validator.Validate
}

// NewUserService 创建用户服务
func NewUserService(l logger.Logger, store repository.Store) *UserService {
	return &UserService{
		logger:   l.Named("service.user"),
		store:    store,
		validate: validator.New(),
	}
}

// ListUsers 列出全部用户
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.store.ListUsers(ctx)
}

// CreateUser 按 email upsert：已存在时只更新名称，ants 保持不变
func (s *UserService) CreateUser(ctx context.Context, name, email string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return nil, validationError("name must not be blank")
	}
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, validationError("invalid email %q", email)
	}

	u, err := s.store.UpsertUser(ctx, name, email)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user upserted", "uid", u.ID, "email", email)
	return u, nil
}

// GetUser 根据 ID 获取用户
func (s *UserService) GetUser(ctx context.Context, uid int64) (*model.User, error) {
	u, err := s.store.GetUser(ctx, uid)
	if err != nil {
		return nil, mapMissing(err, ErrNotFound, "user %d not found", uid)
	}
	return u, nil
}

// GetUserByEmail 根据 email 获取用户
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.TrimSpace(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return nil, validationError("invalid email %q", email)
	}

	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapMissing(err, ErrNotFound, "user with email %q not found", email)
	}
	return u, nil
}
