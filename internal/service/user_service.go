package service

import (
	"context"

	"github.com/Marga-Ghale/ora-projects-backend/internal/repository"
)

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	List(ctx context.Context) ([]*repository.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) List(ctx context.Context) ([]*repository.User, error) {
	return s.userRepo.FindAll(ctx)
}
