package service

import (
	"context"
	"fmt"

	"github.com/raffle-hub/raffle-api/internal/domain"
)

type UserRepository interface {
	FindByID(ctx context.Context, id string) (domain.User, error)
	FindAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, update domain.UserUpdate) (domain.User, error)
	Delete(ctx context.Context, id string) error
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
	}
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) GetUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return users, nil
}

// UpdateUser changes the account of id. Only the account owner may do it.
func (s *UserService) UpdateUser(ctx context.Context, actor domain.User, id string, update domain.UserUpdate) (domain.User, error) {
	if actor.ID != id {
		return domain.User{}, ErrPermissionDenied
	}

	if update.Password != nil {
		hashed, err := hashPassword(*update.Password)
		if err != nil {
			return domain.User{}, err
		}
		update.Password = &hashed
	}

	user, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, actor domain.User, id string) error {
	if actor.ID != id {
		return ErrPermissionDenied
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("s.repo.Delete -> %w", err)
	}

	return nil
}
