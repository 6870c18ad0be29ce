package user

import (
	"context"
	"fmt"

	"github.com/minimalist-todo/api/internal/domain"
	"github.com/minimalist-todo/api/internal/pkg/password"
)

const defaultPageSize = 25

type Service interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
	ChangePassword(ctx context.Context, email, current, next string) error
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, userID string) (*domain.User, error)
	UpdatePassword(ctx context.Context, email, salt, hash string) error
	ScanPage(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error)
}

type service struct {
	users userStore
}

func NewService(users userStore) Service {
	return &service{users: users}
}

func (s *service) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *service) List(ctx context.Context, limit int32, cursor string) ([]domain.User, string, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultPageSize
	}
	return s.users.ScanPage(ctx, limit, cursor)
}

// ChangePassword verifies the current password before storing a new hash.
func (s *service) ChangePassword(ctx context.Context, email, current, next string) error {
	if len(next) < 8 {
		return fmt.Errorf("password must be at least 8 characters long: %w", domain.ErrBadRequest)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !password.Verify(current, u.PasswordSalt, u.PasswordHash) {
		return fmt.Errorf("current password does not match: %w", domain.ErrUnauthorized)
	}

	salt, hash, err := password.Hash(next)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, email, salt, hash)
}
