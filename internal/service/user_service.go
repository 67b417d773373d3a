package service

import (
	"context"
	"fmt"

	"github.com/velnlabs/veln-game-server/internal/models"
	"github.com/velnlabs/veln-game-server/internal/repository"
)

type UserService struct {
	users *repository.UserRepository
}

func NewUserService(users *repository.UserRepository) *UserService {
	return &UserService{users: users}
}

// Register upserts the user keyed on telegram id. The returned flag reports
// whether a new row was created.
func (s *UserService) Register(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, bool, error) {
	if telegramID == 0 {
		return nil, false, fmt.Errorf("%w: telegram_id is required", ErrInvalidInput)
	}
	user, created, err := s.users.Upsert(ctx, telegramID, username, firstName, lastName)
	if err != nil {
		return nil, false, fmt.Errorf("register user: %w", err)
	}
	return user, created, nil
}

func (s *UserService) Get(ctx context.Context, telegramID int64) (*models.User, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}
