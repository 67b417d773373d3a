package service

import (
	"context"
	"fmt"

	"github.com/velnlabs/veln-game-server/internal/models"
	"github.com/velnlabs/veln-game-server/internal/repository"
)

const defaultDescription = "Points added"

// PointsService implements the delta ("add") balance contract: clients report
// point deltas and the balance only ever grows. Absolute-overwrite syncs are
// deliberately not offered; mixing the two contracts under concurrent
// requests corrupts the balance.
type PointsService struct {
	users  *repository.UserRepository
	ledger *repository.LedgerRepository
}

func NewPointsService(users *repository.UserRepository, ledger *repository.LedgerRepository) *PointsService {
	return &PointsService{users: users, ledger: ledger}
}

// Add credits points to the user and records the ledger row. Points must be a
// positive integer.
func (s *PointsService) Add(ctx context.Context, telegramID, points int64, description string) (int64, error) {
	if telegramID == 0 {
		return 0, fmt.Errorf("%w: telegram_id is required", ErrInvalidInput)
	}
	if points <= 0 {
		return 0, fmt.Errorf("%w: points must be a positive integer", ErrInvalidInput)
	}
	if description == "" {
		description = defaultDescription
	}
	balance, err := s.ledger.AddPoints(ctx, telegramID, points, description)
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// Balance returns the current point balance for the telegram id.
func (s *PointsService) Balance(ctx context.Context, telegramID int64) (int64, error) {
	user, err := s.users.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	if user == nil {
		return 0, repository.ErrUserNotFound
	}
	return user.Points, nil
}

// History returns the user's most recent ledger rows.
func (s *PointsService) History(ctx context.Context, telegramID int64, limit int) ([]models.Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.ledger.ListByTelegramID(ctx, telegramID, limit)
}
