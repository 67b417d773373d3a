package service

import (
	"context"
	"fmt"

	"github.com/velnlabs/veln-game-server/internal/models"
	"github.com/velnlabs/veln-game-server/internal/repository"
)

const (
	// DefaultLeaderboardLimit is used when the caller passes no usable limit.
	DefaultLeaderboardLimit = 10
	// MaxLeaderboardLimit caps how many rows a single request may fetch.
	MaxLeaderboardLimit = 100
)

type LeaderboardService struct {
	leaderboard *repository.LeaderboardRepository
}

func NewLeaderboardService(leaderboard *repository.LeaderboardRepository) *LeaderboardService {
	return &LeaderboardService{leaderboard: leaderboard}
}

// Top returns the ranked leaderboard. Out-of-range limits are not an error:
// anything below 1 falls back to the default, anything above the cap is
// clamped to it.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	limit = ClampLimit(limit)
	entries, err := s.leaderboard.Top(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return entries, nil
}

// ClampLimit normalizes a requested leaderboard size into [1, MaxLeaderboardLimit].
func ClampLimit(limit int) int {
	switch {
	case limit < 1:
		return DefaultLeaderboardLimit
	case limit > MaxLeaderboardLimit:
		return MaxLeaderboardLimit
	default:
		return limit
	}
}
