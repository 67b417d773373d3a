package repository

import (
	"context"
	"fmt"

	"github.com/velnlabs/veln-game-server/internal/database"
	"github.com/velnlabs/veln-game-server/internal/models"
)

type LeaderboardRepository struct {
	db *database.DB
}

func NewLeaderboardRepository(db *database.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// Top returns up to limit users with a positive balance, richest first.
// Ties are broken by registration time (earliest wins), then row id, so the
// order never depends on incidental storage-engine ordering. Rank is the
// 1-based position in the returned sequence.
func (r *LeaderboardRepository) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	const query = `
SELECT telegram_id, COALESCE(username, ''), COALESCE(first_name, ''), points
FROM users
WHERE points > 0
ORDER BY points DESC, created_at ASC, id ASC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.TelegramID, &e.Username, &e.FirstName, &e.Points); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		e.Rank = len(entries) + 1
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
