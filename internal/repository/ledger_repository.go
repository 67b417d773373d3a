package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/velnlabs/veln-game-server/internal/database"
	"github.com/velnlabs/veln-game-server/internal/models"
)

// LedgerRepository owns the balance column and the append-only transactions
// relation. Balances are never written outside of it.
type LedgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// AddPoints atomically increments the user's balance and appends the matching
// ledger row in one database transaction. The increment is done in place
// (points = points + ?), so concurrent adds cannot lose updates. Returns the
// post-increment balance, or ErrUserNotFound when the telegram id is
// unregistered.
func (r *LedgerRepository) AddPoints(ctx context.Context, telegramID, points int64, description string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
UPDATE users SET points = points + ?, updated_at = CURRENT_TIMESTAMP
WHERE telegram_id = ?`, points, telegramID)
	if err != nil {
		return 0, fmt.Errorf("update balance: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("balance rows affected: %w", err)
	}
	if affected == 0 {
		return 0, ErrUserNotFound
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO transactions (user_id, points, kind, description, reference)
SELECT id, ?, ?, ?, ? FROM users WHERE telegram_id = ?`,
		points, models.KindAdd, description, uuid.NewString(), telegramID); err != nil {
		return 0, fmt.Errorf("insert transaction: %w", err)
	}

	var balance int64
	if err := tx.QueryRowContext(ctx, `SELECT points FROM users WHERE telegram_id = ?`, telegramID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add points: %w", err)
	}
	return balance, nil
}

// ListByTelegramID returns the user's ledger rows, newest first.
func (r *LedgerRepository) ListByTelegramID(ctx context.Context, telegramID int64, limit int) ([]models.Transaction, error) {
	const query = `
SELECT t.id, t.user_id, t.points, t.kind, COALESCE(t.description, ''), t.reference, t.created_at
FROM transactions t
JOIN users u ON u.id = t.user_id
WHERE u.telegram_id = ?
ORDER BY t.id DESC
LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, telegramID, limit)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.UserID, &t.Points, &t.Kind, &t.Description, &t.Reference, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}
