package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/velnlabs/veln-game-server/internal/database"
	"github.com/velnlabs/veln-game-server/internal/models"
)

// ErrUserNotFound is returned when no row matches the given telegram id.
var ErrUserNotFound = errors.New("user not found")

type UserRepository struct {
	db     *database.DB
	upsert string
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{
		db:     db,
		upsert: db.Engine.UpsertUserQuery(),
	}
}

func (r *UserRepository) DB() *database.DB {
	return r.db
}

func (r *UserRepository) FindByTelegramID(ctx context.Context, telegramID int64) (*models.User, error) {
	const query = `
SELECT id, telegram_id, COALESCE(username, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), points, created_at, updated_at
FROM users WHERE telegram_id = ?`
	row := r.db.QueryRowContext(ctx, query, telegramID)
	var u models.User
	if err := row.Scan(&u.ID, &u.TelegramID, &u.Username, &u.FirstName, &u.LastName, &u.Points, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Upsert registers a user keyed on telegram_id. On repeat registration only
// the display fields and updated_at change; points are never touched. The
// statement is a single engine-native upsert, so two simultaneous first
// registrations of the same id cannot produce duplicate rows. The created
// flag is advisory: it is derived from a lookup before the upsert and only
// affects the HTTP status the caller reports.
func (r *UserRepository) Upsert(ctx context.Context, telegramID int64, username, firstName, lastName string) (*models.User, bool, error) {
	existing, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}

	if _, err := r.db.ExecContext(ctx, r.upsert, telegramID, username, firstName, lastName); err != nil {
		return nil, false, fmt.Errorf("upsert user: %w", err)
	}

	user, err := r.FindByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, false, err
	}
	if user == nil {
		return nil, false, fmt.Errorf("upsert user: row missing after insert")
	}
	return user, existing == nil, nil
}

func (r *UserRepository) ListTelegramIDs(ctx context.Context) ([]int64, error) {
	const query = `SELECT telegram_id FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list telegram ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan telegram id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
