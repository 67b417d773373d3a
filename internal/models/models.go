package models

import "time"

type TransactionKind string

const (
	KindAdd TransactionKind = "add"
)

type User struct {
	ID         int64     `json:"id"`
	TelegramID int64     `json:"telegram_id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	Points     int64     `json:"points"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Transaction is an append-only ledger row recording a single balance change.
type Transaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	Points      int64           `json:"points"`
	Kind        TransactionKind `json:"kind"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	CreatedAt   time.Time       `json:"created_at"`
}

type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	Points     int64  `json:"points"`
}
