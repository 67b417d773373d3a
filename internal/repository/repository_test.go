package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/velnlabs/veln-game-server/internal/database"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.OpenSQLite(dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func mustUpsert(t *testing.T, users *UserRepository, telegramID int64, username, firstName, lastName string) {
	t.Helper()
	if _, _, err := users.Upsert(context.Background(), telegramID, username, firstName, lastName); err != nil {
		t.Fatalf("upsert user %d: %v", telegramID, err)
	}
}
