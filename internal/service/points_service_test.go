package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/velnlabs/veln-game-server/internal/database"
	"github.com/velnlabs/veln-game-server/internal/repository"
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

func newPointsService(t *testing.T) (*UserService, *PointsService) {
	t.Helper()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	ledger := repository.NewLedgerRepository(db)
	return NewUserService(users), NewPointsService(users, ledger)
}

func TestAddRejectsNonPositivePoints(t *testing.T) {
	userSvc, pointsSvc := newPointsService(t)
	ctx := context.Background()

	if _, _, err := userSvc.Register(ctx, 42, "ann", "Ann", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	for _, points := range []int64{0, -5} {
		if _, err := pointsSvc.Add(ctx, 42, points, ""); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Add(42, %d) err = %v, want ErrInvalidInput", points, err)
		}
	}

	balance, err := pointsSvc.Balance(ctx, 42)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Errorf("rejected adds changed balance to %d, want 0", balance)
	}
	txs, err := pointsSvc.History(ctx, 42, 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(txs) != 0 {
		t.Errorf("rejected adds produced %d ledger rows, want 0", len(txs))
	}
}

func TestAddRequiresTelegramID(t *testing.T) {
	_, pointsSvc := newPointsService(t)

	if _, err := pointsSvc.Add(context.Background(), 0, 5, ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}

func TestAddUnregisteredUser(t *testing.T) {
	_, pointsSvc := newPointsService(t)

	if _, err := pointsSvc.Add(context.Background(), 999, 5, ""); !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestRegisterRequiresTelegramID(t *testing.T) {
	userSvc, _ := newPointsService(t)

	if _, _, err := userSvc.Register(context.Background(), 0, "", "", ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
}
