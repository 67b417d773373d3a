package repository

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/velnlabs/veln-game-server/internal/models"
)

func TestAddPointsAccumulates(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ledger := NewLedgerRepository(db)
	ctx := context.Background()

	mustUpsert(t, users, 42, "ann", "Ann", "")

	balance, err := ledger.AddPoints(ctx, 42, 3, "first")
	if err != nil {
		t.Fatalf("add 3: %v", err)
	}
	if balance != 3 {
		t.Errorf("balance after first add = %d, want 3", balance)
	}

	balance, err = ledger.AddPoints(ctx, 42, 4, "second")
	if err != nil {
		t.Fatalf("add 4: %v", err)
	}
	if balance != 7 {
		t.Errorf("balance after second add = %d, want 7", balance)
	}

	txs, err := ledger.ListByTelegramID(ctx, 42, 10)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != 2 {
		t.Fatalf("got %d ledger rows, want 2", len(txs))
	}
	for _, tx := range txs {
		if tx.Kind != models.KindAdd {
			t.Errorf("transaction kind = %q, want %q", tx.Kind, models.KindAdd)
		}
		if tx.Reference == "" {
			t.Error("transaction reference is empty")
		}
	}
	if txs[0].Description != "second" {
		t.Errorf("newest-first ordering broken: %q", txs[0].Description)
	}
}

func TestAddPointsUnknownUser(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerRepository(db)

	_, err := ledger.AddPoints(context.Background(), 999, 5, "test")
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM transactions`).Scan(&count); err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if count != 0 {
		t.Errorf("failed add left %d ledger rows, want 0", count)
	}
}

func TestAddPointsConcurrent(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepository(db)
	ledger := NewLedgerRepository(db)
	ctx := context.Background()

	mustUpsert(t, users, 42, "ann", "Ann", "")

	const callers = 100
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := ledger.AddPoints(ctx, 42, 1, "tick"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent add: %v", err)
	}

	user, err := users.FindByTelegramID(ctx, 42)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if user.Points != callers {
		t.Errorf("final balance = %d, want %d (lost updates)", user.Points, callers)
	}

	txs, err := ledger.ListByTelegramID(ctx, 42, callers+1)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(txs) != callers {
		t.Errorf("got %d ledger rows, want %d", len(txs), callers)
	}
}
