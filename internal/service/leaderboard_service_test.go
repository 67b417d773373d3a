package service

import (
	"context"
	"testing"

	"github.com/velnlabs/veln-game-server/internal/repository"
)

func TestClampLimit(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{0, DefaultLeaderboardLimit},
		{-1, DefaultLeaderboardLimit},
		{1, 1},
		{10, 10},
		{100, 100},
		{101, MaxLeaderboardLimit},
		{500, MaxLeaderboardLimit},
	}
	for _, c := range cases {
		if got := ClampLimit(c.in); got != c.want {
			t.Errorf("ClampLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTopUsesClampedLimit(t *testing.T) {
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	ledger := repository.NewLedgerRepository(db)
	board := NewLeaderboardService(repository.NewLeaderboardRepository(db))
	ctx := context.Background()

	for i := int64(1); i <= 15; i++ {
		if _, _, err := users.Upsert(ctx, i, "", "Player", ""); err != nil {
			t.Fatalf("seed user %d: %v", i, err)
		}
		if _, err := ledger.AddPoints(ctx, i, i, ""); err != nil {
			t.Fatalf("seed points %d: %v", i, err)
		}
	}

	// limit 0 falls back to the default size, not an error.
	entries, err := board.Top(ctx, 0)
	if err != nil {
		t.Fatalf("top default: %v", err)
	}
	if len(entries) != DefaultLeaderboardLimit {
		t.Errorf("default limit returned %d entries, want %d", len(entries), DefaultLeaderboardLimit)
	}

	entries, err = board.Top(ctx, 500)
	if err != nil {
		t.Fatalf("top clamped: %v", err)
	}
	if len(entries) != 15 {
		t.Errorf("clamped limit returned %d entries, want all 15", len(entries))
	}
}
