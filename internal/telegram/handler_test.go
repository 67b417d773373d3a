package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/velnlabs/veln-game-server/internal/models"
)

func TestFormatLeaderboardEmpty(t *testing.T) {
	text := formatLeaderboard(nil, 42)
	if !strings.Contains(text, "Таблица лидеров пуста") {
		t.Errorf("empty leaderboard text = %q", text)
	}
}

func TestFormatLeaderboard(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{Rank: 1, TelegramID: 1, FirstName: "Ann", Points: 50},
		{Rank: 2, TelegramID: 2, Username: "bob", Points: 20},
		{Rank: 3, TelegramID: 3, Points: 10},
		{Rank: 4, TelegramID: 4, FirstName: "Dan", Points: 5},
	}
	text := formatLeaderboard(entries, 2)

	for _, want := range []string{"👑", "🥈", "🥉", "▫️", "Ann", "bob", "Player", "Dan"} {
		if !strings.Contains(text, want) {
			t.Errorf("leaderboard text missing %q:\n%s", want, text)
		}
	}
	// The viewer's own row is highlighted.
	if !strings.Contains(text, "🔸bob") {
		t.Errorf("viewer highlight missing:\n%s", text)
	}
}

func TestFormatStats(t *testing.T) {
	user := &models.User{
		FirstName: "Ann",
		Points:    1234,
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	text := formatStats(user)
	for _, want := range []string{"Ann", "1234", "2024-03-01"} {
		if !strings.Contains(text, want) {
			t.Errorf("stats text missing %q:\n%s", want, text)
		}
	}

	text = formatStats(&models.User{})
	if !strings.Contains(text, "Неизвестно") {
		t.Errorf("fallback name missing:\n%s", text)
	}
}
