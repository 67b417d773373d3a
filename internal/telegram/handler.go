package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/velnlabs/veln-game-server/internal/models"
	"github.com/velnlabs/veln-game-server/internal/repository"
	"github.com/velnlabs/veln-game-server/internal/service"
)

// Handler is a thin adapter between Telegram webhook updates and the core
// services. Every command resolves to exactly one service call plus a reply.
type Handler struct {
	api         *tgbotapi.BotAPI
	log         *slog.Logger
	users       *service.UserService
	points      *service.PointsService
	leaderboard *service.LeaderboardService
	gameURL     string
}

func NewHandler(api *tgbotapi.BotAPI, log *slog.Logger, users *service.UserService, points *service.PointsService, leaderboard *service.LeaderboardService, gameURL string) *Handler {
	return &Handler{
		api:         api,
		log:         log,
		users:       users,
		points:      points,
		leaderboard: leaderboard,
		gameURL:     gameURL,
	}
}

// RegisterWebhook tells Telegram to deliver updates to the given URL.
func (h *Handler) RegisterWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("build webhook config: %w", err)
	}
	wh.AllowedUpdates = []string{"message", "callback_query"}
	if _, err := h.api.Request(wh); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

// HandleUpdate dispatches one webhook update. Errors are logged and answered
// with a user-facing apology; they never propagate to the webhook endpoint.
func (h *Handler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.Text != "":
		h.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		h.handleCallback(ctx, update.CallbackQuery)
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		h.sendHTML(msg.Chat.ID, "❓ Неизвестная команда. Используй /help для справки.", nil)
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg.Chat.ID, msg.From)
	case "game":
		h.handleGame(msg.Chat.ID)
	case "stats":
		h.handleStats(ctx, msg.Chat.ID, msg.From)
	case "leaderboard":
		h.handleLeaderboard(ctx, msg.Chat.ID, msg.From)
	case "help":
		h.handleHelp(msg.Chat.ID)
	default:
		h.sendHTML(msg.Chat.ID, "❓ Неизвестная команда. Используй /help для справки.", nil)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := h.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		h.log.Error("callback ack", "err", err)
	}
	if cb.Message == nil {
		return
	}
	switch cb.Data {
	case "leaderboard":
		h.handleLeaderboard(ctx, cb.Message.Chat.ID, cb.From)
	case "stats":
		h.handleStats(ctx, cb.Message.Chat.ID, cb.From)
	}
}

func (h *Handler) handleStart(ctx context.Context, chatID int64, from *tgbotapi.User) {
	name := "Игрок"
	if from != nil {
		if _, _, err := h.users.Register(ctx, from.ID, from.UserName, from.FirstName, from.LastName); err != nil {
			h.log.Error("register from telegram", "err", err)
		}
		if from.FirstName != "" {
			name = from.FirstName
		}
	}

	text := fmt.Sprintf(`🎮 <b>Добро пожаловать в VELN Game!</b>

Привет, %s!

<b>VELN</b> - это увлекательная игра, где ты:
• ⏰ Собираешь поинты каждую секунду
• 🏆 Соревнуешься с другими игроками
• 📈 Поднимаешься в таблице лидеров
• 💰 Накапливаешь Time-Point-VELN COIN

<i>Твой прогресс сохраняется автоматически!</i>

👇 Нажми кнопку ниже, чтобы начать игру:`, name)

	h.sendGameReply(chatID, text)
}

func (h *Handler) handleGame(chatID int64) {
	h.sendGameReply(chatID, "🎯 <b>Запуск VELN Game</b>\n\nНажми кнопку ниже, чтобы открыть игру:")
}

func (h *Handler) handleStats(ctx context.Context, chatID int64, from *tgbotapi.User) {
	if from == nil {
		return
	}
	user, err := h.users.Get(ctx, from.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			h.sendGameReply(chatID, "❌ <b>Статистика недоступна</b>\n\nСначала запусти игру командой /game")
			return
		}
		h.log.Error("stats", "err", err)
		h.sendGameReply(chatID, "❌ <b>Ошибка получения статистики</b>\n\nПопробуй позже или запусти игру заново.")
		return
	}
	h.sendGameReply(chatID, formatStats(user))
}

func (h *Handler) handleLeaderboard(ctx context.Context, chatID int64, from *tgbotapi.User) {
	entries, err := h.leaderboard.Top(ctx, service.DefaultLeaderboardLimit)
	if err != nil {
		h.log.Error("leaderboard", "err", err)
		h.sendGameReply(chatID, "❌ <b>Ошибка загрузки лидеров</b>\n\nПопробуй позже.")
		return
	}
	var viewerID int64
	if from != nil {
		viewerID = from.ID
	}
	h.sendGameReply(chatID, formatLeaderboard(entries, viewerID))
}

func (h *Handler) handleHelp(chatID int64) {
	h.sendGameReply(chatID, `❓ <b>Помощь по VELN Game</b>

<b>Команды бота:</b>
/start - 🎮 Начать игру
/game - 🎯 Открыть игру
/stats - 📊 Твоя статистика
/leaderboard - 🏆 Таблица лидеров
/help - ❓ Эта справка

<b>Как играть:</b>
• Открой игру через кнопку ниже
• Поинты начисляются автоматически
• Соревнуйся с другими игроками
• Прогресс сохраняется навсегда`)
}

func formatStats(user *models.User) string {
	name := user.FirstName
	if name == "" {
		name = "Неизвестно"
	}
	return fmt.Sprintf(`📊 <b>Твоя статистика</b>

👤 <b>Игрок:</b> %s
💰 <b>Поинты:</b> %d
📅 <b>Играешь с:</b> %s

🎮 <b>Продолжай играть и собирай больше поинтов!</b>`,
		name, user.Points, user.CreatedAt.Format("2006-01-02"))
}

func formatLeaderboard(entries []models.LeaderboardEntry, viewerID int64) string {
	if len(entries) == 0 {
		return "🏆 <b>Таблица лидеров пуста</b>\n\nСтань первым! Запусти игру и начни собирать поинты."
	}

	var b strings.Builder
	b.WriteString("🏆 <b>Таблица лидеров</b>\n\n")
	for _, e := range entries {
		emoji := "▫️"
		switch e.Rank {
		case 1:
			emoji = "👑"
		case 2:
			emoji = "🥈"
		case 3:
			emoji = "🥉"
		}
		highlight := ""
		if e.TelegramID == viewerID {
			highlight = "🔸"
		}
		name := e.FirstName
		if name == "" {
			name = e.Username
		}
		if name == "" {
			name = "Player"
		}
		fmt.Fprintf(&b, "%s <b>%d.</b> %s%s - %d поинтов\n", emoji, e.Rank, highlight, name, e.Points)
	}
	b.WriteString("\n🎮 <b>Играй и поднимайся выше!</b>")
	return b.String()
}

func (h *Handler) sendGameReply(chatID int64, text string) {
	keyboard := h.gameKeyboard()
	h.sendHTML(chatID, text, &keyboard)
}

func (h *Handler) gameKeyboard() tgbotapi.InlineKeyboardMarkup {
	play := tgbotapi.NewInlineKeyboardButtonURL("🎮 ИГРАТЬ В VELN", h.gameURL)
	leaders := tgbotapi.NewInlineKeyboardButtonData("🏆 Лидеры", "leaderboard")
	stats := tgbotapi.NewInlineKeyboardButtonData("📊 Статистика", "stats")
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(play),
		tgbotapi.NewInlineKeyboardRow(leaders, stats),
	)
}

func (h *Handler) sendHTML(chatID int64, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if keyboard != nil {
		msg.ReplyMarkup = *keyboard
	}
	if _, err := h.api.Send(msg); err != nil {
		h.log.Error("send message", "err", err)
	}
}
