package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/velnlabs/veln-game-server/internal/api"
	"github.com/velnlabs/veln-game-server/internal/config"
	"github.com/velnlabs/veln-game-server/internal/database"
	"github.com/velnlabs/veln-game-server/internal/repository"
	"github.com/velnlabs/veln-game-server/internal/service"
	"github.com/velnlabs/veln-game-server/internal/telegram"
	"github.com/velnlabs/veln-game-server/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg, logr)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	leaderboardRepo := repository.NewLeaderboardRepository(db)

	userService := service.NewUserService(userRepo)
	pointsService := service.NewPointsService(userRepo, ledgerRepo)
	leaderboardService := service.NewLeaderboardService(leaderboardRepo)

	var bot *telegram.Handler
	if cfg.BotToken != "" {
		botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
		if err != nil {
			log.Fatalf("telegram bot: %v", err)
		}
		bot = telegram.NewHandler(botAPI, logr, userService, pointsService, leaderboardService, cfg.GameURL())
		if err := bot.RegisterWebhook(cfg.WebhookURL()); err != nil {
			logr.Error("register webhook", "err", err)
		}
	} else {
		logr.Warn("TELEGRAM_BOT_TOKEN not set, webhook endpoints disabled")
	}

	server := api.NewServer(cfg.ListenAddr, logr, db, userService, pointsService, leaderboardService, bot, cfg.WebhookURL())
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("api server stopped", "err", err)
	}
}
