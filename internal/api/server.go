package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/velnlabs/veln-game-server/internal/database"
	"github.com/velnlabs/veln-game-server/internal/repository"
	"github.com/velnlabs/veln-game-server/internal/service"
	"github.com/velnlabs/veln-game-server/internal/telegram"
)

//go:embed game.html
var gamePage []byte

// Server exposes the REST API, the embedded game client and the Telegram
// webhook over a single chi router.
type Server struct {
	addr        string
	log         *slog.Logger
	db          *database.DB
	users       *service.UserService
	points      *service.PointsService
	leaderboard *service.LeaderboardService
	bot         *telegram.Handler
	webhookURL  string
	router      *chi.Mux
}

// NewServer wires the routes. bot may be nil; the webhook endpoints then
// refuse requests instead of failing at startup.
func NewServer(addr string, log *slog.Logger, db *database.DB, users *service.UserService, points *service.PointsService, leaderboard *service.LeaderboardService, bot *telegram.Handler, webhookURL string) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:        addr,
		log:         log,
		db:          db,
		users:       users,
		points:      points,
		leaderboard: leaderboard,
		bot:         bot,
		webhookURL:  webhookURL,
		router:      r,
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		s.writeError(w, http.StatusNotFound, "Endpoint not found")
	})

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)
	r.Get("/game", s.handleGame)
	r.Post("/register", s.handleRegister)
	r.Get("/user/{telegramID}", s.handleGetUser)
	r.Get("/points/{telegramID}", s.handleGetPoints)
	r.Post("/add_points", s.handleAddPoints)
	r.Get("/leaderboard", s.handleLeaderboard)
	r.Post("/webhook", s.handleWebhook)
	r.Post("/set_webhook", s.handleSetWebhook)

	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("api shutdown error", "err", err)
		}
	}()

	s.log.Info("api server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api listen: %w", err)
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"message": "VELN Game API Server",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": map[string]string{
			"GET /":                     "API info",
			"GET /health":               "Health check",
			"GET /game":                 "Game page",
			"POST /register":            "Register a user",
			"GET /user/{telegram_id}":   "Get user info",
			"GET /points/{telegram_id}": "Get point balance",
			"POST /add_points":          "Add points to a user",
			"GET /leaderboard":          "Leaderboard",
		},
		"bot_configured": s.bot != nil,
		"database":       string(s.db.Engine),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.log.Error("health check failed", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"database":  string(s.db.Engine),
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleGame(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(gamePage)
}

type registerRequest struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	user, created, err := s.users.Register(r.Context(), req.TelegramID, req.Username, req.FirstName, req.LastName)
	if err != nil {
		s.serviceError(w, err, "register")
		return
	}

	status := http.StatusOK
	message := "User already exists"
	if created {
		status = http.StatusCreated
		message = "User registered successfully"
	}
	s.writeJSON(w, status, map[string]any{
		"message": message,
		"user":    user,
	})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	telegramID, err := parseTelegramID(chi.URLParam(r, "telegramID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid telegram_id")
		return
	}
	user, err := s.users.Get(r.Context(), telegramID)
	if err != nil {
		s.serviceError(w, err, "get user")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (s *Server) handleGetPoints(w http.ResponseWriter, r *http.Request) {
	telegramID, err := parseTelegramID(chi.URLParam(r, "telegramID"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid telegram_id")
		return
	}
	balance, err := s.points.Balance(r.Context(), telegramID)
	if err != nil {
		s.serviceError(w, err, "get points")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"telegram_id": telegramID,
		"points":      balance,
	})
}

type addPointsRequest struct {
	TelegramID  int64  `json:"telegram_id"`
	Points      int64  `json:"points"`
	Description string `json:"description"`
}

func (s *Server) handleAddPoints(w http.ResponseWriter, r *http.Request) {
	var req addPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Points must be a positive integer")
		return
	}

	balance, err := s.points.Add(r.Context(), req.TelegramID, req.Points, req.Description)
	if err != nil {
		s.serviceError(w, err, "add points")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"message":      "Points added successfully",
		"telegram_id":  req.TelegramID,
		"points_added": req.Points,
		"new_balance":  balance,
	})
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}

	entries, err := s.leaderboard.Top(r.Context(), limit)
	if err != nil {
		s.serviceError(w, err, "leaderboard")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"leaderboard":   entries,
		"total_players": len(entries),
	})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if s.bot == nil {
		s.writeError(w, http.StatusBadRequest, "bot not configured")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid update")
		return
	}

	s.bot.HandleUpdate(r.Context(), update)
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) handleSetWebhook(w http.ResponseWriter, _ *http.Request) {
	if s.bot == nil {
		s.writeError(w, http.StatusBadRequest, "bot not configured")
		return
	}
	if err := s.bot.RegisterWebhook(s.webhookURL); err != nil {
		s.log.Error("set webhook", "err", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"webhook_url": s.webhookURL})
}

// serviceError maps the error taxonomy onto HTTP statuses. Anything outside
// the taxonomy stays generic; the detail goes to the logs only.
func (s *Server) serviceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrUserNotFound):
		s.writeError(w, http.StatusNotFound, "User not found")
	default:
		s.log.Error("api handler error", "op", op, "err", err)
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func parseTelegramID(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}
