package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	"github.com/velnlabs/veln-game-server/internal/config"
)

// Engine identifies the storage engine the process runs against. It is
// selected once at startup; repositories pick their engine-specific SQL from
// it instead of branching per query.
type Engine string

const (
	EngineMySQL  Engine = "mysql"
	EngineSQLite Engine = "sqlite"
)

// DB wraps the connection pool together with the engine it talks to.
type DB struct {
	*sql.DB
	Engine Engine
}

// Connect returns a usable database handle. When a MySQL DSN is configured it
// is tried first with TLS required; on failure the embedded SQLite file is
// used instead, so the service stays up without the server engine.
func Connect(cfg config.Config, log *slog.Logger) (*DB, error) {
	if cfg.MySQLDSN != "" {
		db, err := connectMySQL(cfg.MySQLDSN)
		if err == nil {
			log.Info("connected to mysql")
			return db, nil
		}
		log.Error("mysql connect failed, falling back to sqlite", "err", err)
	}

	db, err := OpenSQLite(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.SQLitePath, err)
	}
	log.Info("connected to sqlite", "path", cfg.SQLitePath)
	return db, nil
}

func connectMySQL(dsn string) (*DB, error) {
	dsn, err := normalizeDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetConnMaxLifetime(time.Minute * 5)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return &DB{DB: db, Engine: EngineMySQL}, nil
}

// normalizeDSN forces encryption on the server-engine connection unless the
// DSN already pins a TLS profile, and enables parseTime so TIMESTAMP columns
// scan into time.Time.
func normalizeDSN(dsn string) (string, error) {
	parsed, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if parsed.TLSConfig == "" {
		parsed.TLSConfig = "true"
	}
	parsed.ParseTime = true
	return parsed.FormatDSN(), nil
}

// OpenSQLite opens the embedded engine file. Accepts either a plain file path
// or a full DSN (used by tests for in-memory databases).
func OpenSQLite(path string) (*DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") && !strings.Contains(dsn, ":memory:") {
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", dsn)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &DB{DB: db, Engine: EngineSQLite}, nil
}

// Migrate runs the bootstrap schema to ensure required tables exist.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range db.Engine.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
