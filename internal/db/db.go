package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"climate-server/internal/config"

	_ "github.com/mattn/go-sqlite3"
)

// ErrUnavailable marks failures to reach the dataset. The server treats it as fatal.
var ErrUnavailable = errors.New("dataset unavailable")

func Open(cfg config.Config) (*sql.DB, error) {
	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.SQLiteLogQueries {
		// config rejects query logging with any driver other than sqlite3
		db = sql.OpenDB(NewQueryLogConnector(dsn, slog.Default()))
	} else {
		db, err = sql.Open(cfg.SQLiteDriver, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.SQLiteMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: db ping: %w", ErrUnavailable, err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := cfg.SQLitePath
	if path == "" {
		return "", fmt.Errorf("%w: no sqlite path configured", ErrUnavailable)
	}
	plain := strings.TrimPrefix(path, "file:")
	if i := strings.IndexByte(plain, '?'); i >= 0 {
		plain = plain[:i]
	}

	var params []string
	if cfg.SQLiteReadOnly {
		// mode=ro refuses to create the file, so a missing dataset fails the ping
		// instead of silently serving an empty database.
		if _, err := os.Stat(plain); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		params = []string{
			"mode=ro",
			"_query_only=true",
			"_busy_timeout=5000",
		}
	} else {
		dir := filepath.Dir(plain)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
		params = []string{
			"_foreign_keys=on",
			"_busy_timeout=5000",
			"_journal_mode=WAL",
		}
	}

	if strings.HasPrefix(path, "file:") {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + strings.Join(params, "&"), nil
	}
	return fmt.Sprintf("file:%s?%s", path, strings.Join(params, "&")), nil
}
