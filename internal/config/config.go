package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DataSourceSQLite = "sqlite"
	DataSourceMemory = "memory"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// DataSource selects how the dataset is queried: straight from SQLite, or from an
	// in-memory snapshot loaded from SQLite once at startup.
	DataSource string

	SQLiteDriver          string
	SQLiteDSN             string
	SQLitePath            string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogQueries      bool
	// SQLiteReadOnly is not read from the environment. The server always opens the
	// dataset read-only; the tooling binary flips it to migrate and seed.
	SQLiteReadOnly bool

	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration
}

// source resolves a key from the process environment first, then the dotenv file,
// then the YAML config file. Blank values count as unset.
type source struct {
	dotenv map[string]string
	file   map[string]string
}

func (s source) get(key string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	if v := strings.TrimSpace(s.dotenv[key]); v != "" {
		return v
	}
	return strings.TrimSpace(s.file[key])
}

func LoadFromEnv() (Config, error) {
	src, err := newSource()
	if err != nil {
		return Config{}, err
	}

	appEnv := src.get("APP_ENV")
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := src.get("LOG_LEVEL")
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := src.get("HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	dataSource := strings.ToLower(src.get("DATA_SOURCE"))
	if dataSource == "" {
		dataSource = DataSourceSQLite
	}
	switch dataSource {
	case DataSourceSQLite, DataSourceMemory:
	default:
		return Config{}, fmt.Errorf("invalid DATA_SOURCE %q (allowed: sqlite, memory)", dataSource)
	}

	driver := src.get("SQLITE_DRIVER")
	if driver == "" {
		driver = "sqlite3"
	}
	path := src.get("SQLITE_PATH")
	if path == "" {
		path = "hawaii.sqlite"
	}

	maxOpenConns, err := intValue(src, "SQLITE_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intValue(src, "SQLITE_MAX_IDLE_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := durationValue(src, "SQLITE_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logQueries, err := boolValue(src, "SQLITE_LOG_QUERIES", false)
	if err != nil {
		return Config{}, err
	}
	// the query log wraps the mattn driver directly, so it cannot honor another driver name
	if logQueries && driver != "sqlite3" {
		return Config{}, fmt.Errorf("invalid SQLITE_LOG_QUERIES: requires SQLITE_DRIVER=sqlite3, got %q", driver)
	}
	shutdownTimeout, err := durationValue(src, "SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return Config{}, err
	}
	if shutdownTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q: must be > 0", src.get("SHUTDOWN_TIMEOUT"))
	}

	return Config{
		AppEnv:                appEnv,
		LogLevel:              level,
		HTTPAddr:              httpAddr,
		DataSource:            dataSource,
		SQLiteDriver:          driver,
		SQLiteDSN:             src.get("SQLITE_DSN"),
		SQLitePath:            path,
		SQLiteMaxOpenConns:    maxOpenConns,
		SQLiteMaxIdleConns:    maxIdleConns,
		SQLiteConnMaxLifetime: connMaxLifetime,
		SQLiteLogQueries:      logQueries,
		SQLiteReadOnly:        true,
		CORSAllowedOrigins:    splitList(src.get("CORS_ALLOWED_ORIGINS"), "*"),
		ShutdownTimeout:       shutdownTimeout,
	}, nil
}

func newSource() (source, error) {
	var src source

	dotenvPath := strings.TrimSpace(os.Getenv("DOTENV_FILE"))
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	values, err := godotenv.Read(dotenvPath)
	switch {
	case err == nil:
		src.dotenv = values
	case errors.Is(err, fs.ErrNotExist):
	default:
		return source{}, fmt.Errorf("read dotenv %s: %w", dotenvPath, err)
	}

	// CONFIG_FILE may itself come from the dotenv file.
	configPath := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	if configPath == "" {
		configPath = strings.TrimSpace(src.dotenv["CONFIG_FILE"])
	}
	if configPath != "" {
		file, err := readConfigFile(configPath)
		if err != nil {
			return source{}, err
		}
		src.file = file
	}
	return src, nil
}

func readConfigFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case nil:
		case []any:
			parts := make([]string, 0, len(t))
			for _, p := range t {
				parts = append(parts, fmt.Sprint(p))
			}
			out[strings.ToUpper(k)] = strings.Join(parts, ",")
		default:
			out[strings.ToUpper(k)] = fmt.Sprint(t)
		}
	}
	return out, nil
}

func intValue(src source, key string, def int) (int, error) {
	s := src.get(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func durationValue(src source, key string, def time.Duration) (time.Duration, error) {
	s := src.get(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func boolValue(src source, key string, def bool) (bool, error) {
	s := src.get(key)
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}

func splitList(s string, def string) []string {
	if s == "" {
		s = def
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
