package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"climate-server/internal/config"
	"climate-server/internal/db"
	"climate-server/internal/logging"
	"climate-server/internal/migrate"
	"climate-server/internal/seed"
)

const appName = "climate-tools"

var version = "dev"

const usage = `usage: %s <command> [flags]
  migrate                                   apply pending schema migrations
  seed -measurements FILE -stations FILE    migrate, then import the CSV exports
`

var errUsage = errors.New("usage")

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	// the tooling is the only writer of the dataset
	cfg.SQLiteReadOnly = false
	slog.SetDefault(logging.New(cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, usage, os.Args[0])
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	switch args[0] {
	case "migrate":
		return withDB(cfg, func(conn *sql.DB) error {
			applied, err := migrate.Run(ctx, conn)
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(stdout, "migrations applied: %d\n", len(applied))
			return nil
		})
	case "seed":
		return runSeed(ctx, cfg, args[1:], stdout)
	default:
		return fmt.Errorf("unknown command: %s: %w", args[0], errUsage)
	}
}

func runSeed(ctx context.Context, cfg config.Config, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	measurementsPath := fs.String("measurements", "", "measurements CSV (station,date,prcp,tobs)")
	stationsPath := fs.String("stations", "", "stations CSV (station,name,latitude,longitude,elevation)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("seed: %v: %w", err, errUsage)
	}
	if *measurementsPath == "" && *stationsPath == "" {
		return fmt.Errorf("seed: nothing to import: %w", errUsage)
	}

	var src seed.Sources
	for _, f := range []struct {
		path string
		dst  *io.Reader
	}{
		{*measurementsPath, &src.Measurements},
		{*stationsPath, &src.Stations},
	} {
		if f.path == "" {
			continue
		}
		file, err := os.Open(f.path)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		defer func() { _ = file.Close() }()
		*f.dst = file
	}

	return withDB(cfg, func(conn *sql.DB) error {
		if _, err := migrate.Run(ctx, conn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		res, err := seed.Import(ctx, conn, src)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		slog.Info("seed complete", "measurements", res.Measurements, "stations", res.Stations)
		fmt.Fprintf(stdout, "imported %d measurements, %d stations\n", res.Measurements, res.Stations)
		return nil
	})
}

func withDB(cfg config.Config, fn func(conn *sql.DB) error) error {
	conn, err := db.Open(cfg)
	if err != nil {
		return fmt.Errorf("db open: %w", err)
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()
	return fn(conn)
}
