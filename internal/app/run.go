package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"climate-server/internal/config"
	"climate-server/internal/db"
	"climate-server/internal/httpapi"
	"climate-server/internal/modules/climate"
	"climate-server/internal/modules/climate/repository"
	climateviews "climate-server/internal/modules/climate/views"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"dataSource", cfg.DataSource,
		"sqliteDriver", cfg.SQLiteDriver,
		"sqlitePath", cfg.SQLitePath,
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogQueries", cfg.SQLiteLogQueries,
		"corsAllowedOrigins", cfg.CORSAllowedOrigins,
		"shutdownTimeout", cfg.ShutdownTimeout,
	)
	dbConn, err := db.Open(cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	repo, err := openRepository(ctx, cfg, dbConn)
	if err != nil {
		return err
	}

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}
	mux := httpapi.NewMux(dbConn)
	climate.RegisterFeature(mux, repo)

	srv := httpapi.NewServer(cfg, mux)
	return serve(ctx, cfg, srv)
}

// openRepository checks the dataset is queryable before any request is served;
// a missing table is as fatal as a missing file.
func openRepository(ctx context.Context, cfg config.Config, dbConn *sql.DB) (repository.ClimateRepository, error) {
	repo := repository.NewRepository(dbConn)
	counts, err := repo.Counts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset check: %w", db.ErrUnavailable, err)
	}
	slog.Info("dataset loaded",
		"measurements", counts.Measurements,
		"stations", counts.Stations,
	)

	if cfg.DataSource != config.DataSourceMemory {
		return repo, nil
	}
	snapshot, err := repository.LoadSnapshot(ctx, dbConn)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %w", db.ErrUnavailable, err)
	}
	slog.Info("serving from in-memory snapshot")
	return snapshot, nil
}

func serve(ctx context.Context, cfg config.Config, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err := <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
