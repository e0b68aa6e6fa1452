package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"log/slog"

	"climate-server/internal/modules/climate/types"
)

//go:embed sql/get-precipitation.sql
var getPrecipitationSQL string

//go:embed sql/get-stations.sql
var getStationsSQL string

//go:embed sql/get-station-activity.sql
var getStationActivitySQL string

//go:embed sql/get-latest-date.sql
var getLatestDateSQL string

//go:embed sql/get-observations.sql
var getObservationsSQL string

//go:embed sql/get-temperature-stats.sql
var getTemperatureStatsSQL string

//go:embed sql/get-counts.sql
var getCountsSQL string

//go:embed sql/get-measurements.sql
var getMeasurementsSQL string

// ClimateRepository is the read-only view of the measurement and station tables.
type ClimateRepository interface {
	Precipitation(ctx context.Context) ([]types.PrecipitationRecord, error)
	Stations(ctx context.Context) ([]string, error)
	// StationActivity returns row counts per station, busiest first; ties go to
	// the lowest station id.
	StationActivity(ctx context.Context) ([]types.StationActivity, error)
	// LatestDate reports false when there are no measurements.
	LatestDate(ctx context.Context) (string, bool, error)
	// Observations returns matching rows, newest date first.
	Observations(ctx context.Context, filter types.MeasurementFilter) ([]types.Observation, error)
	TemperatureStats(ctx context.Context, filter types.MeasurementFilter) (types.TemperatureStats, error)
	Counts(ctx context.Context) (types.DatasetCounts, error)
}

type repositoryImpl struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) ClimateRepository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) Precipitation(ctx context.Context) ([]types.PrecipitationRecord, error) {
	rows, err := r.db.QueryContext(ctx, getPrecipitationSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "precipitation")

	out := []types.PrecipitationRecord{}
	for rows.Next() {
		var (
			rec  types.PrecipitationRecord
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&rec.Date, &prcp); err != nil {
			return nil, err
		}
		rec.Prcp = nullFloat(prcp)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) Stations(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, getStationsSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "stations")

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) StationActivity(ctx context.Context) ([]types.StationActivity, error) {
	rows, err := r.db.QueryContext(ctx, getStationActivitySQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "station activity")

	out := []types.StationActivity{}
	for rows.Next() {
		var a types.StationActivity
		if err := rows.Scan(&a.StationID, &a.Count); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) LatestDate(ctx context.Context) (string, bool, error) {
	var latest sql.NullString
	if err := r.db.QueryRowContext(ctx, getLatestDateSQL).Scan(&latest); err != nil {
		return "", false, err
	}
	return latest.String, latest.Valid, nil
}

func (r *repositoryImpl) Observations(ctx context.Context, filter types.MeasurementFilter) ([]types.Observation, error) {
	rows, err := r.db.QueryContext(ctx, getObservationsSQL, filter.StationID, filter.After, filter.Before)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "observations")

	out := []types.Observation{}
	for rows.Next() {
		var o types.Observation
		if err := rows.Scan(&o.Station, &o.Date, &o.Temp); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *repositoryImpl) TemperatureStats(ctx context.Context, filter types.MeasurementFilter) (types.TemperatureStats, error) {
	var lo, hi, avg sql.NullFloat64
	err := r.db.QueryRowContext(ctx, getTemperatureStatsSQL, filter.StationID, filter.After, filter.Before).
		Scan(&lo, &hi, &avg)
	if err != nil {
		return types.TemperatureStats{}, err
	}
	return types.TemperatureStats{
		Min: nullFloat(lo),
		Max: nullFloat(hi),
		Avg: nullFloat(avg),
	}, nil
}

func (r *repositoryImpl) Counts(ctx context.Context) (types.DatasetCounts, error) {
	var c types.DatasetCounts
	err := r.db.QueryRowContext(ctx, getCountsSQL).Scan(&c.Measurements, &c.Stations)
	return c, err
}

func closeRows(rows *sql.Rows, what string) {
	if err := rows.Close(); err != nil {
		slog.Error("close "+what+" rows", "error", err)
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
