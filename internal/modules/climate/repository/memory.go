package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"

	"climate-server/internal/modules/climate/types"
)

// memoryRepository answers every query from an immutable copy of the dataset.
type memoryRepository struct {
	measurements []types.Measurement
	stations     []types.Station
}

// NewMemoryRepository takes ownership of the slices; callers must not modify them afterwards.
func NewMemoryRepository(measurements []types.Measurement, stations []types.Station) ClimateRepository {
	return &memoryRepository{measurements: measurements, stations: stations}
}

// LoadSnapshot reads both tables once and returns a repository that never touches db again.
func LoadSnapshot(ctx context.Context, db *sql.DB) (ClimateRepository, error) {
	measurements, err := loadMeasurements(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("load measurements: %w", err)
	}
	stations, err := NewRepository(db).Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	out := make([]types.Station, len(stations))
	for i, id := range stations {
		out[i] = types.Station{ID: id}
	}
	return NewMemoryRepository(measurements, out), nil
}

func loadMeasurements(ctx context.Context, db *sql.DB) ([]types.Measurement, error) {
	rows, err := db.QueryContext(ctx, getMeasurementsSQL)
	if err != nil {
		return nil, err
	}
	defer closeRows(rows, "measurements")

	var out []types.Measurement
	for rows.Next() {
		var (
			m    types.Measurement
			prcp sql.NullFloat64
		)
		if err := rows.Scan(&m.StationID, &m.Date, &prcp, &m.Temperature); err != nil {
			return nil, err
		}
		m.Precipitation = nullFloat(prcp)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *memoryRepository) Precipitation(ctx context.Context) ([]types.PrecipitationRecord, error) {
	out := make([]types.PrecipitationRecord, 0, len(r.measurements))
	for _, m := range r.measurements {
		out = append(out, types.PrecipitationRecord{Date: m.Date, Prcp: m.Precipitation})
	}
	return out, nil
}

func (r *memoryRepository) Stations(ctx context.Context) ([]string, error) {
	out := make([]string, 0, len(r.stations))
	for _, s := range r.stations {
		out = append(out, s.ID)
	}
	return out, nil
}

func (r *memoryRepository) StationActivity(ctx context.Context) ([]types.StationActivity, error) {
	counts := make(map[string]int)
	for _, m := range r.measurements {
		counts[m.StationID]++
	}
	out := make([]types.StationActivity, 0, len(counts))
	for id, n := range counts {
		out = append(out, types.StationActivity{StationID: id, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].StationID < out[j].StationID
	})
	return out, nil
}

func (r *memoryRepository) LatestDate(ctx context.Context) (string, bool, error) {
	var latest string
	found := false
	for _, m := range r.measurements {
		if !found || m.Date > latest {
			latest = m.Date
			found = true
		}
	}
	return latest, found, nil
}

func (r *memoryRepository) Observations(ctx context.Context, filter types.MeasurementFilter) ([]types.Observation, error) {
	out := []types.Observation{}
	for _, m := range r.measurements {
		if matches(m, filter) {
			out = append(out, types.Observation{Station: m.StationID, Date: m.Date, Temp: m.Temperature})
		}
	}
	// stable: rows sharing a date keep table order, as ORDER BY date DESC, id does
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (r *memoryRepository) TemperatureStats(ctx context.Context, filter types.MeasurementFilter) (types.TemperatureStats, error) {
	var (
		lo, hi float64
		sum    compensatedSum
		n      int
	)
	for _, m := range r.measurements {
		if !matches(m, filter) {
			continue
		}
		t := m.Temperature
		if n == 0 || t < lo {
			lo = t
		}
		if n == 0 || t > hi {
			hi = t
		}
		sum.add(t)
		n++
	}
	if n == 0 {
		return types.TemperatureStats{}, nil
	}
	avg := sum.value() / float64(n)
	return types.TemperatureStats{Min: &lo, Max: &hi, Avg: &avg}, nil
}

// compensatedSum is Kahan-Babuska-Neumaier summation, the algorithm SQLite's
// SUM and AVG use for REAL values. A plain running total drifts from AVG(tobs)
// in the last bits.
type compensatedSum struct {
	sum, err float64
}

func (c *compensatedSum) add(v float64) {
	t := c.sum + v
	if math.Abs(c.sum) > math.Abs(v) {
		c.err += (c.sum - t) + v
	} else {
		c.err += (v - t) + c.sum
	}
	c.sum = t
}

func (c *compensatedSum) value() float64 {
	if math.IsInf(c.err, 0) || math.IsNaN(c.err) {
		return c.sum
	}
	return c.sum + c.err
}

func (r *memoryRepository) Counts(ctx context.Context) (types.DatasetCounts, error) {
	return types.DatasetCounts{Measurements: len(r.measurements), Stations: len(r.stations)}, nil
}

func matches(m types.Measurement, f types.MeasurementFilter) bool {
	if f.StationID != "" && m.StationID != f.StationID {
		return false
	}
	if f.After != "" && !(m.Date > f.After) {
		return false
	}
	if f.Before != "" && !(m.Date < f.Before) {
		return false
	}
	return true
}
