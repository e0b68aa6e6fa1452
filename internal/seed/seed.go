// Package seed imports the Hawaii CSV exports into the measurement and station tables.
package seed

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

type Result struct {
	Measurements int
	Stations     int
}

// Sources names the CSV streams to import. A nil reader is skipped.
type Sources struct {
	Measurements io.Reader
	Stations     io.Reader
}

var (
	measurementColumns = []string{"station", "date", "tobs"}
	stationColumns     = []string{"station"}
)

// Import loads both files in one transaction. Any malformed row aborts the whole
// import so a dataset is never left half seeded.
func Import(ctx context.Context, db *sql.DB, src Sources) (Result, error) {
	var res Result

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if src.Stations != nil {
		n, err := importStations(ctx, tx, src.Stations)
		if err != nil {
			return Result{}, fmt.Errorf("stations: %w", err)
		}
		res.Stations = n
	}
	if src.Measurements != nil {
		n, err := importMeasurements(ctx, tx, src.Measurements)
		if err != nil {
			return Result{}, fmt.Errorf("measurements: %w", err)
		}
		res.Measurements = n
	}

	if err := tx.Commit(); err != nil {
		return Result{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

func importStations(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO station (station, name, latitude, longitude, elevation) VALUES (?1, ?2, ?3, ?4, ?5)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	return eachRecord(r, stationColumns, func(rec record) error {
		lat, err := rec.optionalFloat("latitude")
		if err != nil {
			return err
		}
		lon, err := rec.optionalFloat("longitude")
		if err != nil {
			return err
		}
		elev, err := rec.optionalFloat("elevation")
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, rec.get("station"), nullString(rec.get("name")), lat, lon, elev)
		return err
	})
}

func importMeasurements(ctx context.Context, tx *sql.Tx, r io.Reader) (int, error) {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO measurement (station, date, prcp, tobs) VALUES (?1, ?2, ?3, ?4)`)
	if err != nil {
		return 0, err
	}
	defer func() { _ = stmt.Close() }()

	return eachRecord(r, measurementColumns, func(rec record) error {
		prcp, err := rec.optionalFloat("prcp")
		if err != nil {
			return err
		}
		tobs, err := strconv.ParseFloat(rec.get("tobs"), 64)
		if err != nil {
			return fmt.Errorf("tobs %q: %w", rec.get("tobs"), err)
		}
		_, err = stmt.ExecContext(ctx, rec.get("station"), rec.get("date"), prcp, tobs)
		return err
	})
}

type record struct {
	fields  []string
	columns map[string]int
}

func (r record) get(name string) string {
	i, ok := r.columns[name]
	if !ok || i >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[i])
}

// optionalFloat returns nil for an absent or blank column.
func (r record) optionalFloat(name string) (any, error) {
	s := r.get(name)
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%s %q: %w", name, s, err)
	}
	return f, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func eachRecord(r io.Reader, required []string, fn func(rec record) error) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}
	columns := make(map[string]int, len(header))
	for i, h := range header {
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return 0, fmt.Errorf("missing required column %q", name)
		}
	}

	n := 0
	for line := 2; ; line++ {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		rec := record{fields: fields, columns: columns}
		for _, name := range required {
			if rec.get(name) == "" {
				return n, fmt.Errorf("line %d: empty %s", line, name)
			}
		}
		if err := fn(rec); err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		n++
	}
}
