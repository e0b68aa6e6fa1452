package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"climate-server/internal/modules/climate/types"
)

func TestLoadSnapshot_MatchesSQLite(t *testing.T) {
	sqliteRepo, db := fixtureRepo(t)
	ctx := context.Background()

	memRepo, err := LoadSnapshot(ctx, db)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	check := func(name string, fn func(ClimateRepository) (any, error)) {
		t.Helper()
		t.Run(name, func(t *testing.T) {
			want, err := fn(sqliteRepo)
			if err != nil {
				t.Fatalf("sqlite: %v", err)
			}
			got, err := fn(memRepo)
			if err != nil {
				t.Fatalf("memory: %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("memory = %+v\nsqlite = %+v", got, want)
			}
		})
	}

	check("precipitation", func(r ClimateRepository) (any, error) { return r.Precipitation(ctx) })
	check("stations", func(r ClimateRepository) (any, error) { return r.Stations(ctx) })
	check("station activity", func(r ClimateRepository) (any, error) { return r.StationActivity(ctx) })
	check("counts", func(r ClimateRepository) (any, error) { return r.Counts(ctx) })
	check("latest date", func(r ClimateRepository) (any, error) {
		d, ok, err := r.LatestDate(ctx)
		return []any{d, ok}, err
	})

	filters := map[string]types.MeasurementFilter{
		"unfiltered":       {},
		"station":          {StationID: "USC00519281"},
		"after":            {After: "2016-08-23"},
		"before":           {Before: "2016-08-24"},
		"window":           {After: "2016-01-01", Before: "2017-08-23"},
		"station + window": {StationID: "USC00519397", After: "2015-12-31", Before: "2017-08-24"},
		"empty":            {After: "2099-01-01"},
		"inverted":         {After: "2017-08-23", Before: "2016-01-01"},
	}
	for name, f := range filters {
		check("observations "+name, func(r ClimateRepository) (any, error) { return r.Observations(ctx, f) })
		check("stats "+name, func(r ClimateRepository) (any, error) { return r.TemperatureStats(ctx, f) })
	}
}

func TestLoadSnapshot_AverageMatchesSQLiteOnFractionalData(t *testing.T) {
	db := setupTestDB(t)
	base := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	measurements := make([]types.Measurement, 0, 200)
	for i := range 200 {
		station := "USC1"
		if i%2 == 1 {
			station = "USC2"
		}
		measurements = append(measurements, types.Measurement{
			StationID:   station,
			Date:        base.AddDate(0, 0, i).Format(time.DateOnly),
			Temperature: 60.1 + float64(i%17)*0.37,
		})
	}
	insertDataset(t, db, []string{"USC1", "USC2"}, measurements)

	ctx := context.Background()
	sqliteRepo := NewRepository(db)
	memRepo, err := LoadSnapshot(ctx, db)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	filters := map[string]types.MeasurementFilter{
		"unfiltered":       {},
		"window":           {After: "2016-03-01", Before: "2016-09-01"},
		"station":          {StationID: "USC1"},
		"station + after":  {StationID: "USC2", After: "2016-02-01"},
		"trailing quarter": {After: "2016-04-15"},
	}
	for name, f := range filters {
		t.Run(name, func(t *testing.T) {
			want, err := sqliteRepo.TemperatureStats(ctx, f)
			if err != nil {
				t.Fatalf("sqlite: %v", err)
			}
			got, err := memRepo.TemperatureStats(ctx, f)
			if err != nil {
				t.Fatalf("memory: %v", err)
			}
			if want.Avg == nil || got.Avg == nil {
				t.Fatalf("avg missing: memory %+v, sqlite %+v", got, want)
			}
			if *got.Avg != *want.Avg {
				t.Errorf("avg: memory = %v, sqlite = %v", *got.Avg, *want.Avg)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("memory = %+v\nsqlite = %+v", got, want)
			}
		})
	}
}

func TestCompensatedSum(t *testing.T) {
	var c compensatedSum
	for _, v := range []float64{1e100, 1, -1e100} {
		c.add(v)
	}
	if got := c.value(); got != 1 {
		t.Errorf("value = %v; want 1", got)
	}

	var small compensatedSum
	for range 10 {
		small.add(0.1)
	}
	if got := small.value(); got != 1 {
		t.Errorf("ten times 0.1 = %v; want 1", got)
	}
}

func TestMemoryRepository_EmptyDataset(t *testing.T) {
	repo := NewMemoryRepository(nil, nil)
	ctx := context.Background()

	if _, ok, err := repo.LatestDate(ctx); err != nil || ok {
		t.Errorf("LatestDate = ok %v, err %v; want false, nil", ok, err)
	}
	stats, err := repo.TemperatureStats(ctx, types.MeasurementFilter{})
	if err != nil {
		t.Fatalf("TemperatureStats: %v", err)
	}
	if stats.Min != nil || stats.Max != nil || stats.Avg != nil {
		t.Errorf("TemperatureStats = %+v; want all nil", stats)
	}
	activity, err := repo.StationActivity(ctx)
	if err != nil || len(activity) != 0 {
		t.Errorf("StationActivity = %v, %v; want empty", activity, err)
	}
	stations, err := repo.Stations(ctx)
	if err != nil || stations == nil || len(stations) != 0 {
		t.Errorf("Stations = %#v, %v; want empty non-nil", stations, err)
	}
}

func TestMemoryRepository_ObservationsKeepTableOrderWithinADate(t *testing.T) {
	repo := NewMemoryRepository([]types.Measurement{
		{StationID: "A", Date: "2017-01-01", Temperature: 1},
		{StationID: "A", Date: "2017-01-02", Temperature: 2},
		{StationID: "A", Date: "2017-01-01", Temperature: 3},
	}, nil)

	got, err := repo.Observations(context.Background(), types.MeasurementFilter{})
	if err != nil {
		t.Fatalf("Observations: %v", err)
	}
	temps := []float64{got[0].Temp, got[1].Temp, got[2].Temp}
	if !reflect.DeepEqual(temps, []float64{2, 1, 3}) {
		t.Errorf("temps = %v; want [2 1 3]", temps)
	}
}
