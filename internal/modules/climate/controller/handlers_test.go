package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"climate-server/internal/modules/climate/service"
	"climate-server/internal/modules/climate/types"
	"climate-server/internal/modules/climate/views"
)

type mockRepo struct {
	precipitation    []types.PrecipitationRecord
	precipitationErr error
	stations         []string
	stationsErr      error
	activity         []types.StationActivity
	latest           string
	observations     []types.Observation
	stats            types.TemperatureStats
	statsErr         error

	statsFilter types.MeasurementFilter
}

func (m *mockRepo) Precipitation(ctx context.Context) ([]types.PrecipitationRecord, error) {
	return m.precipitation, m.precipitationErr
}

func (m *mockRepo) Stations(ctx context.Context) ([]string, error) {
	return m.stations, m.stationsErr
}

func (m *mockRepo) StationActivity(ctx context.Context) ([]types.StationActivity, error) {
	return m.activity, nil
}

func (m *mockRepo) LatestDate(ctx context.Context) (string, bool, error) {
	return m.latest, m.latest != "", nil
}

func (m *mockRepo) Observations(ctx context.Context, filter types.MeasurementFilter) ([]types.Observation, error) {
	return m.observations, nil
}

func (m *mockRepo) TemperatureStats(ctx context.Context, filter types.MeasurementFilter) (types.TemperatureStats, error) {
	m.statsFilter = filter
	return m.stats, m.statsErr
}

func (m *mockRepo) Counts(ctx context.Context) (types.DatasetCounts, error) {
	return types.DatasetCounts{}, nil
}

func newController(repo *mockRepo) *climateControllerImpl {
	return NewClimateController(service.NewService(repo)).(*climateControllerImpl)
}

func f64(v float64) *float64 { return &v }

func Test_handleIndex(t *testing.T) {
	ctrl := newController(&mockRepo{})

	t.Run("returns 404 when path is not /", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		rec := httptest.NewRecorder()

		ctrl.handleIndex(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("lists routes joined with br", func(t *testing.T) {
		if err := views.LoadTemplates(); err != nil {
			t.Fatalf("LoadTemplates: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		ctrl.handleIndex(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
			t.Errorf("Content-Type = %q; want text/html; charset=utf-8", ct)
		}
		want := "/api/1.0/precipitation<br/>/api/1.0/stations<br/>/api/1.0/tobs"
		if got := rec.Body.String(); got != want {
			t.Errorf("body = %q; want %q", got, want)
		}
	})
}

func Test_handlePrecipitation(t *testing.T) {
	t.Run("returns Date and Prcp with null preserved", func(t *testing.T) {
		ctrl := newController(&mockRepo{precipitation: []types.PrecipitationRecord{
			{Date: "2010-01-01", Prcp: f64(0.08)},
			{Date: "2010-01-02", Prcp: nil},
		}})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/precipitation", nil)
		rec := httptest.NewRecorder()

		ctrl.handlePrecipitation(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		want := `[{"Date":"2010-01-01","Prcp":0.08},{"Date":"2010-01-02","Prcp":null}]`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s; want %s", got, want)
		}
	})

	t.Run("returns 500 when repository fails", func(t *testing.T) {
		ctrl := newController(&mockRepo{precipitationErr: errors.New("db error")})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/precipitation", nil)
		rec := httptest.NewRecorder()

		ctrl.handlePrecipitation(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
		if !strings.Contains(rec.Body.String(), "failed to load precipitation") {
			t.Errorf("body = %q; expected error JSON", rec.Body.String())
		}
	})
}

func Test_handleStations(t *testing.T) {
	t.Run("returns a flat list of ids", func(t *testing.T) {
		ctrl := newController(&mockRepo{stations: []string{"USC00519397", "USC00513117"}})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/stations", nil)
		rec := httptest.NewRecorder()

		ctrl.handleStations(rec, req)

		if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json", ct)
		}
		var got []string
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[0] != "USC00519397" {
			t.Errorf("stations = %v", got)
		}
	})

	t.Run("empty list encodes as []", func(t *testing.T) {
		ctrl := newController(&mockRepo{stations: []string{}})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/stations", nil)
		rec := httptest.NewRecorder()

		ctrl.handleStations(rec, req)

		if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
			t.Errorf("body = %s; want []", got)
		}
	})

	t.Run("returns 500 when repository fails", func(t *testing.T) {
		ctrl := newController(&mockRepo{stationsErr: errors.New("db error")})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/stations", nil)
		rec := httptest.NewRecorder()

		ctrl.handleStations(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func Test_handleTobs(t *testing.T) {
	ctrl := newController(&mockRepo{
		activity:     []types.StationActivity{{StationID: "USC00519281", Count: 2772}},
		latest:       "2017-08-18",
		observations: []types.Observation{{Station: "USC00519281", Date: "2017-08-18", Temp: 79}},
	})
	req := httptest.NewRequest(http.MethodGet, "/api/1.0/tobs", nil)
	rec := httptest.NewRecorder()

	ctrl.handleTobs(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	want := `[{"Station":"USC00519281","Date":"2017-08-18","Temp":79}]`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Errorf("body = %s; want %s", got, want)
	}
}

func Test_handleStats(t *testing.T) {
	t.Run("start only", func(t *testing.T) {
		repo := &mockRepo{stats: types.TemperatureStats{Min: f64(80), Max: f64(80), Avg: f64(80)}}
		ctrl := newController(repo)
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/2017-08-22", nil)
		req.SetPathValue("start", "2017-08-22")
		rec := httptest.NewRecorder()

		ctrl.handleStats(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		want := `{"min_temp":80,"max_temp":80,"avg_temp":80}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s; want %s", got, want)
		}
		if repo.statsFilter != (types.MeasurementFilter{After: "2017-08-22"}) {
			t.Errorf("filter = %+v", repo.statsFilter)
		}
	})

	t.Run("start and end", func(t *testing.T) {
		repo := &mockRepo{}
		ctrl := newController(repo)
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/2017-01-01/2017-02-01", nil)
		req.SetPathValue("start", "2017-01-01")
		req.SetPathValue("end", "2017-02-01")
		rec := httptest.NewRecorder()

		ctrl.handleStats(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		want := `{"min_temp":null,"max_temp":null,"avg_temp":null}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s; want %s", got, want)
		}
		if repo.statsFilter != (types.MeasurementFilter{After: "2017-01-01", Before: "2017-02-01"}) {
			t.Errorf("filter = %+v", repo.statsFilter)
		}
	})

	t.Run("returns 400 when start is malformed", func(t *testing.T) {
		ctrl := newController(&mockRepo{})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/yesterday", nil)
		req.SetPathValue("start", "yesterday")
		rec := httptest.NewRecorder()

		ctrl.handleStats(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), "invalid 'start' (expected YYYY-MM-DD)") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("returns 400 when end is malformed", func(t *testing.T) {
		ctrl := newController(&mockRepo{})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/2017-01-01/2017-13-01", nil)
		req.SetPathValue("start", "2017-01-01")
		req.SetPathValue("end", "2017-13-01")
		rec := httptest.NewRecorder()

		ctrl.handleStats(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusBadRequest)
		}
		if !strings.Contains(rec.Body.String(), "invalid 'end'") {
			t.Errorf("body = %q", rec.Body.String())
		}
	})

	t.Run("returns 500 when repository fails", func(t *testing.T) {
		ctrl := newController(&mockRepo{statsErr: errors.New("db error")})
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/2017-01-01", nil)
		req.SetPathValue("start", "2017-01-01")
		rec := httptest.NewRecorder()

		ctrl.handleStats(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}

func TestRegisterRoutes(t *testing.T) {
	if err := views.LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates: %v", err)
	}
	repo := &mockRepo{stations: []string{"USC00519397"}}
	mux := http.NewServeMux()
	newController(repo).RegisterRoutes(mux)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/1.0/stations", http.StatusOK},
		{http.MethodGet, "/api/1.0/precipitation", http.StatusOK},
		{http.MethodGet, "/api/1.0/tobs", http.StatusOK},
		{http.MethodGet, "/api/1.0/2017-08-22", http.StatusOK},
		{http.MethodGet, "/api/1.0/2017-01-01/2017-02-01", http.StatusOK},
		{http.MethodGet, "/api/1.0/not-a-date", http.StatusBadRequest},
		{http.MethodGet, "/api/1.0/2017-01-01/2017-02-01/extra", http.StatusNotFound},
		{http.MethodGet, "/api/2.0/stations", http.StatusNotFound},
		{http.MethodPost, "/api/1.0/stations", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()

			mux.ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Errorf("status = %d; want %d (body %q)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}

	t.Run("stats route passes path values through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/1.0/2016-08-23/2017-08-23", nil)
		rec := httptest.NewRecorder()

		mux.ServeHTTP(rec, req)

		want := types.MeasurementFilter{After: "2016-08-23", Before: "2017-08-23"}
		if repo.statsFilter != want {
			t.Errorf("filter = %+v; want %+v", repo.statsFilter, want)
		}
	})
}
