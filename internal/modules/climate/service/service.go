package service

import (
	"context"
	"fmt"

	"climate-server/internal/modules/climate/repository"
	"climate-server/internal/modules/climate/types"
)

// APIPrefix is the versioned root every data route hangs off.
const APIPrefix = "/api/1.0"

type Service struct {
	repository repository.ClimateRepository
}

func NewService(repository repository.ClimateRepository) *Service {
	return &Service{repository: repository}
}

// ListRoutes returns the browsable data routes in display order.
func (s *Service) ListRoutes() []string {
	return []string{
		APIPrefix + "/precipitation",
		APIPrefix + "/stations",
		APIPrefix + "/tobs",
	}
}

func (s *Service) Precipitation(ctx context.Context) ([]types.PrecipitationRecord, error) {
	records, err := s.repository.Precipitation(ctx)
	if err != nil {
		return nil, fmt.Errorf("precipitation: %w", err)
	}
	return records, nil
}

func (s *Service) Stations(ctx context.Context) ([]string, error) {
	stations, err := s.repository.Stations(ctx)
	if err != nil {
		return nil, fmt.Errorf("stations: %w", err)
	}
	return stations, nil
}

// TemperatureObservations returns the last twelve months of observations for the
// station with the most measurements, newest first. The window is anchored on the
// latest date in the dataset, not on the current time.
func (s *Service) TemperatureObservations(ctx context.Context) ([]types.Observation, error) {
	activity, err := s.repository.StationActivity(ctx)
	if err != nil {
		return nil, fmt.Errorf("most active station: %w", err)
	}
	if len(activity) == 0 {
		return []types.Observation{}, nil
	}
	station := activity[0].StationID

	latest, ok, err := s.repository.LatestDate(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest date: %w", err)
	}
	if !ok {
		return []types.Observation{}, nil
	}
	windowStart, err := yearBefore(latest)
	if err != nil {
		return nil, err
	}

	obs, err := s.repository.Observations(ctx, types.MeasurementFilter{
		StationID: station,
		After:     windowStart,
	})
	if err != nil {
		return nil, fmt.Errorf("observations for %s: %w", station, err)
	}
	return obs, nil
}

// TemperatureStats aggregates tobs over dates strictly after start and, when end is
// not blank, strictly before end.
func (s *Service) TemperatureStats(ctx context.Context, start, end string) (types.TemperatureStats, error) {
	stats, err := s.repository.TemperatureStats(ctx, types.MeasurementFilter{After: start, Before: end})
	if err != nil {
		return types.TemperatureStats{}, fmt.Errorf("temperature stats: %w", err)
	}
	return stats, nil
}
