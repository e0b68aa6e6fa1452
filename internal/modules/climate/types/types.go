package types

// Measurement is one row of the measurement table.
type Measurement struct {
	StationID     string
	Date          string // YYYY-MM-DD
	Precipitation *float64
	Temperature   float64
}

type Station struct {
	ID string
}

type PrecipitationRecord struct {
	Date string   `json:"Date"`
	Prcp *float64 `json:"Prcp"`
}

type Observation struct {
	Station string  `json:"Station"`
	Date    string  `json:"Date"`
	Temp    float64 `json:"Temp"`
}

// TemperatureStats is the min/max/avg of tobs over a filtered set of measurements.
// All three fields are nil when the set is empty.
type TemperatureStats struct {
	Min *float64 `json:"min_temp"`
	Max *float64 `json:"max_temp"`
	Avg *float64 `json:"avg_temp"`
}

type StationActivity struct {
	StationID string
	Count     int
}

// MeasurementFilter selects measurements. A blank field places no constraint;
// After and Before are exclusive bounds compared as strings.
type MeasurementFilter struct {
	StationID string
	After     string
	Before    string
}

type DatasetCounts struct {
	Measurements int
	Stations     int
}
