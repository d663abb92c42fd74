package weather

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/units"
)

// Condition represents a normalized high-level weather condition.
type Condition string

const (
	ConditionUnknown Condition = "unknown"
	ConditionClear   Condition = "clear"
	ConditionCloudy  Condition = "cloudy"
	ConditionFog     Condition = "fog"
	ConditionDrizzle Condition = "drizzle"
	ConditionRain    Condition = "rain"
	ConditionSnow    Condition = "snow"
	ConditionStorm   Condition = "storm"
)

// Current holds the conditions at the time of the fetch.
type Current struct {
	Time                time.Time `json:"time"`
	Temperature         float64   `json:"temperature"`
	ApparentTemperature float64   `json:"apparentTemperature"`
	HumidityPercent     float64   `json:"humidityPercent"`
	WindSpeed           float64   `json:"windSpeed"`
	Pressure            float64   `json:"pressure"`
	WeatherCode         int       `json:"weatherCode"`
}

// HourlyPoint is one hourly bucket.
type HourlyPoint struct {
	Time                     time.Time `json:"time"`
	Temperature              float64   `json:"temperature"`
	WindSpeed                float64   `json:"windSpeed"`
	PrecipitationAmount      float64   `json:"precipitationAmount"`
	PrecipitationProbability float64   `json:"precipitationProbability"`
}

// DailyPoint is one day of the forecast. Date is midnight in the location's zone.
type DailyPoint struct {
	Date              time.Time `json:"date"`
	WeatherCode       int       `json:"weatherCode"`
	TempMax           float64   `json:"tempMax"`
	TempMin           float64   `json:"tempMin"`
	PrecipProbability float64   `json:"precipProbability"`
}

// Snapshot is the normalized forecast for one location and unit. It is
// replaced wholesale on each successful fetch.
// Hourly and Daily are ordered by time ascending.
type Snapshot struct {
	Latitude         float64       `json:"latitude"`
	Longitude        float64       `json:"longitude"`
	Timezone         string        `json:"timezone"`
	UTCOffsetSeconds int           `json:"utcOffsetSeconds"`
	Unit             units.Unit    `json:"unit"`
	Units            units.Labels  `json:"units"`
	Current          Current       `json:"current"`
	Hourly           []HourlyPoint `json:"hourly"`
	Daily            []DailyPoint  `json:"daily"`
	FetchedAt        time.Time     `json:"fetchedAt"` // always UTC
}

// Zone returns the fixed zone the snapshot's timestamps are expressed in.
func (s Snapshot) Zone() *time.Location {
	name := s.Timezone
	if name == "" {
		name = "UTC"
	}
	return time.FixedZone(name, s.UTCOffsetSeconds)
}

// RadarFrame is the most recent precipitation radar snapshot.
type RadarFrame struct {
	Time            time.Time `json:"time"`
	TileURLTemplate string    `json:"tileUrlTemplate"`
}
