package dashboard

import (
	"context"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureSnapshot is a London-like forecast one hour ahead of UTC.
func fixtureSnapshot(lat, lon float64, unit units.Unit) weather.Snapshot {
	zone := time.FixedZone("Europe/London", 3600)
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, zone)

	hourly := make([]weather.HourlyPoint, 30)
	for i := range hourly {
		hourly[i] = weather.HourlyPoint{
			Time:                     start.Add(time.Duration(i) * time.Hour),
			Temperature:              10 + float64(i)/2,
			WindSpeed:                5 + float64(i%5),
			PrecipitationAmount:      float64(i%3) / 10,
			PrecipitationProbability: float64(i % 100),
		}
	}

	return weather.Snapshot{
		Latitude:         lat,
		Longitude:        lon,
		Timezone:         "Europe/London",
		UTCOffsetSeconds: 3600,
		Unit:             unit,
		Units:            units.DefaultLabels(unit),
		Current: weather.Current{
			Time:                time.Date(2024, 6, 1, 14, 30, 0, 0, zone),
			Temperature:         18.5,
			ApparentTemperature: 17.4,
			HumidityPercent:     62,
			WindSpeed:           11.5,
			Pressure:            1013.2,
			WeatherCode:         2,
		},
		Hourly: hourly,
		Daily: []weather.DailyPoint{
			{Date: start, WeatherCode: 2, TempMax: 19.6, TempMin: 10.2, PrecipProbability: 40},
			{Date: start.AddDate(0, 0, 1), WeatherCode: 61, TempMax: 17.1, TempMin: 9.5, PrecipProbability: 85},
			{Date: start.AddDate(0, 0, 2), WeatherCode: 999, TempMax: -0.5, TempMin: -3.5, PrecipProbability: 0},
		},
		FetchedAt: t0,
	}
}

func TestRound(t *testing.T) {
	assert.Equal(t, 3, round(2.5))
	assert.Equal(t, -2, round(-2.5))
	assert.Equal(t, 0, round(-0.4))
	assert.Equal(t, 19, round(18.5))
	assert.Equal(t, 17, round(17.4))
}

func TestViewRecord(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ctrl.Search(context.Background(), "London", "")
	require.NoError(t, err)

	v, err := f.ctrl.View(t0)
	require.NoError(t, err)

	assert.Equal(t, "London, UK", v.Location.DisplayName)
	assert.Equal(t, units.Celsius, v.Unit)
	assert.False(t, v.Stale)

	assert.Equal(t, CurrentCard{
		Date:            "Saturday, June 1, 2024",
		Emoji:           "⛅",
		Description:     "Partly cloudy",
		Temperature:     19,
		FeelsLike:       17,
		TemperatureUnit: "°C",
		Humidity:        "62%",
		Wind:            "12 km/h",
		Pressure:        "1,013 hPa",
	}, v.Current)
	assert.Equal(t, TodayCard{High: "20°", Low: "10°"}, v.Today)

	require.Len(t, v.Charts.HourLabels, 24)
	assert.Equal(t, "0:00", v.Charts.HourLabels[0])
	assert.Equal(t, "23:00", v.Charts.HourLabels[23])
	assert.Len(t, v.Charts.Temperatures, 24)
	assert.Equal(t, 10.5, v.Charts.Temperatures[1])
	require.NotNil(t, v.Charts.NowMarker)
	assert.InDelta(t, 14.5, *v.Charts.NowMarker, 1e-9)
	assert.Equal(t, []string{"Sat, Jun 1", "Sun, Jun 2", "Mon, Jun 3"}, v.Charts.DayLabels)
	assert.Equal(t, []float64{40, 85, 0}, v.Charts.PrecipProbability)
	assert.Equal(t, "Temperature (°C)", v.Charts.TemperatureTitle)
	assert.Equal(t, "Wind Speed (km/h)", v.Charts.WindTitle)

	assert.Equal(t, []ForecastCard{
		{Day: "Sunday", Date: "Jun 2", Emoji: "🌧️", Description: "Slight rain", High: "17°", Low: "10°", Precip: "85%"},
		{Day: "Monday", Date: "Jun 3", Emoji: "🌡️", Description: "Unknown", High: "0°", Low: "-3°", Precip: "0%"},
	}, v.Forecast)
}

func TestViewStaleAndMarkerMovesWithClock(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.ctrl.Search(context.Background(), "London", "")
	require.NoError(t, err)

	v, err := f.ctrl.View(t0.Add(15 * time.Minute))
	require.NoError(t, err)
	assert.True(t, v.Stale)
	assert.InDelta(t, 14.75, *v.Charts.NowMarker, 1e-9)

	// Buckets are matched by hour of day only.
	v, err = f.ctrl.View(t0.Add(24 * time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 14.5, *v.Charts.NowMarker, 1e-9)
}

func TestViewFahrenheitLabels(t *testing.T) {
	f := newFixture(t, nil)
	v, err := f.ctrl.Search(context.Background(), "Austin", "")
	require.NoError(t, err)

	assert.Equal(t, "°F", v.Current.TemperatureUnit)
	assert.Equal(t, "12 mph", v.Current.Wind)
	assert.Equal(t, "Temperature (°F)", v.Charts.TemperatureTitle)
}
