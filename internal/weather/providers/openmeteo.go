package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/sony/gobreaker"
)

const (
	DefaultOpenMeteoURL = "https://api.open-meteo.com/v1/forecast"
	DefaultForecastDays = 10

	openMeteoTimeLayout = "2006-01-02T15:04"
	openMeteoDateLayout = "2006-01-02"

	currentFields = "temperature_2m,relative_humidity_2m,apparent_temperature,weather_code,surface_pressure,wind_speed_10m"
	hourlyFields  = "temperature_2m,precipitation,precipitation_probability,wind_speed_10m"
	dailyFields   = "weather_code,temperature_2m_max,temperature_2m_min,precipitation_probability_max"
)

// OpenMeteoConfig configures the forecast client.
type OpenMeteoConfig struct {
	BaseURL      string
	ForecastDays int
	Breaker      upstream.BreakerConfig
	Observer     upstream.Observer
}

// OpenMeteoProvider implements weather.Fetcher for Open-Meteo.
type OpenMeteoProvider struct {
	baseURL      string
	forecastDays int
	httpCfg      upstream.Config
	circuit      *gobreaker.CircuitBreaker
	now          func() time.Time
}

var _ weather.Fetcher = (*OpenMeteoProvider)(nil)

func NewOpenMeteoProvider(client *http.Client, cfg OpenMeteoConfig) *OpenMeteoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenMeteoURL
	}
	if cfg.ForecastDays <= 0 {
		cfg.ForecastDays = DefaultForecastDays
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = 2 * time.Minute
	}
	if cfg.Breaker.Interval == 0 {
		cfg.Breaker.Interval = time.Minute
	}

	return &OpenMeteoProvider{
		baseURL:      cfg.BaseURL,
		forecastDays: cfg.ForecastDays,
		// No retries: a failed fetch is reported and the next tick tries again.
		httpCfg: upstream.Config{
			Name:     "openmeteo",
			Client:   client,
			Observer: cfg.Observer,
		},
		circuit: upstream.NewBreaker("openmeteo", cfg.Breaker),
		now:     time.Now,
	}
}

type openMeteoPayload struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	Timezone         string  `json:"timezone"`
	UTCOffsetSeconds int     `json:"utc_offset_seconds"`

	CurrentUnits map[string]string `json:"current_units"`
	HourlyUnits  map[string]string `json:"hourly_units"`

	Current struct {
		Time                string   `json:"time"`
		Temperature         *float64 `json:"temperature_2m"`
		RelativeHumidity    *float64 `json:"relative_humidity_2m"`
		ApparentTemperature *float64 `json:"apparent_temperature"`
		WeatherCode         *int     `json:"weather_code"`
		SurfacePressure     *float64 `json:"surface_pressure"`
		WindSpeed           *float64 `json:"wind_speed_10m"`
	} `json:"current"`

	Hourly struct {
		Time                     []string   `json:"time"`
		Temperature              []*float64 `json:"temperature_2m"`
		Precipitation            []*float64 `json:"precipitation"`
		PrecipitationProbability []*float64 `json:"precipitation_probability"`
		WindSpeed                []*float64 `json:"wind_speed_10m"`
	} `json:"hourly"`

	Daily struct {
		Time                        []string   `json:"time"`
		WeatherCode                 []*int     `json:"weather_code"`
		TemperatureMax              []*float64 `json:"temperature_2m_max"`
		TemperatureMin              []*float64 `json:"temperature_2m_min"`
		PrecipitationProbabilityMax []*float64 `json:"precipitation_probability_max"`
	} `json:"daily"`
}

type openMeteoError struct {
	Error  bool   `json:"error"`
	Reason string `json:"reason"`
}

// FetchSnapshot requests current, hourly and daily data in the given unit.
func (p *OpenMeteoProvider) FetchSnapshot(ctx context.Context, lat, lon float64, unit units.Unit) (weather.Snapshot, error) {
	if !unit.Valid() {
		unit = units.Default
	}
	temperature, windSpeed, precipitation := units.ForecastParams(unit)

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("current", currentFields)
		values.Set("hourly", hourlyFields)
		values.Set("daily", dailyFields)
		values.Set("timezone", "auto")
		values.Set("forecast_days", strconv.Itoa(p.forecastDays))
		values.Set("temperature_unit", temperature)
		values.Set("wind_speed_unit", windSpeed)
		values.Set("precipitation_unit", precipitation)

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return weather.Snapshot{}, fetchError(err)
	}
	defer resp.Body.Close()

	var payload openMeteoPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Snapshot{}, &weather.FetchError{Status: resp.StatusCode, Err: fmt.Errorf("decode forecast: %w", err)}
	}

	snap, err := normalize(payload, unit)
	if err != nil {
		return weather.Snapshot{}, &weather.FetchError{Status: resp.StatusCode, Err: err}
	}
	snap.FetchedAt = p.now().UTC()
	return snap, nil
}

func fetchError(err error) error {
	var se *upstream.StatusError
	if errors.As(err, &se) {
		fe := &weather.FetchError{Status: se.Code, Err: err}
		var body openMeteoError
		if json.Unmarshal(se.Body, &body) == nil && body.Reason != "" {
			fe.Reason = body.Reason
		}
		return fe
	}
	return &weather.FetchError{Err: err}
}

func normalize(p openMeteoPayload, unit units.Unit) (weather.Snapshot, error) {
	zoneName := p.Timezone
	if zoneName == "" {
		zoneName = "UTC"
	}
	zone := time.FixedZone(zoneName, p.UTCOffsetSeconds)

	snap := weather.Snapshot{
		Latitude:         p.Latitude,
		Longitude:        p.Longitude,
		Timezone:         p.Timezone,
		UTCOffsetSeconds: p.UTCOffsetSeconds,
		Unit:             unit,
		Units:            labels(p, unit),
	}

	if p.Current.Time != "" {
		t, err := time.ParseInLocation(openMeteoTimeLayout, p.Current.Time, zone)
		if err != nil {
			return weather.Snapshot{}, fmt.Errorf("current time %q: %w", p.Current.Time, err)
		}
		snap.Current.Time = t
	}
	snap.Current.Temperature = deref(p.Current.Temperature)
	snap.Current.ApparentTemperature = deref(p.Current.ApparentTemperature)
	snap.Current.HumidityPercent = deref(p.Current.RelativeHumidity)
	snap.Current.WindSpeed = deref(p.Current.WindSpeed)
	snap.Current.Pressure = deref(p.Current.SurfacePressure)
	snap.Current.WeatherCode = derefInt(p.Current.WeatherCode)

	h := p.Hourly
	n := len(h.Time)
	if !sameLength(n, len(h.Temperature), len(h.Precipitation), len(h.PrecipitationProbability), len(h.WindSpeed)) {
		return weather.Snapshot{}, errors.New("hourly arrays have mismatched lengths")
	}
	snap.Hourly = make([]weather.HourlyPoint, n)
	for i := 0; i < n; i++ {
		t, err := time.ParseInLocation(openMeteoTimeLayout, h.Time[i], zone)
		if err != nil {
			return weather.Snapshot{}, fmt.Errorf("hourly time %q: %w", h.Time[i], err)
		}
		if i > 0 && !t.After(snap.Hourly[i-1].Time) {
			return weather.Snapshot{}, fmt.Errorf("hourly times not ascending at %q", h.Time[i])
		}
		snap.Hourly[i] = weather.HourlyPoint{
			Time:                     t,
			Temperature:              deref(h.Temperature[i]),
			WindSpeed:                deref(h.WindSpeed[i]),
			PrecipitationAmount:      deref(h.Precipitation[i]),
			PrecipitationProbability: deref(h.PrecipitationProbability[i]),
		}
	}

	d := p.Daily
	n = len(d.Time)
	if !sameLength(n, len(d.WeatherCode), len(d.TemperatureMax), len(d.TemperatureMin), len(d.PrecipitationProbabilityMax)) {
		return weather.Snapshot{}, errors.New("daily arrays have mismatched lengths")
	}
	snap.Daily = make([]weather.DailyPoint, n)
	for i := 0; i < n; i++ {
		t, err := time.ParseInLocation(openMeteoDateLayout, d.Time[i], zone)
		if err != nil {
			return weather.Snapshot{}, fmt.Errorf("daily date %q: %w", d.Time[i], err)
		}
		if i > 0 && !t.After(snap.Daily[i-1].Date) {
			return weather.Snapshot{}, fmt.Errorf("daily dates not ascending at %q", d.Time[i])
		}
		snap.Daily[i] = weather.DailyPoint{
			Date:              t,
			WeatherCode:       derefInt(d.WeatherCode[i]),
			TempMax:           deref(d.TemperatureMax[i]),
			TempMin:           deref(d.TemperatureMin[i]),
			PrecipProbability: deref(d.PrecipitationProbabilityMax[i]),
		}
	}

	return snap, nil
}

// labels reads the unit labels the response reports. Missing labels fall
// back to the defaults of the requested unit.
func labels(p openMeteoPayload, unit units.Unit) units.Labels {
	fallback := units.DefaultLabels(unit)
	pick := func(m map[string]string, key, def string) string {
		if v := strings.TrimSpace(m[key]); v != "" {
			return v
		}
		return def
	}
	return units.Labels{
		Temperature:   pick(p.CurrentUnits, "temperature_2m", fallback.Temperature),
		WindSpeed:     pick(p.CurrentUnits, "wind_speed_10m", fallback.WindSpeed),
		Pressure:      pick(p.CurrentUnits, "surface_pressure", fallback.Pressure),
		Precipitation: pick(p.HourlyUnits, "precipitation", fallback.Precipitation),
		Humidity:      pick(p.CurrentUnits, "relative_humidity_2m", fallback.Humidity),
	}
}

func sameLength(n int, others ...int) bool {
	for _, o := range others {
		if o != n {
			return false
		}
	}
	return true
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
