package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-dashboard/internal/dashboard"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

type mockDashboard struct {
	mock.Mock
}

func (m *mockDashboard) Search(ctx context.Context, text, explicitUnit string) (dashboard.View, error) {
	args := m.Called(text, explicitUnit)
	return args.Get(0).(dashboard.View), args.Error(1)
}

func (m *mockDashboard) LookupCoordinates(ctx context.Context, lat, lon float64, explicitUnit string) (dashboard.View, error) {
	args := m.Called(lat, lon, explicitUnit)
	return args.Get(0).(dashboard.View), args.Error(1)
}

func (m *mockDashboard) SetUnit(ctx context.Context, token string) (dashboard.View, bool, error) {
	args := m.Called(token)
	return args.Get(0).(dashboard.View), args.Bool(1), args.Error(2)
}

func (m *mockDashboard) ToggleUnit(ctx context.Context) (dashboard.View, bool, error) {
	args := m.Called()
	return args.Get(0).(dashboard.View), args.Bool(1), args.Error(2)
}

func (m *mockDashboard) ClearUnit(ctx context.Context) (dashboard.View, bool, error) {
	args := m.Called()
	return args.Get(0).(dashboard.View), args.Bool(1), args.Error(2)
}

func (m *mockDashboard) View(now time.Time) (dashboard.View, error) {
	args := m.Called(now)
	return args.Get(0).(dashboard.View), args.Error(1)
}

type stubRadar struct {
	frame weather.RadarFrame
	err   error
}

func (s stubRadar) LatestFrame(ctx context.Context) (weather.RadarFrame, error) {
	return s.frame, s.err
}

var testNow = time.Date(2024, 6, 1, 13, 30, 0, 0, time.UTC)

func newTestApp(d Dashboard, radar weather.RadarSource, metrics http.Handler) *fiber.App {
	app := NewApp(AppConfig{}, zerolog.Nop())
	RegisterRoutes(app, Deps{
		Dashboard: d,
		Radar:     radar,
		Metrics:   metrics,
		Now:       func() time.Time { return testNow },
	})
	return app
}

func londonView() dashboard.View {
	return dashboard.View{
		Seq:      1,
		Location: location.Query{Latitude: 51.5074, Longitude: -0.1278, DisplayName: "London, UK", CountryCode: "gb"},
		Unit:     units.Celsius,
	}
}

func doRequest(t *testing.T, app *fiber.App, method, target, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	app := newTestApp(&mockDashboard{}, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "weather-dashboard", body["service"])
}

func TestSearch(t *testing.T) {
	d := &mockDashboard{}
	d.On("Search", "London", "").Return(londonView(), nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/search?q=London", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "celsius", body["unit"])
	loc := body["location"].(map[string]any)
	assert.Equal(t, "London, UK", loc["displayName"])
	d.AssertExpectations(t)
}

func TestSearchNormalizesUnit(t *testing.T) {
	d := &mockDashboard{}
	d.On("Search", "Austin", "fahrenheit").Return(londonView(), nil).Once()
	app := newTestApp(d, nil, nil)

	status, _ := doRequest(t, app, http.MethodGet, "/api/v1/search?q=Austin&unit=Fahrenheit", "")
	assert.Equal(t, http.StatusOK, status)
	d.AssertExpectations(t)
}

func TestSearchRejectsUnknownUnit(t *testing.T) {
	d := &mockDashboard{}
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/search?q=Austin&unit=kelvin", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, true, body["error"])
	d.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"empty", location.ErrEmptyQuery, http.StatusBadRequest, "Please enter a city name"},
		{"not found", location.ErrNotFound, http.StatusNotFound, "City not found. Please try another name or enter coordinates manually."},
		{"geocoder down", location.ErrTransient, http.StatusBadGateway, "Failed to search for city. Please try again."},
		{"forecast down", &weather.FetchError{Status: 503, Err: errors.New("boom")}, http.StatusBadGateway, "Failed to fetch weather data. Please try again."},
		{"superseded", dashboard.ErrSuperseded, http.StatusConflict, "A newer request replaced this one."},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Something went wrong. Please try again."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDashboard{}
			d.On("Search", "x", "").Return(dashboard.View{}, tt.err).Once()
			app := newTestApp(d, nil, nil)

			status, body := doRequest(t, app, http.MethodGet, "/api/v1/search?q=x", "")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestCoordinates(t *testing.T) {
	d := &mockDashboard{}
	d.On("LookupCoordinates", 51.5074, -0.1278, "").Return(londonView(), nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/coordinates?lat=51.5074&lon=-0.1278", "")
	assert.Equal(t, http.StatusOK, status)
	assert.EqualValues(t, 1, body["seq"])
	d.AssertExpectations(t)
}

func TestCoordinatesValidation(t *testing.T) {
	for _, target := range []string{
		"/api/v1/coordinates?lat=91&lon=0",
		"/api/v1/coordinates?lat=0&lon=-180.5",
		"/api/v1/coordinates?lat=abc&lon=0",
		"/api/v1/coordinates?lon=0",
	} {
		d := &mockDashboard{}
		app := newTestApp(d, nil, nil)

		status, body := doRequest(t, app, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, status, target)
		assert.Equal(t, "Please enter valid coordinates (Lat: -90 to 90, Lon: -180 to 180)", body["message"], target)
		d.AssertNotCalled(t, "LookupCoordinates", mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestCoordinatesBadUnit(t *testing.T) {
	app := newTestApp(&mockDashboard{}, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/coordinates?lat=10&lon=10&unit=rankine", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please choose celsius or fahrenheit", body["message"])
}

func TestDashboardView(t *testing.T) {
	d := &mockDashboard{}
	d.On("View", testNow).Return(londonView(), nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "celsius", body["unit"])
	d.AssertExpectations(t)
}

func TestDashboardViewWithoutLocation(t *testing.T) {
	d := &mockDashboard{}
	d.On("View", testNow).Return(dashboard.View{}, dashboard.ErrNoLocation).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, true, body["error"])
}

func TestSetUnit(t *testing.T) {
	view := londonView()
	view.Unit = units.Fahrenheit

	d := &mockDashboard{}
	d.On("SetUnit", "fahrenheit").Return(view, true, nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodPut, "/api/v1/unit", `{"unit":" FAHRENHEIT "}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fahrenheit", body["unit"])
	assert.Contains(t, body, "location")
	d.AssertExpectations(t)
}

func TestSetUnitWithNothingShown(t *testing.T) {
	d := &mockDashboard{}
	d.On("SetUnit", "celsius").Return(dashboard.View{}, false, nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodPut, "/api/v1/unit", `{"unit":"celsius"}`)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"unit": "celsius"}, body)
}

func TestSetUnitValidation(t *testing.T) {
	d := &mockDashboard{}
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodPut, "/api/v1/unit", `{"unit":"kelvin"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please choose celsius or fahrenheit", body["message"])

	status, _ = doRequest(t, app, http.MethodPut, "/api/v1/unit", `{"unit":`)
	assert.Equal(t, http.StatusBadRequest, status)

	d.AssertNotCalled(t, "SetUnit", mock.Anything)
}

func TestToggleUnit(t *testing.T) {
	view := londonView()
	view.Unit = units.Fahrenheit

	d := &mockDashboard{}
	d.On("ToggleUnit").Return(view, true, nil).Once()
	d.On("ToggleUnit").Return(dashboard.View{}, false, nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodPost, "/api/v1/unit/toggle", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "fahrenheit", body["unit"])

	status, body = doRequest(t, app, http.MethodPost, "/api/v1/unit/toggle", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, body)
	d.AssertExpectations(t)
}

func TestClearUnit(t *testing.T) {
	d := &mockDashboard{}
	d.On("ClearUnit").Return(londonView(), true, nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodDelete, "/api/v1/unit", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "celsius", body["unit"])
}

func TestClearUnitWithNothingShown(t *testing.T) {
	d := &mockDashboard{}
	d.On("ClearUnit").Return(dashboard.View{}, false, nil).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodDelete, "/api/v1/unit", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, body)
}

func TestClearUnitFetchFailure(t *testing.T) {
	d := &mockDashboard{}
	d.On("ClearUnit").Return(dashboard.View{}, false, &weather.FetchError{Status: 500}).Once()
	app := newTestApp(d, nil, nil)

	status, body := doRequest(t, app, http.MethodDelete, "/api/v1/unit", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "Failed to fetch weather data. Please try again.", body["message"])
}

func TestWeatherCodes(t *testing.T) {
	app := newTestApp(&mockDashboard{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather-codes", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var codes []weather.CodeInfo
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&codes))
	assert.Len(t, codes, len(weather.Codes()))
}

func TestRadar(t *testing.T) {
	frame := weather.RadarFrame{
		Time:            time.Unix(1717248000, 0).UTC(),
		TileURLTemplate: "https://tilecache.rainviewer.com/v2/radar/1717248000/256/{z}/{x}/{y}/2/1_1.png",
	}
	app := newTestApp(&mockDashboard{}, stubRadar{frame: frame}, nil)

	status, body := doRequest(t, app, http.MethodGet, "/api/v1/radar", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, frame.TileURLTemplate, body["tileUrlTemplate"])

	app = newTestApp(&mockDashboard{}, stubRadar{err: weather.ErrFetch}, nil)
	status, body = doRequest(t, app, http.MethodGet, "/api/v1/radar", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "radar imagery is unavailable", body["message"])
}

func TestRadarDisabled(t *testing.T) {
	app := newTestApp(&mockDashboard{}, nil, nil)

	status, _ := doRequest(t, app, http.MethodGet, "/api/v1/radar", "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestMetricsEndpoint(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "weather_dashboard_up 1\n")
	})
	app := newTestApp(&mockDashboard{}, nil, metrics)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "weather_dashboard_up 1")
}
