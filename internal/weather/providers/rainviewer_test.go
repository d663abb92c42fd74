package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func radarServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLatestFrame(t *testing.T) {
	srv := radarServer(t, `{
		"version": "2.0",
		"host": "https://tilecache.rainviewer.com",
		"radar": {
			"past": [
				{"time": 1717250400, "path": "/v2/radar/1717250400"},
				{"time": 1717251000, "path": "/v2/radar/1717251000"},
				{"time": 1717250700, "path": "/v2/radar/1717250700"}
			],
			"nowcast": []
		}
	}`)

	frame, err := NewRainViewerProvider(srv.Client(), srv.URL, nil).LatestFrame(context.Background())
	require.NoError(t, err)
	assert.Equal(t, time.Unix(1717251000, 0).UTC(), frame.Time)
	assert.Equal(t, "https://tilecache.rainviewer.com/v2/radar/1717251000/256/{z}/{x}/{y}/2/1_1.png", frame.TileURLTemplate)
}

func TestLatestFrameEmptyManifest(t *testing.T) {
	srv := radarServer(t, `{"host": "https://tilecache.rainviewer.com", "radar": {"past": []}}`)

	_, err := NewRainViewerProvider(srv.Client(), srv.URL, nil).LatestFrame(context.Background())
	assert.ErrorIs(t, err, weather.ErrFetch)
}
