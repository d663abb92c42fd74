package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"github.com/sony/gobreaker"
)

const DefaultRainViewerURL = "https://api.rainviewer.com/public/weather-maps.json"

// RainViewerProvider implements weather.RadarSource from the public
// weather-maps manifest.
type RainViewerProvider struct {
	manifestURL string
	httpCfg     upstream.Config
	circuit     *gobreaker.CircuitBreaker
}

var _ weather.RadarSource = (*RainViewerProvider)(nil)

func NewRainViewerProvider(client *http.Client, manifestURL string, observer upstream.Observer) *RainViewerProvider {
	if manifestURL == "" {
		manifestURL = DefaultRainViewerURL
	}
	return &RainViewerProvider{
		manifestURL: manifestURL,
		httpCfg: upstream.Config{
			Name:     "rainviewer",
			Client:   client,
			Backoff:  upstream.BackoffConfig{MaxRetries: 2, InitialInterval: 250 * time.Millisecond, MaxInterval: 2 * time.Second},
			Observer: observer,
		},
		circuit: upstream.NewBreaker("rainviewer", upstream.BreakerConfig{Timeout: time.Minute}),
	}
}

type rainViewerManifest struct {
	Host  string `json:"host"`
	Radar struct {
		Past []struct {
			Time int64  `json:"time"`
			Path string `json:"path"`
		} `json:"past"`
	} `json:"radar"`
}

// LatestFrame returns the newest past radar frame.
func (p *RainViewerProvider) LatestFrame(ctx context.Context) (weather.RadarFrame, error) {
	resp, err := upstream.Do(ctx, p.httpCfg, p.circuit, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, p.manifestURL, nil)
	})
	if err != nil {
		return weather.RadarFrame{}, fetchError(err)
	}
	defer resp.Body.Close()

	var m rainViewerManifest
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return weather.RadarFrame{}, &weather.FetchError{Err: fmt.Errorf("decode radar manifest: %w", err)}
	}

	past := m.Radar.Past
	if len(past) == 0 || m.Host == "" {
		return weather.RadarFrame{}, &weather.FetchError{Err: errors.New("radar manifest has no frames")}
	}

	latest := past[0]
	for _, f := range past[1:] {
		if f.Time > latest.Time {
			latest = f
		}
	}

	return weather.RadarFrame{
		Time:            time.Unix(latest.Time, 0).UTC(),
		TileURLTemplate: strings.TrimRight(m.Host, "/") + latest.Path + "/256/{z}/{x}/{y}/2/1_1.png",
	}, nil
}
