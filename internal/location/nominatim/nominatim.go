package nominatim

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

	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/upstream"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "weather-dashboard/1.0"
)

var errGeocode = errors.New("nominatim error")

// Config configures a Client. Zero values fall back to the public endpoint
// and the one request per second usage policy.
type Config struct {
	BaseURL           string
	UserAgent         string
	RequestsPerSecond float64
	Breaker           upstream.BreakerConfig
	Observer          upstream.Observer
}

// Client implements location.Geocoder against OpenStreetMap Nominatim.
type Client struct {
	baseURL   string
	userAgent string
	httpCfg   upstream.Config
	circuit   *gobreaker.CircuitBreaker
}

var _ location.Geocoder = (*Client)(nil)

func NewClient(client *http.Client, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Breaker.Timeout == 0 {
		cfg.Breaker.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		httpCfg: upstream.Config{
			Name:     "nominatim",
			Client:   client,
			Limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
			Observer: cfg.Observer,
		},
		circuit: upstream.NewBreaker("nominatim", cfg.Breaker),
	}
}

type addressPayload struct {
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	Suburb        string `json:"suburb"`
	Neighbourhood string `json:"neighbourhood"`
	County        string `json:"county"`
	State         string `json:"state"`
	Country       string `json:"country"`
	CountryCode   string `json:"country_code"`
}

type placePayload struct {
	Lat         string          `json:"lat"`
	Lon         string          `json:"lon"`
	DisplayName string          `json:"display_name"`
	Address     *addressPayload `json:"address"`
	Error       string          `json:"error"`
}

func (p placePayload) toPlace() (location.Place, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return location.Place{}, fmt.Errorf("%w: bad latitude %q", errGeocode, p.Lat)
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return location.Place{}, fmt.Errorf("%w: bad longitude %q", errGeocode, p.Lon)
	}

	place := location.Place{Latitude: lat, Longitude: lon, DisplayName: p.DisplayName}
	if a := p.Address; a != nil {
		place.Address = location.Address{
			City:          a.City,
			Town:          a.Town,
			Village:       a.Village,
			Suburb:        a.Suburb,
			Neighbourhood: a.Neighbourhood,
			County:        a.County,
			State:         a.State,
			Country:       a.Country,
			CountryCode:   a.CountryCode,
		}
	}
	return place, nil
}

// Search runs a forward lookup. Postal-code requests use the structured
// postalcode parameter instead of free text.
func (c *Client) Search(ctx context.Context, req location.SearchRequest) ([]location.Place, error) {
	values := url.Values{}
	values.Set("format", "jsonv2")
	values.Set("addressdetails", "1")
	limit := req.Limit
	if limit <= 0 {
		limit = 1
	}
	values.Set("limit", strconv.Itoa(limit))
	if req.PostalCode != "" {
		values.Set("postalcode", req.PostalCode)
	} else {
		values.Set("q", req.Text)
	}
	if len(req.CountryCodes) > 0 {
		values.Set("countrycodes", strings.Join(req.CountryCodes, ","))
	}

	var payload []placePayload
	if err := c.get(ctx, "/search", values, &payload); err != nil {
		return nil, err
	}

	places := make([]location.Place, 0, len(payload))
	for _, p := range payload {
		place, err := p.toPlace()
		if err != nil {
			return nil, err
		}
		places = append(places, place)
	}
	return places, nil
}

func (c *Client) Reverse(ctx context.Context, lat, lon float64) (location.Place, error) {
	values := url.Values{}
	values.Set("format", "jsonv2")
	values.Set("addressdetails", "1")
	values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	var payload placePayload
	if err := c.get(ctx, "/reverse", values, &payload); err != nil {
		return location.Place{}, err
	}
	if payload.Error != "" {
		return location.Place{}, fmt.Errorf("%w: %s", errGeocode, payload.Error)
	}
	return payload.toPlace()
}

func (c *Client) get(ctx context.Context, path string, values url.Values, out any) error {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := upstream.Do(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode nominatim %s: %w", path, err)
	}
	return nil
}
