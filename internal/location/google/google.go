// Package google adapts the Google Geocoding API, through kelvins/geocoder,
// to location.Geocoder.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/kelvins/geocoder"
)

// noResults is the error text geocoder returns for a ZERO_RESULTS status.
const noResults = "No results found."

var errNoAddress = errors.New("no address for location")

// geocoder keeps its key in a package variable.
var keyMu sync.Mutex

// Client implements location.Geocoder. The underlying library is not
// context aware, so calls run in a goroutine and the caller stops waiting
// when ctx is done.
type Client struct {
	apiKey  string
	forward func(geocoder.Address) (geocoder.Location, error)
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

var _ location.Geocoder = (*Client)(nil)

func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  apiKey,
		forward: geocoder.Geocoding,
		reverse: geocoder.GeocodingReverse,
	}
}

func (c *Client) Search(ctx context.Context, req location.SearchRequest) ([]location.Place, error) {
	addr := searchAddress(req)

	var loc geocoder.Location
	err := c.run(ctx, func() error {
		var err error
		loc, err = c.forward(addr)
		return err
	})
	if isNoResults(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("google geocoding: %w", err)
	}

	// Forward geocoding only yields coordinates; name them with a reverse call.
	place := location.Place{Latitude: loc.Latitude, Longitude: loc.Longitude}
	if named, err := c.Reverse(ctx, loc.Latitude, loc.Longitude); err == nil {
		place.Address = named.Address
		place.DisplayName = named.DisplayName
	}
	return []location.Place{place}, nil
}

func (c *Client) Reverse(ctx context.Context, lat, lon float64) (location.Place, error) {
	var addrs []geocoder.Address
	err := c.run(ctx, func() error {
		var err error
		addrs, err = c.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		return err
	})
	if err == nil && len(addrs) == 0 {
		err = errNoAddress
	}
	if err != nil {
		return location.Place{}, fmt.Errorf("google reverse geocoding: %w", err)
	}

	place := toPlace(addrs[0])
	place.Latitude, place.Longitude = lat, lon
	return place, nil
}

func (c *Client) run(ctx context.Context, call func() error) error {
	done := make(chan error, 1)
	go func() {
		keyMu.Lock()
		defer keyMu.Unlock()
		// geocoder indexes the first result for statuses it does not know,
		// such as OVER_DAILY_LIMIT.
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("unexpected geocoding response: %v", r)
			}
		}()

		geocoder.ApiKey = c.apiKey
		done <- call()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}

func searchAddress(req location.SearchRequest) geocoder.Address {
	if req.PostalCode != "" {
		addr := geocoder.Address{PostalCode: req.PostalCode}
		for _, cc := range req.CountryCodes {
			if strings.EqualFold(cc, "us") {
				addr.Country = "United States"
			}
		}
		return addr
	}
	return geocoder.Address{City: req.Text}
}

// toPlace maps a library address onto location.Address. Google returns
// country names only; the United States is the one that gets a code.
func toPlace(a geocoder.Address) location.Place {
	addr := location.Address{
		City:          a.City,
		Neighbourhood: a.Neighborhood,
		Suburb:        a.District,
		County:        a.County,
		State:         a.State,
		Country:       a.Country,
	}
	if addr.IsUS() {
		addr.CountryCode = "us"
	}
	return location.Place{Address: addr, DisplayName: a.FormattedAddress}
}

func isNoResults(err error) bool {
	return err != nil && err.Error() == noResults
}
