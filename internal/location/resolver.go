package location

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

var (
	postalCodePattern = regexp.MustCompile(`^\d{5}$`)
	validate          = validator.New()
)

// Resolver turns user input into a Query using a Geocoder.
type Resolver struct {
	geocoder Geocoder
	logger   zerolog.Logger
}

// NewResolver creates a Resolver. A nil geocoder disables reverse enrichment
// and makes forward resolution fail as transient.
func NewResolver(geocoder Geocoder, logger zerolog.Logger) *Resolver {
	return &Resolver{geocoder: geocoder, logger: logger}
}

// Forward resolves a place name or a US postal code to its best single match.
func (r *Resolver) Forward(ctx context.Context, text string) (Query, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Query{}, ErrEmptyQuery
	}
	if r.geocoder == nil {
		return Query{}, fmt.Errorf("%w: no geocoder configured", ErrTransient)
	}

	req := SearchRequest{Text: text, Limit: 1}
	if postalCodePattern.MatchString(text) {
		req = SearchRequest{PostalCode: text, CountryCodes: []string{"us"}, Limit: 1}
	}

	places, err := r.geocoder.Search(ctx, req)
	if err != nil {
		r.logger.Warn().
			Str("query", req.String()).
			Err(err).
			Msg("forward geocoding failed")
		return Query{}, fmt.Errorf("%w: %w", ErrTransient, err)
	}
	if len(places) == 0 {
		return Query{}, fmt.Errorf("%w: %q", ErrNotFound, text)
	}

	top := places[0]
	q := Query{
		Latitude:    top.Latitude,
		Longitude:   top.Longitude,
		DisplayName: DisplayName(top.Address, top.DisplayName),
		CountryCode: strings.ToLower(strings.TrimSpace(top.Address.CountryCode)),
	}
	if err := ValidateCoordinates(q.Latitude, q.Longitude); err != nil {
		r.logger.Warn().
			Str("query", req.String()).
			Float64("lat", q.Latitude).
			Float64("lon", q.Longitude).
			Msg("geocoder returned coordinates out of range")
		return Query{}, fmt.Errorf("%w: geocoder returned (%v, %v)", ErrTransient, q.Latitude, q.Longitude)
	}

	r.logger.Debug().
		Str("query", req.String()).
		Str("display_name", q.DisplayName).
		Str("country_code", q.CountryCode).
		Msg("forward geocoding resolved")
	return q, nil
}

// Reverse validates coordinates and tries to name them. Enrichment failures
// are not errors: the coordinates come back with the placeholder name.
func (r *Resolver) Reverse(ctx context.Context, lat, lon float64) (Query, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return Query{}, err
	}

	q := Query{Latitude: lat, Longitude: lon, DisplayName: Placeholder}
	if r.geocoder == nil {
		return q, nil
	}

	place, err := r.geocoder.Reverse(ctx, lat, lon)
	if err != nil {
		r.logger.Debug().
			Float64("lat", lat).
			Float64("lon", lon).
			Err(err).
			Msg("reverse geocoding failed; using coordinates only")
		return q, nil
	}

	q.DisplayName = DisplayName(place.Address, place.DisplayName)
	q.CountryCode = strings.ToLower(strings.TrimSpace(place.Address.CountryCode))
	return q, nil
}

// ValidateCoordinates checks latitude in [-90,90] and longitude in [-180,180].
func ValidateCoordinates(lat, lon float64) error {
	q := Query{Latitude: lat, Longitude: lon}
	if err := validate.Struct(q); err != nil {
		return fmt.Errorf("%w: (%v, %v)", ErrCoordinatesRange, lat, lon)
	}
	return nil
}

// Validate checks a stored or decoded Query.
func (q Query) Validate() error {
	return ValidateCoordinates(q.Latitude, q.Longitude)
}
