package location

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Placeholder is the display name used when nothing better is known.
const Placeholder = "Location"

var (
	ErrInvalidInput = errors.New("invalid location input")
	ErrNotFound     = errors.New("location not found")
	ErrTransient    = errors.New("geocoding unavailable")

	// Both are ErrInvalidInput.
	ErrEmptyQuery       = fmt.Errorf("%w: empty search text", ErrInvalidInput)
	ErrCoordinatesRange = fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
)

// Query is a resolved location. CountryCode is lowercase ISO 3166-1 alpha-2,
// or empty when unknown.
type Query struct {
	Latitude    float64 `json:"latitude" validate:"latitude"`
	Longitude   float64 `json:"longitude" validate:"longitude"`
	DisplayName string  `json:"displayName"`
	CountryCode string  `json:"countryCode,omitempty"`
}

// Address holds the address components a geocoder may return.
type Address struct {
	City          string `json:"city,omitempty"`
	Town          string `json:"town,omitempty"`
	Village       string `json:"village,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	County        string `json:"county,omitempty"`
	State         string `json:"state,omitempty"`
	Country       string `json:"country,omitempty"`
	CountryCode   string `json:"country_code,omitempty"`
}

// Place is one geocoding result.
type Place struct {
	Latitude    float64
	Longitude   float64
	Address     Address
	DisplayName string
}

// SearchRequest asks a geocoder for matches to free text or a postal code.
type SearchRequest struct {
	Text         string
	PostalCode   string
	CountryCodes []string
	Limit        int
}

func (r SearchRequest) String() string {
	if r.PostalCode != "" {
		return fmt.Sprintf("postalcode=%s countrycodes=%s", r.PostalCode, strings.Join(r.CountryCodes, ","))
	}
	return r.Text
}

// Geocoder is the forward and reverse geocoding collaborator.
type Geocoder interface {
	Search(ctx context.Context, req SearchRequest) ([]Place, error)
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

var usCountryNames = map[string]struct{}{
	"united states":            {},
	"united states of america": {},
	"usa":                      {},
}

// IsUS reports whether the address is in the United States.
func (a Address) IsUS() bool {
	if strings.EqualFold(strings.TrimSpace(a.CountryCode), "us") {
		return true
	}
	_, ok := usCountryNames[strings.ToLower(strings.TrimSpace(a.Country))]
	return ok
}

// Locality returns the most specific populated-place component.
func (a Address) Locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.Suburb, a.Neighbourhood, a.County} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// DisplayName derives the label shown for a place.
func DisplayName(addr Address, display string) string {
	if locality := addr.Locality(); locality != "" {
		state := strings.TrimSpace(addr.State)
		country := strings.TrimSpace(addr.Country)
		switch {
		case addr.IsUS() && state != "":
			return locality + ", " + state
		case country != "":
			return locality + ", " + country
		default:
			return locality
		}
	}

	if first, _, _ := strings.Cut(display, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	return Placeholder
}
