package dashboard

import (
	"context"
	"errors"

	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Message returns the text shown to the user for an operation error.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		return "A newer request replaced this one."
	case errors.Is(err, location.ErrEmptyQuery):
		return "Please enter a city name"
	case errors.Is(err, location.ErrCoordinatesRange):
		return "Please enter valid coordinates (Lat: -90 to 90, Lon: -180 to 180)"
	case errors.Is(err, ErrInvalidUnit):
		return "Please choose celsius or fahrenheit"
	case errors.Is(err, location.ErrInvalidInput):
		return "Please check your input and try again."
	case errors.Is(err, location.ErrNotFound):
		return "City not found. Please try another name or enter coordinates manually."
	case errors.Is(err, location.ErrTransient):
		return "Failed to search for city. Please try again."
	case errors.Is(err, weather.ErrFetch):
		return "Failed to fetch weather data. Please try again."
	case errors.Is(err, ErrNoLocation):
		return "No location loaded yet. Search for a city or enter coordinates."
	default:
		return "Something went wrong. Please try again."
	}
}
