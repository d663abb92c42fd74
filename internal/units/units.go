package units

import "strings"

// Unit is the measurement system used for temperature and wind speed.
type Unit string

const (
	Celsius    Unit = "celsius"
	Fahrenheit Unit = "fahrenheit"
)

// Default is used when nothing else decides the unit.
const Default = Celsius

// Parse normalizes a unit token. Unknown tokens report false.
func Parse(token string) (Unit, bool) {
	switch Unit(strings.ToLower(strings.TrimSpace(token))) {
	case Celsius:
		return Celsius, true
	case Fahrenheit:
		return Fahrenheit, true
	default:
		return "", false
	}
}

// Valid reports whether u is one of the known units.
func (u Unit) Valid() bool {
	return u == Celsius || u == Fahrenheit
}

// Toggle returns the other unit.
func (u Unit) Toggle() Unit {
	if u == Fahrenheit {
		return Celsius
	}
	return Fahrenheit
}

// Resolve picks the effective unit for a location.
// An explicit request wins over the stored preference, which wins over the
// country heuristic (fahrenheit for "us" only). Invalid tokens count as absent.
func Resolve(countryCode, explicit, stored string) Unit {
	if u, ok := Parse(explicit); ok {
		return u
	}
	if u, ok := Parse(stored); ok {
		return u
	}
	if cc := strings.TrimSpace(countryCode); cc != "" {
		if strings.EqualFold(cc, "us") {
			return Fahrenheit
		}
		return Celsius
	}
	return Default
}

// Labels are the display strings that accompany values in a given unit.
type Labels struct {
	Temperature   string `json:"temperature"`
	WindSpeed     string `json:"windSpeed"`
	Pressure      string `json:"pressure"`
	Precipitation string `json:"precipitation"`
	Humidity      string `json:"humidity"`
}

// DefaultLabels are used when the forecast response omits unit metadata.
func DefaultLabels(u Unit) Labels {
	if u == Fahrenheit {
		return Labels{
			Temperature:   "°F",
			WindSpeed:     "mph",
			Pressure:      "hPa",
			Precipitation: "inch",
			Humidity:      "%",
		}
	}
	return Labels{
		Temperature:   "°C",
		WindSpeed:     "km/h",
		Pressure:      "hPa",
		Precipitation: "mm",
		Humidity:      "%",
	}
}

// ForecastParams translates u into the forecast service's unit vocabulary.
func ForecastParams(u Unit) (temperature, windSpeed, precipitation string) {
	if u == Fahrenheit {
		return "fahrenheit", "mph", "inch"
	}
	return "celsius", "kmh", "mm"
}
