package dashboard

import (
	"math"
	"strconv"
	"time"

	"github.com/i474232898/weather-dashboard/internal/clock"
	"github.com/i474232898/weather-dashboard/internal/location"
	"github.com/i474232898/weather-dashboard/internal/units"
	"github.com/i474232898/weather-dashboard/internal/weather"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const chartHours = 24

var printer = message.NewPrinter(language.AmericanEnglish)

// View is the display-ready record of the dashboard.
type View struct {
	Seq       uint64         `json:"seq"`
	Location  location.Query `json:"location"`
	Unit      units.Unit     `json:"unit"`
	FetchedAt time.Time      `json:"fetchedAt"`
	Stale     bool           `json:"stale"`
	Units     units.Labels   `json:"units"`
	Current   CurrentCard    `json:"current"`
	Today     TodayCard      `json:"today"`
	Charts    Charts         `json:"charts"`
	Forecast  []ForecastCard `json:"forecast"`
}

type CurrentCard struct {
	Date            string `json:"date"`
	Emoji           string `json:"emoji"`
	Description     string `json:"description"`
	Temperature     int    `json:"temperature"`
	FeelsLike       int    `json:"feelsLike"`
	TemperatureUnit string `json:"temperatureUnit"`
	Humidity        string `json:"humidity"`
	Wind            string `json:"wind"`
	Pressure        string `json:"pressure"`
}

type TodayCard struct {
	High string `json:"high"`
	Low  string `json:"low"`
}

// Charts carries the series for the 24-hour and daily charts. NowMarker is
// the fractional index of the current time in HourLabels, or nil.
type Charts struct {
	HourLabels         []string  `json:"hourLabels"`
	Temperatures       []float64 `json:"temperatures"`
	WindSpeeds         []float64 `json:"windSpeeds"`
	Precipitation      []float64 `json:"precipitation"`
	NowMarker          *float64  `json:"nowMarker"`
	DayLabels          []string  `json:"dayLabels"`
	PrecipProbability  []float64 `json:"precipProbability"`
	TemperatureTitle   string    `json:"temperatureTitle"`
	WindTitle          string    `json:"windTitle"`
	PrecipitationTitle string    `json:"precipitationTitle"`
}

type ForecastCard struct {
	Day         string `json:"day"`
	Date        string `json:"date"`
	Emoji       string `json:"emoji"`
	Description string `json:"description"`
	High        string `json:"high"`
	Low         string `json:"low"`
	Precip      string `json:"precip"`
}

// round matches JavaScript's Math.round: halves go up.
func round(v float64) int {
	return int(math.Floor(v + 0.5))
}

func degrees(v float64) string {
	return strconv.Itoa(round(v)) + "°"
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}

func buildView(st State, now time.Time, tracker clock.Tracker) View {
	snap := st.Snapshot
	zone := snap.Zone()
	labels := snap.Units

	info := weather.Describe(snap.Current.WeatherCode)
	v := View{
		Seq:       st.Seq,
		Location:  *st.Query,
		Unit:      st.Unit,
		FetchedAt: snap.FetchedAt,
		Stale:     tracker.IsStale(st.LastFetch, now),
		Units:     labels,
		Current: CurrentCard{
			Date:            now.In(zone).Format("Monday, January 2, 2006"),
			Emoji:           info.Emoji,
			Description:     info.Description,
			Temperature:     round(snap.Current.Temperature),
			FeelsLike:       round(snap.Current.ApparentTemperature),
			TemperatureUnit: labels.Temperature,
			Humidity:        percent(snap.Current.HumidityPercent),
			Wind:            printer.Sprintf("%d %s", round(snap.Current.WindSpeed), labels.WindSpeed),
			Pressure:        printer.Sprintf("%d %s", round(snap.Current.Pressure), labels.Pressure),
		},
		Charts:   buildCharts(snap, now.In(zone)),
		Forecast: []ForecastCard{},
	}

	if len(snap.Daily) > 0 {
		v.Today = TodayCard{High: degrees(snap.Daily[0].TempMax), Low: degrees(snap.Daily[0].TempMin)}
	}
	for _, d := range snap.Daily[min(1, len(snap.Daily)):] {
		info := weather.Describe(d.WeatherCode)
		v.Forecast = append(v.Forecast, ForecastCard{
			Day:         d.Date.Format("Monday"),
			Date:        d.Date.Format("Jan 2"),
			Emoji:       info.Emoji,
			Description: info.Description,
			High:        degrees(d.TempMax),
			Low:         degrees(d.TempMin),
			Precip:      percent(d.PrecipProbability),
		})
	}
	return v
}

func buildCharts(snap *weather.Snapshot, now time.Time) Charts {
	hourly := snap.Hourly[:min(chartHours, len(snap.Hourly))]
	c := Charts{
		HourLabels:         make([]string, len(hourly)),
		Temperatures:       make([]float64, len(hourly)),
		WindSpeeds:         make([]float64, len(hourly)),
		Precipitation:      make([]float64, len(hourly)),
		DayLabels:          make([]string, len(snap.Daily)),
		PrecipProbability:  make([]float64, len(snap.Daily)),
		TemperatureTitle:   "Temperature (" + snap.Units.Temperature + ")",
		WindTitle:          "Wind Speed (" + snap.Units.WindSpeed + ")",
		PrecipitationTitle: "Precipitation Probability (%)",
	}

	times := make([]time.Time, len(hourly))
	for i, h := range hourly {
		times[i] = h.Time
	}
	hours := clock.HourLabels(times)
	for i, h := range hourly {
		c.HourLabels[i] = strconv.Itoa(hours[i]) + ":00"
		c.Temperatures[i] = h.Temperature
		c.WindSpeeds[i] = h.WindSpeed
		c.Precipitation[i] = h.PrecipitationAmount
	}
	if marker, ok := clock.CurrentHourFraction(hours, now); ok {
		c.NowMarker = &marker
	}

	for i, d := range snap.Daily {
		c.DayLabels[i] = d.Date.Format("Mon, Jan 2")
		c.PrecipProbability[i] = d.PrecipProbability
	}
	return c
}
