package httpapi

import (
	"fmt"
	"time"

	"github.com/i474232898/weather-core/internal/device"
	"github.com/i474232898/weather-core/internal/units"
	"github.com/i474232898/weather-core/internal/weather"
)

// recordView is a WeatherRecord rendered in the user's units.
type recordView struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	Country       string    `json:"country"`
	Condition     string    `json:"condition"`
	Description   string    `json:"description"`
	Glyph         string    `json:"glyph"`
	Temperature   string    `json:"temperature"`
	WindSpeed     string    `json:"windSpeed"`
	WindDirection string    `json:"windDirection,omitempty"`
	Humidity      string    `json:"humidity"`
	Clouds        string    `json:"clouds"`
	Pressure      string    `json:"pressure"`
	DistanceKm    *float64  `json:"distanceKm,omitempty"`
	ObservedAt    time.Time `json:"observedAt"`
}

type preferencesView struct {
	ResultCount     int    `json:"resultCount"`
	TemperatureUnit string `json:"temperatureUnit"`
	SpeedUnit       string `json:"speedUnit"`
}

type singleView struct {
	State   weather.DataState   `json:"state"`
	Error   *weather.FetchError `json:"error,omitempty"`
	Weather *recordView         `json:"weather,omitempty"`
}

type summaryView struct {
	Locations   int                  `json:"locations"`
	Temperature string               `json:"temperature"`
	WindSpeed   string               `json:"windSpeed"`
	Humidity    string               `json:"humidity"`
	Condition   string               `json:"condition"`
	Glyph       string               `json:"glyph"`
	Warmest     *weather.LocationRef `json:"warmest,omitempty"`
	Coldest     *weather.LocationRef `json:"coldest,omitempty"`
}

type multipleView struct {
	State   weather.DataState   `json:"state"`
	Error   *weather.FetchError `json:"error,omitempty"`
	Summary *summaryView        `json:"summary,omitempty"`
	Items   []recordView        `json:"items,omitempty"`
}

type snapshotView struct {
	Bookmark    weather.LocationRef `json:"bookmark"`
	Preferences preferencesView     `json:"preferences"`
	LastRefresh *time.Time          `json:"lastRefresh,omitempty"`
	Single      singleView          `json:"single"`
	Multiple    multipleView        `json:"multiple"`
}

func preferencesOf(s weather.Snapshot) preferencesView {
	speed := "kmh"
	if s.SpeedUnit == units.MilesPerHour {
		speed = "mph"
	}
	return preferencesView{
		ResultCount:     s.ResultCount.Count(),
		TemperatureUnit: s.TemperatureUnit.String(),
		SpeedUnit:       speed,
	}
}

func (d Deps) recordView(r weather.WeatherRecord, t units.Temperature, s units.Speed) recordView {
	v := recordView{
		ID:          r.Location.ID,
		Name:        r.Location.Name,
		Country:     r.Location.Country,
		Condition:   r.Condition,
		Description: r.Description,
		Glyph:       units.Glyph(r.ConditionCode, r.ObservedAt, r.Sunrise, r.Sunset),
		Temperature: units.FormatTemperature(r.Temperature, t),
		WindSpeed:   units.FormatSpeed(r.WindSpeed, s),
		Humidity:    fmt.Sprintf("%d%%", r.Humidity),
		Clouds:      fmt.Sprintf("%d%%", r.Clouds),
		Pressure:    fmt.Sprintf("%.0f hPa", r.Pressure),
		ObservedAt:  r.ObservedAt,
	}
	if r.WindDirection != nil {
		v.WindDirection = units.CompassPoint(*r.WindDirection)
	}
	if d.Locator != nil {
		if pos, ok := d.Locator.Current(); ok {
			km := weather.DistanceKm(pos, device.Coordinate{Lat: r.Location.Lat, Lon: r.Location.Lon})
			v.DistanceKm = &km
		}
	}
	return v
}

func (d Deps) snapshotView(s weather.Snapshot) snapshotView {
	now := d.Now()
	v := snapshotView{
		Bookmark:    s.Bookmark,
		Preferences: preferencesOf(s),
		Single:      singleView{State: s.SingleState(now, d.StaleAfter)},
		Multiple:    multipleView{State: s.MultipleState(now, d.StaleAfter)},
	}
	if !s.LastRefresh.IsZero() {
		lr := s.LastRefresh
		v.LastRefresh = &lr
	}

	if s.Single != nil {
		v.Single.Error = s.Single.Err
		if s.Single.Value != nil {
			rv := d.recordView(*s.Single.Value, s.TemperatureUnit, s.SpeedUnit)
			v.Single.Weather = &rv
		}
	}
	if s.Multiple != nil {
		v.Multiple.Error = s.Multiple.Err
		if s.Multiple.Value != nil {
			v.Multiple.Items = make([]recordView, 0, len(*s.Multiple.Value))
			for _, r := range *s.Multiple.Value {
				v.Multiple.Items = append(v.Multiple.Items, d.recordView(r, s.TemperatureUnit, s.SpeedUnit))
			}
			if sum, ok := weather.Summarize(*s.Multiple.Value); ok {
				v.Multiple.Summary = &summaryView{
					Locations:   sum.Locations,
					Temperature: units.FormatTemperature(sum.Temperature, s.TemperatureUnit),
					WindSpeed:   units.FormatSpeed(sum.WindSpeed, s.SpeedUnit),
					Humidity:    fmt.Sprintf("%.0f%%", sum.Humidity),
					Condition:   sum.Condition,
					Glyph:       units.Glyph(sum.ConditionCode, sum.ObservedAt, nil, nil),
					Warmest:     sum.Warmest,
					Coldest:     sum.Coldest,
				}
			}
		}
	}
	return v
}
