package weather

import (
	"time"
)

// LocationRef identifies a place the provider can be queried for.
type LocationRef struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// DefaultBookmark is used until the user picks a location.
var DefaultBookmark = LocationRef{
	ID:      2643743,
	Name:    "London",
	Country: "GB",
	Lat:     51.5085,
	Lon:     -0.1257,
}

// WeatherRecord is one location's observation as reported by the provider.
// Temperature is kelvin and WindSpeed is km/h regardless of display preferences.
type WeatherRecord struct {
	Location      LocationRef `json:"location"`
	Condition     string      `json:"condition"`
	Description   string      `json:"description"`
	ConditionCode int         `json:"conditionCode"`
	Temperature   float64     `json:"temperatureK"`
	Clouds        int         `json:"cloudsPercent"`
	Humidity      int         `json:"humidityPercent"`
	WindSpeed     float64     `json:"windSpeedKmh"`
	WindDirection *float64    `json:"windDirectionDeg,omitempty"`
	Sunrise       *time.Time  `json:"sunrise,omitempty"` // always UTC
	Sunset        *time.Time  `json:"sunset,omitempty"`  // always UTC
	Pressure      float64     `json:"pressureHpa"`
	ObservedAt    time.Time   `json:"observedAt"`
}
