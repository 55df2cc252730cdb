package units

import (
	"fmt"
	"math"
	"time"
)

const kmPerMile = 1.609344

// ConvertTemperature converts a raw kelvin value into the given scale.
func ConvertTemperature(kelvin float64, t Temperature) float64 {
	switch t {
	case Celsius:
		return kelvin - 273.15
	case Fahrenheit:
		return kelvin*9/5 - 459.67
	default:
		return kelvin
	}
}

// FormatTemperature renders a raw kelvin value, e.g. "21°C".
func FormatTemperature(kelvin float64, t Temperature) string {
	v := ConvertTemperature(kelvin, t)
	// avoid "-0°C"
	v = math.Round(v)
	if v == 0 {
		v = 0
	}
	return fmt.Sprintf("%.0f%s", v, t.Symbol())
}

// ConvertSpeed converts a raw km/h value into the given scale.
func ConvertSpeed(kmh float64, s Speed) float64 {
	if s == MilesPerHour {
		return kmh / kmPerMile
	}
	return kmh
}

// FormatSpeed renders a raw km/h value, e.g. "12.6 km/h".
func FormatSpeed(kmh float64, s Speed) string {
	return fmt.Sprintf("%.1f %s", ConvertSpeed(kmh, s), s.Symbol())
}

var compassPoints = [...]string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// CompassPoint maps a wind direction in degrees to a 16-point label.
func CompassPoint(deg float64) string {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	idx := int(math.Round(deg/22.5)) % len(compassPoints)
	return compassPoints[idx]
}

// Fallback daylight window used when a record carries no sunrise/sunset.
const (
	dayStartHour = 7
	dayEndHour   = 18
)

// IsDaytime reports whether at falls between sunrise and sunset. Without both bounds it
// falls back to the fixed 07:00-18:00 window in at's location.
func IsDaytime(at time.Time, sunrise, sunset *time.Time) bool {
	if sunrise != nil && sunset != nil && sunrise.Before(*sunset) {
		return !at.Before(*sunrise) && at.Before(*sunset)
	}
	h := at.Hour()
	return h >= dayStartHour && h < dayEndHour
}

// Glyph maps an OpenWeatherMap condition code to a display glyph. Clear sky (800) has a
// night variant.
func Glyph(code int, at time.Time, sunrise, sunset *time.Time) string {
	switch {
	case code >= 200 && code < 300:
		return "⛈"
	case code >= 300 && code < 400:
		return "🌦"
	case code == 511:
		return "🌨"
	case code >= 500 && code < 600:
		return "🌧"
	case code >= 600 && code < 700:
		return "❄️"
	case code == 781:
		return "🌪"
	case code >= 700 && code < 800:
		return "🌫"
	case code == 800:
		if IsDaytime(at, sunrise, sunset) {
			return "☀️"
		}
		return "🌙"
	case code == 801:
		return "🌤"
	case code == 802:
		return "⛅"
	case code == 803 || code == 804:
		return "☁️"
	}
	return "❓"
}
