// Package units holds the user's display preferences and the helpers that turn raw provider
// values into display strings.
package units

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCode is returned when a stored integer code does not map to a known unit.
var ErrUnknownCode = errors.New("unknown unit code")

// Temperature is the temperature scale used for display. Raw values are always kelvin.
type Temperature int

const (
	Celsius Temperature = iota
	Fahrenheit
	Kelvin
)

// ParseTemperature decodes a persisted temperature code.
func ParseTemperature(code int) (Temperature, error) {
	t := Temperature(code)
	switch t {
	case Celsius, Fahrenheit, Kelvin:
		return t, nil
	}
	return 0, fmt.Errorf("%w: temperature %d", ErrUnknownCode, code)
}

// TemperatureFromName accepts "celsius", "fahrenheit", "kelvin" or their symbols.
func TemperatureFromName(name string) (Temperature, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "celsius", "c", "°c":
		return Celsius, nil
	case "fahrenheit", "f", "°f":
		return Fahrenheit, nil
	case "kelvin", "k":
		return Kelvin, nil
	}
	return 0, fmt.Errorf("unknown temperature unit %q", name)
}

func (t Temperature) Code() int { return int(t) }

func (t Temperature) Valid() bool {
	_, err := ParseTemperature(int(t))
	return err == nil
}

// Symbol is appended to formatted temperatures.
func (t Temperature) Symbol() string {
	switch t {
	case Fahrenheit:
		return "°F"
	case Kelvin:
		return "K"
	default:
		return "°C"
	}
}

func (t Temperature) String() string {
	switch t {
	case Celsius:
		return "celsius"
	case Fahrenheit:
		return "fahrenheit"
	case Kelvin:
		return "kelvin"
	}
	return "temperature(" + strconv.Itoa(int(t)) + ")"
}

// Speed is the wind speed scale used for display. Raw values are km/h.
type Speed int

const (
	KilometersPerHour Speed = iota
	MilesPerHour
)

// ParseSpeed decodes a persisted speed code.
func ParseSpeed(code int) (Speed, error) {
	s := Speed(code)
	switch s {
	case KilometersPerHour, MilesPerHour:
		return s, nil
	}
	return 0, fmt.Errorf("%w: speed %d", ErrUnknownCode, code)
}

// SpeedFromName accepts "kmh", "km/h", "mph".
func SpeedFromName(name string) (Speed, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "kmh", "km/h", "kph":
		return KilometersPerHour, nil
	case "mph":
		return MilesPerHour, nil
	}
	return 0, fmt.Errorf("unknown speed unit %q", name)
}

func (s Speed) Code() int { return int(s) }

func (s Speed) Valid() bool {
	_, err := ParseSpeed(int(s))
	return err == nil
}

func (s Speed) Symbol() string {
	if s == MilesPerHour {
		return "mph"
	}
	return "km/h"
}

func (s Speed) String() string { return s.Symbol() }

// ResultCount is how many nearby locations the multi-location query asks for.
// The stored code is the index into resultCounts, not the count itself.
type ResultCount int

var resultCounts = [...]int{10, 20, 30, 40, 50}

const (
	Results10 ResultCount = iota
	Results20
	Results30
	Results40
	Results50
)

// ParseResultCount decodes a persisted result-count code.
func ParseResultCount(code int) (ResultCount, error) {
	if code < 0 || code >= len(resultCounts) {
		return 0, fmt.Errorf("%w: result count %d", ErrUnknownCode, code)
	}
	return ResultCount(code), nil
}

// ResultCountFor maps an actual count (10, 20, ...) to its preference value.
func ResultCountFor(n int) (ResultCount, error) {
	for i, c := range resultCounts {
		if c == n {
			return ResultCount(i), nil
		}
	}
	return 0, fmt.Errorf("unsupported result count %d", n)
}

func (r ResultCount) Code() int { return int(r) }

func (r ResultCount) Valid() bool {
	_, err := ParseResultCount(int(r))
	return err == nil
}

// Count returns the number of results requested from the provider.
func (r ResultCount) Count() int {
	if !r.Valid() {
		return resultCounts[0]
	}
	return resultCounts[r]
}

func (r ResultCount) String() string { return strconv.Itoa(r.Count()) }
