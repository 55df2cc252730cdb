// Package device supplies the host-side collaborators the weather core consumes: where the
// device is, whether it may say so, and whether the network is up.
package device

import (
	"errors"
	"fmt"
	"sync"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/weather-core/internal/common"
)

// ErrPlaceNotFound is returned when the geocoder has no match for an address.
var ErrPlaceNotFound = errors.New("place not found")

// Coordinate is a position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the coordinate is on the globe.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// StaticLocator holds a position and a permission flag set by the host (configuration, an
// HTTP call). It is safe for concurrent use.
type StaticLocator struct {
	mu       sync.RWMutex
	pos      *Coordinate
	granted  bool
	watchers []func(granted bool)
}

// NewStaticLocator creates a locator. pos may be nil when the position is not known yet.
func NewStaticLocator(pos *Coordinate, granted bool) *StaticLocator {
	l := &StaticLocator{granted: granted}
	if pos != nil {
		p := *pos
		l.pos = &p
	}
	return l
}

// Current returns the position if one is known and permission is granted.
func (l *StaticLocator) Current() (Coordinate, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.granted || l.pos == nil {
		return Coordinate{}, false
	}
	return *l.pos, true
}

func (l *StaticLocator) PermissionGranted() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.granted
}

// SetPosition records a new fix.
func (l *StaticLocator) SetPosition(c Coordinate) error {
	if !c.Valid() {
		return fmt.Errorf("coordinate out of range: %v,%v", c.Lat, c.Lon)
	}
	l.mu.Lock()
	l.pos = &c
	l.mu.Unlock()
	return nil
}

// SetPermission changes the permission flag. Watchers run synchronously, only when the value
// actually changes.
func (l *StaticLocator) SetPermission(granted bool) {
	l.mu.Lock()
	changed := l.granted != granted
	l.granted = granted
	watchers := append([]func(bool){}, l.watchers...)
	l.mu.Unlock()

	if !changed {
		return
	}
	for _, w := range watchers {
		w(granted)
	}
}

// OnPermissionChange registers fn to be called after each permission change.
func (l *StaticLocator) OnPermissionChange(fn func(granted bool)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchers = append(l.watchers, fn)
}

// geocode is swapped in tests.
var geocode = func(apiKey string, address geocoder.Address) (geocoder.Location, error) {
	geocoder.ApiKey = apiKey
	return geocoder.Geocoding(address)
}

// GeocodeCity resolves a city and country to coordinates using the Google geocoding API.
func GeocodeCity(apiKey, city, country string) (Coordinate, error) {
	if apiKey == "" {
		return Coordinate{}, fmt.Errorf("geocoder api key is not configured")
	}
	loc, err := geocode(apiKey, geocoder.Address{City: city, Country: country})
	if err != nil {
		// the geocoder reports failures as plain strings
		if common.HasAny(err.Error(), "ZERO_RESULTS", "not found", "no results") {
			return Coordinate{}, fmt.Errorf("geocode %s,%s: %w", city, country, ErrPlaceNotFound)
		}
		return Coordinate{}, fmt.Errorf("geocode %s,%s: %w", city, country, err)
	}
	c := Coordinate{Lat: loc.Latitude, Lon: loc.Longitude}
	if !c.Valid() {
		return Coordinate{}, fmt.Errorf("geocode %s,%s: invalid result %v", city, country, c)
	}
	return c, nil
}
