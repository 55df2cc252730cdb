// Package catalog is the bundled list of locations a bookmark can be chosen from.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/i474232898/weather-core/internal/weather"
)

// ErrNotFound is returned by ByID for an id the catalog does not know.
var ErrNotFound = errors.New("location not in catalog")

//go:embed cities.json
var bundled []byte

// DefaultLimit caps Search results when no limit is given.
const DefaultLimit = 20

// Catalog is an immutable, id-indexed city list.
type Catalog struct {
	cities []weather.LocationRef
	byID   map[int]weather.LocationRef
}

// Bundled parses the embedded city list.
func Bundled() (*Catalog, error) {
	var cities []weather.LocationRef
	if err := json.Unmarshal(bundled, &cities); err != nil {
		return nil, fmt.Errorf("parse bundled catalog: %w", err)
	}
	return New(cities)
}

// New builds a catalog. Ids must be positive and unique.
func New(cities []weather.LocationRef) (*Catalog, error) {
	c := &Catalog{
		cities: make([]weather.LocationRef, len(cities)),
		byID:   make(map[int]weather.LocationRef, len(cities)),
	}
	copy(c.cities, cities)
	for _, city := range c.cities {
		if city.ID <= 0 {
			return nil, fmt.Errorf("catalog entry %q has no id", city.Name)
		}
		if _, dup := c.byID[city.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog id %d", city.ID)
		}
		c.byID[city.ID] = city
	}
	sort.SliceStable(c.cities, func(i, j int) bool {
		if c.cities[i].Name != c.cities[j].Name {
			return c.cities[i].Name < c.cities[j].Name
		}
		return c.cities[i].Country < c.cities[j].Country
	})
	return c, nil
}

func (c *Catalog) Len() int { return len(c.cities) }

func (c *Catalog) ByID(id int) (weather.LocationRef, error) {
	ref, ok := c.byID[id]
	if !ok {
		return weather.LocationRef{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return ref, nil
}

// Search matches query case-insensitively against city names. "name,CC" restricts the
// result to one country. Prefix matches come before substring matches; a blank query
// matches nothing.
func (c *Catalog) Search(query string, limit int) []weather.LocationRef {
	if limit <= 0 {
		limit = DefaultLimit
	}
	name, country, _ := strings.Cut(query, ",")
	name = strings.ToLower(strings.TrimSpace(name))
	country = strings.TrimSpace(country)
	if name == "" {
		return nil
	}

	var prefix, contains []weather.LocationRef
	for _, city := range c.cities {
		if country != "" && !strings.EqualFold(city.Country, country) {
			continue
		}
		lower := strings.ToLower(city.Name)
		switch {
		case strings.HasPrefix(lower, name):
			prefix = append(prefix, city)
		case strings.Contains(lower, name):
			contains = append(contains, city)
		}
	}

	out := append(prefix, contains...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
