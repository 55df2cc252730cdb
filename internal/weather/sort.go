package weather

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soniakeys/meeus/v3/globe"
	"github.com/soniakeys/unit"

	"github.com/i474232898/weather-core/internal/device"
)

// SortOrientation selects how the nearby-locations list is ordered.
type SortOrientation string

const (
	ByName        SortOrientation = "name"
	ByTemperature SortOrientation = "temperature"
	ByDistance    SortOrientation = "distance"
)

func ParseSortOrientation(s string) (SortOrientation, error) {
	switch o := SortOrientation(strings.ToLower(s)); o {
	case ByName, ByTemperature, ByDistance:
		return o, nil
	}
	return "", fmt.Errorf("unknown sort orientation %q", s)
}

// DistanceKm is the great-circle distance between two positions on the reference
// ellipsoid. Meeus measures longitude positive westward, hence the sign flip.
func DistanceKm(a, b device.Coordinate) float64 {
	return globe.Earth76.Distance(
		globe.Coord{Lat: unit.AngleFromDeg(a.Lat), Lon: unit.AngleFromDeg(-a.Lon)},
		globe.Coord{Lat: unit.AngleFromDeg(b.Lat), Lon: unit.AngleFromDeg(-b.Lon)},
	)
}

func sortByName(list []WeatherRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Location.Name < list[j].Location.Name
	})
}

// sortByTemperature puts the hottest first.
func sortByTemperature(list []WeatherRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Temperature > list[j].Temperature
	})
}

func sortByDistance(list []WeatherRecord, from device.Coordinate) {
	dist := make(map[int]float64, len(list))
	for _, r := range list {
		dist[r.Location.ID] = DistanceKm(from, device.Coordinate{Lat: r.Location.Lat, Lon: r.Location.Lon})
	}
	sort.SliceStable(list, func(i, j int) bool {
		return dist[list[i].Location.ID] < dist[list[j].Location.ID]
	})
}
