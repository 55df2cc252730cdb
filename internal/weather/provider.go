package weather

import (
	"context"

	"github.com/i474232898/weather-core/internal/device"
)

// Fetcher abstracts the weather provider's two queries. Implementations never return Go
// errors: failures come back inside the QueryResult.
type Fetcher interface {
	FetchSingle(ctx context.Context, locationID int, apiKey string) QueryResult[WeatherRecord]
	FetchMultiple(ctx context.Context, pos *device.Coordinate, count int, apiKey string) QueryResult[[]WeatherRecord]
}

// SnapshotStore is the contract the persistence gateway satisfies.
type SnapshotStore interface {
	Save(name string, snapshot Snapshot) error
	Load(name string) (Snapshot, bool)
}

// Locator supplies the device position and location permission.
type Locator interface {
	Current() (device.Coordinate, bool)
	PermissionGranted() bool
}

// Reachability reports whether the network is believed to be up.
type Reachability interface {
	Reachable() bool
}
