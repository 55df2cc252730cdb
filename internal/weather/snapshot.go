package weather

import (
	"fmt"
	"time"

	"github.com/i474232898/weather-core/internal/units"
)

// Snapshot is everything the Manager keeps across restarts.
type Snapshot struct {
	Bookmark        LocationRef       `json:"bookmark"`
	ResultCount     units.ResultCount `json:"resultCount"`
	TemperatureUnit units.Temperature `json:"temperatureUnit"`
	SpeedUnit       units.Speed       `json:"speedUnit"`

	Single   *QueryResult[WeatherRecord]   `json:"single,omitempty"`
	Multiple *QueryResult[[]WeatherRecord] `json:"multiple,omitempty"`

	LastRefresh time.Time `json:"lastRefresh"`
}

// DefaultSnapshot is the state at first launch.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Bookmark:        DefaultBookmark,
		ResultCount:     units.Results10,
		TemperatureUnit: units.Celsius,
		SpeedUnit:       units.KilometersPerHour,
	}
}

// Validate rejects snapshots written by an incompatible schema.
func (s *Snapshot) Validate() error {
	if s.Bookmark.ID <= 0 {
		return fmt.Errorf("bookmark has no provider id")
	}
	if _, err := units.ParseResultCount(s.ResultCount.Code()); err != nil {
		return err
	}
	if _, err := units.ParseTemperature(s.TemperatureUnit.Code()); err != nil {
		return err
	}
	if _, err := units.ParseSpeed(s.SpeedUnit.Code()); err != nil {
		return err
	}
	if s.Single != nil {
		if err := s.Single.Validate(); err != nil {
			return fmt.Errorf("single: %w", err)
		}
	}
	if s.Multiple != nil {
		if err := s.Multiple.Validate(); err != nil {
			return fmt.Errorf("multiple: %w", err)
		}
	}
	return nil
}

// Clone returns a copy that shares no mutable state with s. Records themselves are
// immutable, so only containers are copied.
func (s Snapshot) Clone() Snapshot {
	out := s
	if s.Single != nil {
		single := *s.Single
		out.Single = &single
	}
	if s.Multiple != nil {
		multi := *s.Multiple
		if multi.Value != nil {
			list := make([]WeatherRecord, len(*multi.Value))
			copy(list, *multi.Value)
			multi.Value = &list
		}
		out.Multiple = &multi
	}
	return out
}

// Merge applies fresh query outcomes. A completed query, success or failure, replaces its
// field; an empty result leaves the field as it was. It reports whether anything changed.
func Merge(s *Snapshot, single QueryResult[WeatherRecord], multi QueryResult[[]WeatherRecord]) bool {
	changed := false
	if !single.IsEmpty() {
		r := single
		s.Single = &r
		changed = true
	}
	if !multi.IsEmpty() {
		r := multi
		s.Multiple = &r
		changed = true
	}
	return changed
}

// DataState describes one result field of a snapshot.
type DataState string

const (
	StateEmpty  DataState = "empty"
	StateFailed DataState = "failed"
	StateFresh  DataState = "fresh"
	StateStale  DataState = "stale"
)

func (s Snapshot) fieldState(empty, failed bool, now time.Time, maxAge time.Duration) DataState {
	switch {
	case empty:
		return StateEmpty
	case failed:
		return StateFailed
	case maxAge > 0 && now.Sub(s.LastRefresh) >= maxAge:
		return StateStale
	}
	return StateFresh
}

func (s Snapshot) SingleState(now time.Time, maxAge time.Duration) DataState {
	empty := s.Single == nil || s.Single.IsEmpty()
	return s.fieldState(empty, !empty && s.Single.Err != nil, now, maxAge)
}

func (s Snapshot) MultipleState(now time.Time, maxAge time.Duration) DataState {
	empty := s.Multiple == nil || s.Multiple.IsEmpty()
	return s.fieldState(empty, !empty && s.Multiple.Err != nil, now, maxAge)
}
