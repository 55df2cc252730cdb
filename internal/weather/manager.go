package weather

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/i474232898/weather-core/internal/device"
	"github.com/i474232898/weather-core/internal/log"
	"github.com/i474232898/weather-core/internal/metrics"
	"github.com/i474232898/weather-core/internal/units"
)

// DefaultSnapshotName is the record name the snapshot is persisted under.
const DefaultSnapshotName = "weather-snapshot"

// UpdateResult summarizes what an update did.
type UpdateResult string

const (
	// UpdateMerged means at least one query completed and the snapshot was persisted.
	UpdateMerged UpdateResult = "merged"
	// UpdateSkipped means no query ran (offline, or the manager is closed).
	UpdateSkipped UpdateResult = "skipped"
	// UpdateEmpty means both queries produced nothing; the snapshot was left alone.
	UpdateEmpty UpdateResult = "empty"
)

// UpdateOutcome is handed to Update callbacks.
type UpdateOutcome struct {
	Result      UpdateResult `json:"result"`
	SingleErr   *FetchError  `json:"singleError,omitempty"`
	MultipleErr *FetchError  `json:"multipleError,omitempty"`
	At          time.Time    `json:"at"`
}

// Options configures a Manager.
type Options struct {
	Fetcher      Fetcher
	Store        SnapshotStore
	Locator      Locator      // nil: location never known
	Reachability Reachability // nil: always reachable
	APIKey       string
	SnapshotName string
	// FetchTimeout bounds one update's pair of queries. Zero means 40s.
	FetchTimeout time.Duration
	Now          func() time.Time
}

// Manager owns the weather snapshot. Refreshes run serially on one worker goroutine;
// callbacks and notifications are delivered on a separate dispatcher goroutine. Start must be
// called before relying on either.
type Manager struct {
	fetcher      Fetcher
	store        SnapshotStore
	locator      Locator
	reachability Reachability
	apiKey       string
	name         string
	fetchTimeout time.Duration
	now          func() time.Time

	mu   sync.RWMutex
	snap Snapshot
	// locationEpoch increments on permission revocation so in-flight nearby results are
	// dropped instead of repopulating the cleared field.
	locationEpoch uint64

	reqMu   sync.Mutex
	pending []func(UpdateOutcome)
	wake    chan struct{}

	subMu sync.RWMutex
	subs  map[uuid.UUID]func(Event)

	closed  bool // guarded by reqMu
	started atomic.Bool

	stop         chan struct{}
	workerWG     sync.WaitGroup
	dispatch     chan func()
	dispatchStop chan struct{}
	dispatchWG   sync.WaitGroup
	closeOnce    sync.Once
}

// NewManager loads the persisted snapshot, or starts from defaults when there is none.
// Call Start before Update.
func NewManager(opts Options) (*Manager, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("weather manager requires a fetcher")
	}
	if opts.Store == nil {
		return nil, errors.New("weather manager requires a snapshot store")
	}
	if opts.SnapshotName == "" {
		opts.SnapshotName = DefaultSnapshotName
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 40 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	m := &Manager{
		fetcher:      opts.Fetcher,
		store:        opts.Store,
		locator:      opts.Locator,
		reachability: opts.Reachability,
		apiKey:       opts.APIKey,
		name:         opts.SnapshotName,
		fetchTimeout: opts.FetchTimeout,
		now:          opts.Now,
		wake:         make(chan struct{}, 1),
		subs:         make(map[uuid.UUID]func(Event)),
		stop:         make(chan struct{}),
		dispatch:     make(chan func(), 64),
		dispatchStop: make(chan struct{}),
	}

	if snap, ok := m.store.Load(m.name); ok {
		m.snap = snap
		log.Infow("weather: restored snapshot", "name", m.name, "lastRefresh", snap.LastRefresh)
	} else {
		m.snap = DefaultSnapshot()
		log.Infow("weather: no usable snapshot, starting from defaults", "name", m.name)
	}
	return m, nil
}

// Start launches the worker and dispatcher goroutines. Further calls do nothing.
func (m *Manager) Start() {
	if !m.started.CompareAndSwap(false, true) {
		return
	}
	m.workerWG.Add(1)
	go m.runWorker()
	m.dispatchWG.Add(1)
	go m.runDispatcher()
}

// Close lets an in-flight refresh finish, delivers queued callbacks and stops the goroutines.
// Updates requested afterwards complete immediately as skipped.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		m.reqMu.Lock()
		m.closed = true
		pending := m.pending
		m.pending = nil
		m.reqMu.Unlock()

		close(m.stop)
		m.workerWG.Wait()
		close(m.dispatchStop)
		m.dispatchWG.Wait()

		for _, done := range pending {
			if done != nil {
				done(UpdateOutcome{Result: UpdateSkipped, At: m.now()})
			}
		}
	})
}

// Snapshot returns a copy of the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.Clone()
}

// LastRefresh reports when the last qualifying merge happened.
func (m *Manager) LastRefresh() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap.LastRefresh
}

// Update asks for a refresh and returns immediately. done, which may be nil, runs on the
// dispatcher goroutine once the refresh finished. Requests that arrive while an earlier one
// is still waiting for the worker share its refresh.
func (m *Manager) Update(done func(UpdateOutcome)) {
	m.reqMu.Lock()
	if m.closed {
		m.reqMu.Unlock()
		if done != nil {
			done(UpdateOutcome{Result: UpdateSkipped, At: m.now()})
		}
		return
	}
	m.pending = append(m.pending, done)
	m.reqMu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Refresh runs Update and waits for it, or for ctx.
func (m *Manager) Refresh(ctx context.Context) (UpdateOutcome, error) {
	ch := make(chan UpdateOutcome, 1)
	m.Update(func(o UpdateOutcome) { ch <- o })
	select {
	case o := <-ch:
		return o, nil
	case <-ctx.Done():
		return UpdateOutcome{}, ctx.Err()
	}
}

func (m *Manager) runWorker() {
	defer m.workerWG.Done()
	for {
		select {
		case <-m.stop:
			return
		case <-m.wake:
		}

		m.reqMu.Lock()
		batch := m.pending
		m.pending = nil
		m.reqMu.Unlock()
		if len(batch) == 0 {
			continue
		}

		outcome := m.refresh()
		m.post(func() {
			for _, done := range batch {
				if done != nil {
					done(outcome)
				}
			}
		})
	}
}

// refresh runs both queries concurrently, waits for both, and merges.
func (m *Manager) refresh() UpdateOutcome {
	if m.reachability != nil && !m.reachability.Reachable() {
		log.Infow("weather: network unreachable, skipping update")
		metrics.ObserveUpdate(string(UpdateSkipped))
		return UpdateOutcome{Result: UpdateSkipped, At: m.now()}
	}

	m.mu.RLock()
	bookmark := m.snap.Bookmark
	count := m.snap.ResultCount.Count()
	epoch := m.locationEpoch
	m.mu.RUnlock()

	var pos *device.Coordinate
	if m.locator != nil {
		if c, ok := m.locator.Current(); ok {
			pos = &c
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.fetchTimeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		single QueryResult[WeatherRecord]
		multi  QueryResult[[]WeatherRecord]
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		single = m.fetcher.FetchSingle(ctx, bookmark.ID, m.apiKey)
	}()
	go func() {
		defer wg.Done()
		multi = m.fetcher.FetchMultiple(ctx, pos, count, m.apiKey)
	}()
	wg.Wait()

	metrics.ObserveFetch("single", single.Outcome())
	metrics.ObserveFetch("multiple", multi.Outcome())
	log.Debugw("weather: queries finished",
		"bookmark", bookmark.ID, "single", single.Outcome(), "multiple", multi.Outcome())

	m.mu.Lock()
	if m.snap.Bookmark.ID != bookmark.ID {
		// bookmark changed mid-flight; the follow-up update fetches the new one
		single = QueryResult[WeatherRecord]{}
	}
	if m.locationEpoch != epoch {
		multi = QueryResult[[]WeatherRecord]{}
	}

	if !Merge(&m.snap, single, multi) {
		m.mu.Unlock()
		// Nothing usable: keep the last good snapshot, no write, no notification.
		log.Warnw("weather: both queries produced nothing, keeping last snapshot")
		metrics.ObserveUpdate(string(UpdateEmpty))
		return UpdateOutcome{Result: UpdateEmpty, At: m.now()}
	}
	now := m.now()
	m.snap.LastRefresh = now
	m.persistLocked()
	m.mu.Unlock()

	metrics.ObserveUpdate(string(UpdateMerged))
	m.emit(EventRefreshed, now)

	return UpdateOutcome{
		Result:      UpdateMerged,
		SingleErr:   single.Err,
		MultipleErr: multi.Err,
		At:          now,
	}
}

// persistLocked writes the snapshot. Callers hold m.mu so writes land in mutation order.
// Failures are logged and swallowed; the in-memory snapshot stays authoritative.
func (m *Manager) persistLocked() {
	if err := m.store.Save(m.name, m.snap.Clone()); err != nil {
		metrics.ObservePersistFailure()
		log.Errorw("weather: failed to persist snapshot", "name", m.name, "error", err)
	}
}

func (m *Manager) emit(reason EventReason, at time.Time) {
	metrics.ObserveNotification(string(reason))
	m.notify(Event{Reason: reason, At: at})
}

// SortData reorders the nearby-locations list in place. It reports whether an ordering was
// applied; it does nothing when there is no list, or for ByDistance when location
// permission is missing or the position is unknown.
func (m *Manager) SortData(o SortOrientation) bool {
	var from device.Coordinate
	if o == ByDistance {
		if m.locator == nil || !m.locator.PermissionGranted() {
			return false
		}
		c, ok := m.locator.Current()
		if !ok {
			return false
		}
		from = c
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.snap.Multiple == nil || m.snap.Multiple.Value == nil {
		return false
	}
	list := *m.snap.Multiple.Value

	switch o {
	case ByName:
		sortByName(list)
	case ByTemperature:
		sortByTemperature(list)
	case ByDistance:
		sortByDistance(list, from)
	default:
		return false
	}
	m.persistLocked()
	return true
}

// Lookup finds a record by provider id, checking the bookmark result first.
func (m *Manager) Lookup(locationID int) (WeatherRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if s := m.snap.Single; s != nil && s.Value != nil && s.Value.Location.ID == locationID {
		return *s.Value, true
	}
	if mr := m.snap.Multiple; mr != nil && mr.Value != nil {
		for _, r := range *mr.Value {
			if r.Location.ID == locationID {
				return r, true
			}
		}
	}
	return WeatherRecord{}, false
}

// OnLocationPermissionRevoked drops the nearby-locations result, which means nothing
// without a position. The bookmark result is kept.
func (m *Manager) OnLocationPermissionRevoked() {
	m.mu.Lock()
	m.locationEpoch++
	m.snap.Multiple = nil
	m.persistLocked()
	m.mu.Unlock()

	log.Infow("weather: location permission revoked, cleared nearby results")
	m.emit(EventLocationCleared, m.now())
}

// PermissionChanged adapts a permission watcher: revocation clears nearby results, a new
// grant triggers an update so they can be fetched.
func (m *Manager) PermissionChanged(granted bool) {
	if !granted {
		m.OnLocationPermissionRevoked()
		return
	}
	m.Update(nil)
}

// SetBookmark changes the tracked location and triggers an update.
func (m *Manager) SetBookmark(ref LocationRef) error {
	if ref.ID <= 0 {
		return fmt.Errorf("bookmark needs a provider id, got %d", ref.ID)
	}
	m.mu.Lock()
	m.snap.Bookmark = ref
	m.persistLocked()
	m.mu.Unlock()

	m.Update(nil)
	return nil
}

// SetResultCount changes how many nearby locations are requested and triggers an update.
func (m *Manager) SetResultCount(rc units.ResultCount) error {
	if !rc.Valid() {
		return fmt.Errorf("%w: result count %d", units.ErrUnknownCode, rc.Code())
	}
	m.mu.Lock()
	m.snap.ResultCount = rc
	m.persistLocked()
	m.mu.Unlock()

	m.Update(nil)
	return nil
}

// SetTemperatureUnit only changes presentation, so nothing is fetched.
func (m *Manager) SetTemperatureUnit(t units.Temperature) error {
	if !t.Valid() {
		return fmt.Errorf("%w: temperature %d", units.ErrUnknownCode, t.Code())
	}
	m.mu.Lock()
	m.snap.TemperatureUnit = t
	m.persistLocked()
	m.mu.Unlock()
	return nil
}

// SetSpeedUnit only changes presentation, so nothing is fetched.
func (m *Manager) SetSpeedUnit(s units.Speed) error {
	if !s.Valid() {
		return fmt.Errorf("%w: speed %d", units.ErrUnknownCode, s.Code())
	}
	m.mu.Lock()
	m.snap.SpeedUnit = s
	m.persistLocked()
	m.mu.Unlock()
	return nil
}
