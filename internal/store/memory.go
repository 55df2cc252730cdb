package store

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrNotFound is returned when nothing has been stored under a name.
	ErrNotFound = errors.New("no stored record for name")
)

// Backend stores encoded records keyed by name.
type Backend interface {
	Put(name string, data []byte) error
	Get(name string) ([]byte, error)
}

// record holds one stored blob and when it was written.
type record struct {
	Data      []byte
	UpdatedAt time.Time
}

// MemoryBackend is a concurrency-safe in-memory Backend. Contents do not survive the process.
type MemoryBackend struct {
	mu sync.RWMutex

	// key: record name
	data map[string]record
}

// NewMemoryBackend creates an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[string]record),
	}
}

// Put replaces the record stored under name. The slice is copied.
func (m *MemoryBackend) Put(name string, data []byte) error {
	buf := make([]byte, len(data))
	copy(buf, data)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[name] = record{Data: buf, UpdatedAt: time.Now().UTC()}
	return nil
}

// Get returns a copy of the record stored under name.
func (m *MemoryBackend) Get(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(rec.Data))
	copy(buf, rec.Data)
	return buf, nil
}

// UpdatedAt reports when name was last written.
func (m *MemoryBackend) UpdatedAt(name string) (time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.data[name]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return rec.UpdatedAt, nil
}
