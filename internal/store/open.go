package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// OpenBackend builds the backend named by kind ("file", "sqlite" or "memory") rooted at dir.
// The returned close function is never nil.
func OpenBackend(kind, dir string) (Backend, func() error, error) {
	noop := func() error { return nil }

	switch kind {
	case "", "file":
		b, err := NewFileBackend(dir, ".snapshot")
		if err != nil {
			return nil, noop, err
		}
		return b, noop, nil
	case "sqlite":
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, noop, fmt.Errorf("create store dir: %w", err)
		}
		b, err := OpenSQLite(filepath.Join(dir, "weather.db"))
		if err != nil {
			return nil, noop, err
		}
		return b, b.Close, nil
	case "memory":
		return NewMemoryBackend(), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown store backend %q", kind)
}
