package device

import (
	"context"
	"net"
	"sync"
	"time"
)

// NetProbe reports connectivity by dialing a TCP address. Results are cached for ttl so the
// refresh path does not dial on every call.
type NetProbe struct {
	addr    string
	timeout time.Duration
	ttl     time.Duration
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)

	mu        sync.Mutex
	checkedAt time.Time
	up        bool
}

func NewNetProbe(addr string, timeout, ttl time.Duration) *NetProbe {
	d := &net.Dialer{}
	return &NetProbe{
		addr:    addr,
		timeout: timeout,
		ttl:     ttl,
		dial:    d.DialContext,
	}
}

// Reachable dials the configured address unless a result younger than ttl is cached.
func (p *NetProbe) Reachable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.checkedAt.IsZero() && time.Since(p.checkedAt) < p.ttl {
		return p.up
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	conn, err := p.dial(ctx, "tcp", p.addr)
	p.up = err == nil
	p.checkedAt = time.Now()
	if conn != nil {
		conn.Close()
	}
	return p.up
}

// StaticReachability is a fixed connectivity answer, switchable at runtime.
type StaticReachability struct {
	mu sync.RWMutex
	up bool
}

func NewStaticReachability(up bool) *StaticReachability {
	return &StaticReachability{up: up}
}

func (s *StaticReachability) Reachable() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.up
}

func (s *StaticReachability) Set(up bool) {
	s.mu.Lock()
	s.up = up
	s.mu.Unlock()
}
