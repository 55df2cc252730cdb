package device

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/kelvins/geocoder"
)

func TestStaticLocatorPermissionGatesPosition(t *testing.T) {
	l := NewStaticLocator(&Coordinate{Lat: 51.5, Lon: -0.12}, false)
	if _, ok := l.Current(); ok {
		t.Fatal("expected no position without permission")
	}

	var calls []bool
	l.OnPermissionChange(func(granted bool) { calls = append(calls, granted) })

	l.SetPermission(true)
	l.SetPermission(true) // unchanged, no callback
	pos, ok := l.Current()
	if !ok || pos.Lat != 51.5 {
		t.Fatalf("expected position after grant, got %v %v", pos, ok)
	}

	l.SetPermission(false)
	if len(calls) != 2 || calls[0] != true || calls[1] != false {
		t.Fatalf("unexpected watcher calls: %v", calls)
	}
}

func TestStaticLocatorRejectsInvalidPosition(t *testing.T) {
	l := NewStaticLocator(nil, true)
	if _, ok := l.Current(); ok {
		t.Fatal("expected unknown position")
	}
	if err := l.SetPosition(Coordinate{Lat: 91}); err == nil {
		t.Fatal("expected error for latitude out of range")
	}
	if err := l.SetPosition(Coordinate{Lat: 48.85, Lon: 2.35}); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.Current(); !ok {
		t.Fatal("expected known position")
	}
}

func TestGeocodeCity(t *testing.T) {
	orig := geocode
	t.Cleanup(func() { geocode = orig })

	geocode = func(apiKey string, address geocoder.Address) (geocoder.Location, error) {
		if address.City != "Vienna" || address.Country != "AT" {
			t.Fatalf("unexpected address %+v", address)
		}
		return geocoder.Location{Latitude: 48.2082, Longitude: 16.3738}, nil
	}
	c, err := GeocodeCity("key", "Vienna", "AT")
	if err != nil {
		t.Fatal(err)
	}
	if c.Lat != 48.2082 || c.Lon != 16.3738 {
		t.Fatalf("unexpected coordinate %v", c)
	}

	geocode = func(string, geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("geocoding: ZERO_RESULTS")
	}
	if _, err := GeocodeCity("key", "Nowhere", "XX"); !errors.Is(err, ErrPlaceNotFound) {
		t.Fatalf("expected ErrPlaceNotFound, got %v", err)
	}

	geocode = func(string, geocoder.Address) (geocoder.Location, error) {
		return geocoder.Location{}, errors.New("REQUEST_DENIED")
	}
	if _, err := GeocodeCity("key", "Vienna", "AT"); err == nil || errors.Is(err, ErrPlaceNotFound) {
		t.Fatalf("expected a plain geocoding error, got %v", err)
	}
	if _, err := GeocodeCity("", "Vienna", "AT"); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestNetProbeCachesResult(t *testing.T) {
	dials := 0
	p := NewNetProbe("example.invalid:443", time.Second, time.Minute)
	p.dial = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dials++
		return nil, errors.New("unreachable")
	}

	if p.Reachable() {
		t.Fatal("expected unreachable")
	}
	if p.Reachable() {
		t.Fatal("expected cached unreachable")
	}
	if dials != 1 {
		t.Fatalf("expected 1 dial, got %d", dials)
	}
}

func TestNetProbeLocalListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	p := NewNetProbe(ln.Addr().String(), time.Second, 0)
	if !p.Reachable() {
		t.Fatal("expected local listener to be reachable")
	}
}

func TestStaticReachability(t *testing.T) {
	r := NewStaticReachability(true)
	if !r.Reachable() {
		t.Fatal("expected reachable")
	}
	r.Set(false)
	if r.Reachable() {
		t.Fatal("expected unreachable")
	}
}
