package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/i474232898/weather-core/internal/device"
	"github.com/i474232898/weather-core/internal/weather"
)

const londonBody = `{
	"coord": {"lon": -0.1257, "lat": 51.5085},
	"weather": [{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"}],
	"base": "stations",
	"main": {"temp": 294.15, "feels_like": 293.9, "pressure": 1016, "humidity": 52},
	"visibility": 10000,
	"wind": {"speed": 5, "deg": 240},
	"clouds": {"all": 0},
	"dt": 1715938200,
	"sys": {"type": 2, "country": "GB", "sunrise": 1715918000, "sunset": 1715975000},
	"timezone": 3600,
	"id": 2643743,
	"name": "London",
	"cod": 200
}`

const findBody = `{
	"message": "accurate",
	"cod": "200",
	"count": 99,
	"list": [
		{"id": 2643743, "name": "London", "coord": {"lat": 51.5085, "lon": -0.1257},
		 "main": {"temp": 290, "pressure": 1012, "humidity": 70},
		 "dt": 1715938200, "wind": {"speed": 2.5}, "sys": {"country": "GB"},
		 "clouds": {"all": 40}, "weather": [{"id": 802, "main": "Clouds", "description": "scattered clouds"}]},
		{"id": 2652221, "name": "Croydon", "coord": {"lat": 51.3833, "lon": -0.1},
		 "main": {"temp": 289.5, "pressure": 1012, "humidity": 72},
		 "dt": 1715938200, "wind": {"speed": 3, "deg": 200}, "sys": {"country": "GB"},
		 "clouds": {"all": 75}, "weather": [{"id": 500, "main": "Rain", "description": "light rain"}]}
	]
}`

func newTestServer(t *testing.T, handler http.HandlerFunc) (*OpenWeatherClient, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewOpenWeatherClient(srv.Client(), srv.URL), &hits
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func TestFetchSingleSuccess(t *testing.T) {
	var gotPath, gotID, gotKey string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotID = r.URL.Query().Get("id")
		gotKey = r.URL.Query().Get("appid")
		respond(http.StatusOK, londonBody)(w, r)
	})

	res := c.FetchSingle(context.Background(), 2643743, " secret ")
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if gotPath != "/weather" || gotID != "2643743" || gotKey != "secret" {
		t.Fatalf("unexpected request path=%s id=%s key=%s", gotPath, gotID, gotKey)
	}

	r := res.Value
	if r.Location.ID != 2643743 || r.Location.Name != "London" || r.Location.Country != "GB" {
		t.Fatalf("unexpected location %+v", r.Location)
	}
	if r.ConditionCode != 800 || r.Condition != "Clear" || r.Description != "clear sky" {
		t.Fatalf("unexpected condition %+v", r)
	}
	if r.Temperature != 294.15 || r.Humidity != 52 || r.Pressure != 1016 {
		t.Fatalf("unexpected readings %+v", r)
	}
	if r.WindSpeed != 18 {
		t.Fatalf("expected 18 km/h, got %v", r.WindSpeed)
	}
	if r.WindDirection == nil || *r.WindDirection != 240 {
		t.Fatalf("unexpected wind direction %v", r.WindDirection)
	}
	if r.Sunrise == nil || r.Sunrise.Location() != time.UTC || r.Sunrise.Unix() != 1715918000 {
		t.Fatalf("unexpected sunrise %v", r.Sunrise)
	}
	if !r.ObservedAt.Equal(time.Unix(1715938200, 0)) {
		t.Fatalf("unexpected observation time %v", r.ObservedAt)
	}
}

func TestFetchMultipleAcceptsStringStatus(t *testing.T) {
	var query map[string]string
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query = map[string]string{"path": r.URL.Path, "lat": q.Get("lat"), "lon": q.Get("lon"), "cnt": q.Get("cnt")}
		respond(http.StatusOK, findBody)(w, r)
	})

	res := c.FetchMultiple(context.Background(), &device.Coordinate{Lat: 51.5, Lon: -0.12}, 20, "key")
	if !res.OK() {
		t.Fatalf("expected success, got %v", res.Err)
	}
	if query["path"] != "/find" || query["lat"] != "51.5" || query["lon"] != "-0.12" || query["cnt"] != "20" {
		t.Fatalf("unexpected query %v", query)
	}
	list := *res.Value
	if len(list) != 2 {
		t.Fatalf("expected records for every list entry, got %d", len(list))
	}
	if list[1].Location.Name != "Croydon" || list[1].WindSpeed != 3*3.6 || list[0].WindDirection != nil {
		t.Fatalf("unexpected records %+v", list)
	}
	if list[0].Sunrise != nil {
		t.Fatal("find entries carry no sunrise")
	}
}

func TestFetchMultipleEmptyList(t *testing.T) {
	c, _ := newTestServer(t, respond(http.StatusOK, `{"cod":"200","count":0,"list":[]}`))
	res := c.FetchMultiple(context.Background(), &device.Coordinate{}, 10, "key")
	if !res.OK() || len(*res.Value) != 0 {
		t.Fatalf("expected empty success, got %+v", res)
	}
}

func TestFetchClassification(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   weather.ErrorKind
		wantStatus *int
	}{
		{"unauthorized", http.StatusUnauthorized, `{"cod":401,"message":"Invalid API key"}`, weather.KindUnauthorizedCredential, intp(401)},
		{"unauthorized http only", http.StatusUnauthorized, `{"cod":"403"}`, weather.KindUnauthorizedCredential, intp(401)},
		{"not found", http.StatusNotFound, `{"cod":"404","message":"city not found"}`, weather.KindTransport, intp(404)},
		{"rate limited", http.StatusTooManyRequests, `{"cod":429}`, weather.KindTransport, intp(429)},
		{"server error without body", http.StatusServiceUnavailable, `upstream down`, weather.KindTransport, intp(503)},
		{"missing status", http.StatusOK, `{"name":"London"}`, weather.KindUnparsableResponse, nil},
		{"non numeric status", http.StatusOK, `{"cod":"ok"}`, weather.KindUnparsableResponse, nil},
		{"not json", http.StatusOK, `<html></html>`, weather.KindUnparsableResponse, nil},
		{"type mismatch", http.StatusOK, `{"cod":200,"id":"London"}`, weather.KindUnparsableResponse, nil},
		{"missing fields", http.StatusOK, `{"cod":200,"id":1,"name":"x"}`, weather.KindUnparsableResponse, nil},
		{"no conditions", http.StatusOK, `{"cod":200,"id":1,"name":"x","coord":{"lat":1,"lon":2},"weather":[],
			"main":{"temp":1,"pressure":1,"humidity":1},"wind":{"speed":1},"clouds":{"all":1},"dt":1}`,
			weather.KindUnparsableResponse, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, respond(tt.status, tt.body))
			res := c.FetchSingle(context.Background(), 1, "key")
			assertFailure(t, res.Value != nil, res.Err, tt.wantKind, tt.wantStatus)
		})
	}
}

func TestFetchMultipleClassification(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantKind   weather.ErrorKind
		wantStatus *int
	}{
		{"list missing", `{"cod":"200","count":3}`, weather.KindUnparsableResponse, nil},
		{"entry missing temperature", `{"cod":"200","list":[{"id":1,"name":"x","coord":{"lat":1,"lon":2},
			"weather":[{"id":800,"main":"Clear"}],"main":{"pressure":1,"humidity":1},"wind":{"speed":1},
			"clouds":{"all":1},"dt":1}]}`, weather.KindUnparsableResponse, nil},
		{"unauthorized", `{"cod":"401"}`, weather.KindUnauthorizedCredential, intp(401)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestServer(t, respond(http.StatusOK, tt.body))
			res := c.FetchMultiple(context.Background(), &device.Coordinate{Lat: 1, Lon: 2}, 10, "key")
			assertFailure(t, res.Value != nil, res.Err, tt.wantKind, tt.wantStatus)
		})
	}
}

func TestFetchRejectsBadInputsWithoutRequest(t *testing.T) {
	c, hits := newTestServer(t, respond(http.StatusOK, londonBody))
	ctx := context.Background()

	single := c.FetchSingle(ctx, 0, "key")
	assertFailure(t, single.Value != nil, single.Err, weather.KindMalformedRequest, nil)

	single = c.FetchSingle(ctx, 1, "   ")
	assertFailure(t, single.Value != nil, single.Err, weather.KindMalformedRequest, nil)

	multi := c.FetchMultiple(ctx, nil, 10, "key")
	assertFailure(t, multi.Value != nil, multi.Err, weather.KindLocationUnavailable, nil)

	multi = c.FetchMultiple(ctx, &device.Coordinate{}, 0, "key")
	assertFailure(t, multi.Value != nil, multi.Err, weather.KindMalformedRequest, nil)

	if n := atomic.LoadInt32(hits); n != 0 {
		t.Fatalf("expected no requests, got %d", n)
	}
}

func TestFetchTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	c, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := c.FetchSingle(ctx, 1, "key")
	assertFailure(t, res.Value != nil, res.Err, weather.KindTransport, nil)
}

func TestConnectionRefusedIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := NewOpenWeatherClient(&http.Client{Timeout: time.Second}, addr)
	res := c.FetchSingle(context.Background(), 1, "key")
	assertFailure(t, res.Value != nil, res.Err, weather.KindTransport, nil)
}

func TestBreakerOpensAfterRepeatedServerErrors(t *testing.T) {
	c, hits := newTestServer(t, respond(http.StatusBadGateway, ``))
	for i := 0; i < 6; i++ {
		c.FetchSingle(context.Background(), 1, "key")
	}
	// gobreaker's default trips after more than five consecutive failures
	before := atomic.LoadInt32(hits)
	res := c.FetchSingle(context.Background(), 1, "key")
	assertFailure(t, res.Value != nil, res.Err, weather.KindTransport, nil)
	if atomic.LoadInt32(hits) != before {
		t.Fatal("open breaker should not reach the server")
	}
}

func TestStatusCodeDecoding(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{`200`, 200, false},
		{`"200"`, 200, false},
		{`" 404 "`, 404, false},
		{`"abc"`, 0, true},
		{`20.5`, 0, true},
		{`null`, 0, true},
	}
	for _, tt := range tests {
		var s statusCode
		err := s.UnmarshalJSON([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Fatalf("%s: unexpected error %v", tt.in, err)
		}
		if !tt.wantErr && int(s) != tt.want {
			t.Fatalf("%s: got %d", tt.in, s)
		}
	}
}

func intp(v int) *int { return &v }

func assertFailure(t *testing.T, hasValue bool, err *weather.FetchError, kind weather.ErrorKind, status *int) {
	t.Helper()
	if hasValue {
		t.Fatal("expected no value on failure")
	}
	if err == nil {
		t.Fatalf("expected %s error, got none", kind)
	}
	if err.Kind != kind {
		t.Fatalf("expected %s, got %s (%s)", kind, err.Kind, err.Message)
	}
	switch {
	case status == nil && err.StatusCode != nil:
		t.Fatalf("expected no status, got %d", *err.StatusCode)
	case status != nil && (err.StatusCode == nil || *err.StatusCode != *status):
		t.Fatalf("expected status %d, got %v", *status, err.StatusCode)
	}
}
