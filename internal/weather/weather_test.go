package weather

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

const forecastBody = `{
  "current": {"time": "2026-07-14T09:00", "temperature_2m": 31.5, "relative_humidity_2m": 78,
              "surface_pressure": 1008.2, "weather_code": 2, "wind_speed_10m": 11.3, "uv_index": 8.1},
  "daily": {"time": ["2026-07-14", "2026-07-15"],
            "temperature_2m_max": [33.0, 24.0],
            "relative_humidity_2m_mean": [75, 55],
            "uv_index_max": [8.5, 4.0]}
}`

const airQualityBody = `{
  "current": {"us_aqi": 120, "alder_pollen": 0, "birch_pollen": 40, "grass_pollen": 200,
              "mugwort_pollen": null, "ragweed_pollen": 3},
  "hourly": {"time": ["2026-07-14T23:00", "2026-07-15T00:00", "2026-07-15T12:00"],
             "us_aqi": [150, 40, 60],
             "alder_pollen": [null, null, null],
             "birch_pollen": [0, 0, 0],
             "grass_pollen": [500, 5, 20],
             "mugwort_pollen": [null, null, null],
             "ragweed_pollen": [0, 0, 0]}
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/forecast", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latitude"); got != "52.5200" {
			t.Errorf("latitude = %q", got)
		}
		_, _ = w.Write([]byte(forecastBody))
	})
	mux.HandleFunc("/air", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(airQualityBody))
	})
	mux.HandleFunc("/geo", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Berlin" {
			_, _ = w.Write([]byte(`{"results":[{"name":"Berlin","latitude":52.52,"longitude":13.41}]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	c := NewClient(Options{
		ForecastURL:   srv.URL + "/forecast",
		AirQualityURL: srv.URL + "/air",
		GeocodingURL:  srv.URL + "/geo",
	})
	c.now = func() time.Time { return time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC) }
	return c
}

func coords(lat, lon float64) model.Location {
	return model.Location{Latitude: &lat, Longitude: &lon}
}

func TestClient_CurrentByCoordinates(t *testing.T) {
	srv := newTestServer(t)
	snap, err := newTestClient(srv).Current(context.Background(), coords(52.52, 13.41))
	require.NoError(t, err)

	require.Equal(t, 31.5, snap.Temperature)
	require.Equal(t, 78.0, snap.Humidity)
	require.Equal(t, 8.1, snap.UVIndex)
	require.Equal(t, 120.0, snap.AirQualityIndex)
	require.Equal(t, "Partly cloudy", snap.Condition)
	require.Equal(t, 10.0, snap.Pollen.Grass)
	require.Equal(t, 10.0, snap.Pollen.Overall)
	require.Greater(t, snap.Pollen.Tree, 0.0)
	require.Less(t, snap.Pollen.Tree, snap.Pollen.Grass)
	require.Equal(t, time.Date(2026, 7, 14, 9, 0, 0, 0, time.UTC), snap.CapturedAt)

	require.NotNil(t, snap.Forecast)
	require.Equal(t, 24.0, snap.Forecast.Temperature)
	require.Equal(t, 55.0, snap.Forecast.Humidity)
	require.Equal(t, 4.0, snap.Forecast.UVIndex)
	// Only 2026-07-15 hours count: the 150 from the night before is excluded.
	require.Equal(t, 60.0, snap.Forecast.AirQualityIndex)
	require.InDelta(t, 5.7, snap.Forecast.PollenOverall, 0.05)
}

func TestClient_CurrentByCity(t *testing.T) {
	srv := newTestServer(t)
	snap, err := newTestClient(srv).Current(context.Background(), model.Location{City: "Berlin"})
	require.NoError(t, err)
	require.Equal(t, 31.5, snap.Temperature)
}

func TestClient_LocationErrors(t *testing.T) {
	srv := newTestServer(t)
	c := newTestClient(srv)

	_, err := c.Current(context.Background(), model.Location{})
	require.ErrorIs(t, err, ErrLocationRequired)

	_, err = c.Current(context.Background(), model.Location{City: "Atlantis"})
	require.ErrorIs(t, err, ErrLocationNotFound)

	_, err = c.Current(context.Background(), coords(120, 0))
	require.Error(t, err)
}

func TestClient_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Options{ForecastURL: srv.URL, AirQualityURL: srv.URL})
	_, err := c.Current(context.Background(), coords(1, 1))
	require.ErrorContains(t, err, "status=502")
}

func TestPollenIndexScale(t *testing.T) {
	require.Equal(t, 0.0, scalePollen(0, grassVeryHigh))
	require.Equal(t, 10.0, scalePollen(grassVeryHigh, grassVeryHigh))
	require.Equal(t, 10.0, scalePollen(5000, grassVeryHigh))
	require.Less(t, scalePollen(10, grassVeryHigh), scalePollen(50, grassVeryHigh))
}

func TestConditionLabel(t *testing.T) {
	require.Equal(t, "Clear sky", ConditionLabel(0))
	require.Equal(t, "Rain", ConditionLabel(63))
	require.Equal(t, "Rain", ConditionLabel(81))
	require.Equal(t, "Snow", ConditionLabel(86))
	require.Equal(t, "Thunderstorm", ConditionLabel(95))
	require.Equal(t, "Unknown", ConditionLabel(30))
}

// ─── CachedProvider ───────────────────────────────────────────────────────────

type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
	ttl     time.Duration
}

func (m *memCache) Get(_ context.Context, key string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return goredis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *memCache) Set(_ context.Context, key string, value any, ttl time.Duration) *goredis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]string{}
	}
	m.data[key] = string(value.([]byte))
	m.ttl = ttl
	return goredis.NewStatusResult("OK", nil)
}

type countingProvider struct {
	calls int
	snap  model.WeatherSnapshot
	err   error
}

func (p *countingProvider) Current(context.Context, model.Location) (model.WeatherSnapshot, error) {
	p.calls++
	return p.snap, p.err
}

func TestCachedProvider_HitsCacheOnSecondCall(t *testing.T) {
	next := &countingProvider{snap: model.WeatherSnapshot{Temperature: 22, Condition: "Fog"}}
	cache := &memCache{}
	p := NewCachedProvider(next, cache, time.Minute, discardLogger())

	for i := 0; i < 3; i++ {
		snap, err := p.Current(context.Background(), coords(52.5201, 13.4049))
		require.NoError(t, err)
		require.Equal(t, 22.0, snap.Temperature)
	}
	require.Equal(t, 1, next.calls)
	require.Equal(t, time.Minute, cache.ttl)
	require.Contains(t, cache.data, "flareguard:weather:52.52:13.40")
}

func TestCachedProvider_RedisDownFallsThrough(t *testing.T) {
	next := &countingProvider{snap: model.WeatherSnapshot{Temperature: 18}}
	p := NewCachedProvider(next, &memCache{failGet: true}, 0, discardLogger())

	snap, err := p.Current(context.Background(), model.Location{City: "Berlin"})
	require.NoError(t, err)
	require.Equal(t, 18.0, snap.Temperature)
	require.Equal(t, 1, next.calls)
}

func TestCachedProvider_CorruptEntryRefetched(t *testing.T) {
	next := &countingProvider{snap: model.WeatherSnapshot{Temperature: 18}}
	cache := &memCache{data: map[string]string{"flareguard:weather:city:berlin": "{not json"}}
	p := NewCachedProvider(next, cache, 0, discardLogger())

	_, err := p.Current(context.Background(), model.Location{City: " Berlin "})
	require.NoError(t, err)
	require.Equal(t, 1, next.calls)

	var stored model.WeatherSnapshot
	require.NoError(t, json.Unmarshal([]byte(cache.data["flareguard:weather:city:berlin"]), &stored))
	require.Equal(t, 18.0, stored.Temperature)
}

func TestCachedProvider_ErrorsNotCached(t *testing.T) {
	next := &countingProvider{err: errors.New("upstream down")}
	cache := &memCache{}
	p := NewCachedProvider(next, cache, 0, discardLogger())

	_, err := p.Current(context.Background(), model.Location{City: "Berlin"})
	require.Error(t, err)
	require.Empty(t, cache.data)
}
