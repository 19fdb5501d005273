// Package weather fetches the environment for a location: temperature,
// humidity, UV, air quality and pollen. It produces model.WeatherSnapshot
// values and nothing downstream depends on the upstream API shape.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

var (
	ErrLocationRequired = errors.New("weather: location required")
	ErrLocationNotFound = errors.New("weather: location not found")
)

// Provider returns the current weather for a location.
type Provider interface {
	Current(ctx context.Context, loc model.Location) (model.WeatherSnapshot, error)
}

const (
	defaultForecastURL   = "https://api.open-meteo.com/v1/forecast"
	defaultAirQualityURL = "https://air-quality-api.open-meteo.com/v1/air-quality"
	defaultGeocodingURL  = "https://geocoding-api.open-meteo.com/v1/search"
)

// Pollen concentrations (grains/m³) treated as the top of the 0–10 index.
const (
	treeVeryHigh  = 1500.0
	grassVeryHigh = 200.0
	weedVeryHigh  = 500.0
)

// Options overrides the upstream endpoints. Zero values use Open-Meteo.
type Options struct {
	ForecastURL   string
	AirQualityURL string
	GeocodingURL  string
	Timeout       time.Duration
}

// Client is the Open-Meteo backed Provider.
type Client struct {
	forecastURL   string
	airQualityURL string
	geocodingURL  string
	httpClient    *http.Client
	now           func() time.Time
}

// NewClient builds an Open-Meteo client.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		forecastURL:   orDefault(opts.ForecastURL, defaultForecastURL),
		airQualityURL: orDefault(opts.AirQualityURL, defaultAirQualityURL),
		geocodingURL:  orDefault(opts.GeocodingURL, defaultGeocodingURL),
		httpClient:    &http.Client{Timeout: timeout},
		now:           time.Now,
	}
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}

// Current resolves loc to coordinates (geocoding a city when needed), then
// fetches the forecast and air-quality feeds concurrently.
func (c *Client) Current(ctx context.Context, loc model.Location) (model.WeatherSnapshot, error) {
	lat, lon, err := c.resolve(ctx, loc)
	if err != nil {
		return model.WeatherSnapshot{}, err
	}

	var (
		fc forecastResponse
		aq airQualityResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.getJSON(gctx, c.forecastURL, forecastParams(lat, lon), &fc)
	})
	g.Go(func() error {
		return c.getJSON(gctx, c.airQualityURL, airQualityParams(lat, lon), &aq)
	})
	if err := g.Wait(); err != nil {
		return model.WeatherSnapshot{}, err
	}

	return buildSnapshot(fc, aq, c.now().UTC()), nil
}

// ─── LOCATION ─────────────────────────────────────────────────────────────────

func (c *Client) resolve(ctx context.Context, loc model.Location) (float64, float64, error) {
	if loc.HasCoordinates() {
		lat, lon := *loc.Latitude, *loc.Longitude
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return 0, 0, fmt.Errorf("weather: coordinates out of range: %.4f,%.4f", lat, lon)
		}
		return lat, lon, nil
	}
	city := strings.TrimSpace(loc.City)
	if city == "" {
		return 0, 0, ErrLocationRequired
	}

	q := url.Values{}
	q.Set("name", city)
	q.Set("count", "1")
	q.Set("format", "json")

	var geo geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL, q, &geo); err != nil {
		return 0, 0, err
	}
	if len(geo.Results) == 0 {
		return 0, 0, fmt.Errorf("%w: %q", ErrLocationNotFound, city)
	}
	return geo.Results[0].Latitude, geo.Results[0].Longitude, nil
}

// ─── HTTP ─────────────────────────────────────────────────────────────────────

func (c *Client) getJSON(ctx context.Context, base string, q url.Values, dst any) error {
	endpoint := base + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("weather: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("weather: upstream error: status=%d body=%s", resp.StatusCode, string(payload))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("weather: read response: %w", err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("weather: decode response: %w", err)
	}
	return nil
}

func coord(v float64) string { return strconv.FormatFloat(v, 'f', 4, 64) }

func forecastParams(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("latitude", coord(lat))
	q.Set("longitude", coord(lon))
	q.Set("current", "temperature_2m,relative_humidity_2m,surface_pressure,weather_code,wind_speed_10m,uv_index")
	q.Set("daily", "temperature_2m_max,relative_humidity_2m_mean,uv_index_max")
	q.Set("forecast_days", "2")
	q.Set("timezone", "auto")
	return q
}

func airQualityParams(lat, lon float64) url.Values {
	q := url.Values{}
	q.Set("latitude", coord(lat))
	q.Set("longitude", coord(lon))
	q.Set("current", "us_aqi,alder_pollen,birch_pollen,grass_pollen,mugwort_pollen,ragweed_pollen")
	q.Set("hourly", "us_aqi,alder_pollen,birch_pollen,grass_pollen,mugwort_pollen,ragweed_pollen")
	q.Set("forecast_days", "2")
	q.Set("timezone", "auto")
	return q
}

// ─── UPSTREAM SHAPES ──────────────────────────────────────────────────────────

type geocodingResponse struct {
	Results []struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"results"`
}

type forecastResponse struct {
	Current struct {
		Time        string   `json:"time"`
		Temperature float64  `json:"temperature_2m"`
		Humidity    float64  `json:"relative_humidity_2m"`
		Pressure    float64  `json:"surface_pressure"`
		WeatherCode int      `json:"weather_code"`
		WindSpeed   float64  `json:"wind_speed_10m"`
		UVIndex     *float64 `json:"uv_index"`
	} `json:"current"`
	Daily struct {
		Time           []string   `json:"time"`
		TemperatureMax []*float64 `json:"temperature_2m_max"`
		HumidityMean   []*float64 `json:"relative_humidity_2m_mean"`
		UVIndexMax     []*float64 `json:"uv_index_max"`
	} `json:"daily"`
}

// Pollen fields are null outside the regions Open-Meteo covers.
type pollenReadings struct {
	USAQI   *float64 `json:"us_aqi"`
	Alder   *float64 `json:"alder_pollen"`
	Birch   *float64 `json:"birch_pollen"`
	Grass   *float64 `json:"grass_pollen"`
	Mugwort *float64 `json:"mugwort_pollen"`
	Ragweed *float64 `json:"ragweed_pollen"`
}

type airQualityResponse struct {
	Current pollenReadings `json:"current"`
	Hourly  struct {
		Time    []string   `json:"time"`
		USAQI   []*float64 `json:"us_aqi"`
		Alder   []*float64 `json:"alder_pollen"`
		Birch   []*float64 `json:"birch_pollen"`
		Grass   []*float64 `json:"grass_pollen"`
		Mugwort []*float64 `json:"mugwort_pollen"`
		Ragweed []*float64 `json:"ragweed_pollen"`
	} `json:"hourly"`
}

// ─── NORMALISATION ────────────────────────────────────────────────────────────

func buildSnapshot(fc forecastResponse, aq airQualityResponse, now time.Time) model.WeatherSnapshot {
	snap := model.WeatherSnapshot{
		Temperature:     fc.Current.Temperature,
		Humidity:        fc.Current.Humidity,
		Pressure:        fc.Current.Pressure,
		UVIndex:         deref(fc.Current.UVIndex),
		AirQualityIndex: deref(aq.Current.USAQI),
		Pollen:          pollenIndex(aq.Current),
		Condition:       ConditionLabel(fc.Current.WeatherCode),
		WindSpeed:       fc.Current.WindSpeed,
		CapturedAt:      now,
	}
	snap.Forecast = tomorrow(fc, aq)
	return snap
}

// tomorrow builds the next-day outlook from the second daily entry and the
// worst hourly air quality and pollen of that day. It returns nil when the
// upstream response has no second day.
func tomorrow(fc forecastResponse, aq airQualityResponse) *model.ForecastSnapshot {
	d := fc.Daily
	if len(d.Time) < 2 {
		return nil
	}
	day := d.Time[1]

	f := &model.ForecastSnapshot{
		Temperature: at(d.TemperatureMax, 1),
		Humidity:    at(d.HumidityMean, 1),
		UVIndex:     at(d.UVIndexMax, 1),
	}

	h := aq.Hourly
	var worst pollenReadings
	for i, ts := range h.Time {
		if !strings.HasPrefix(ts, day) {
			continue
		}
		worst.USAQI = maxPtr(worst.USAQI, ptrAt(h.USAQI, i))
		worst.Alder = maxPtr(worst.Alder, ptrAt(h.Alder, i))
		worst.Birch = maxPtr(worst.Birch, ptrAt(h.Birch, i))
		worst.Grass = maxPtr(worst.Grass, ptrAt(h.Grass, i))
		worst.Mugwort = maxPtr(worst.Mugwort, ptrAt(h.Mugwort, i))
		worst.Ragweed = maxPtr(worst.Ragweed, ptrAt(h.Ragweed, i))
	}
	f.AirQualityIndex = deref(worst.USAQI)
	f.PollenOverall = pollenIndex(worst).Overall
	return f
}

// pollenIndex converts grain concentrations to 0–10 indices on a log scale.
// Tree is the worse of alder and birch, weed the worse of mugwort and ragweed.
func pollenIndex(r pollenReadings) model.Pollen {
	tree := scalePollen(math.Max(deref(r.Alder), deref(r.Birch)), treeVeryHigh)
	grass := scalePollen(deref(r.Grass), grassVeryHigh)
	weed := scalePollen(math.Max(deref(r.Mugwort), deref(r.Ragweed)), weedVeryHigh)
	return model.Pollen{
		Tree:    tree,
		Grass:   grass,
		Weed:    weed,
		Overall: math.Max(tree, math.Max(grass, weed)),
	}
}

func scalePollen(grains, veryHigh float64) float64 {
	if grains <= 0 || math.IsNaN(grains) {
		return 0
	}
	idx := 10 * math.Log1p(grains) / math.Log1p(veryHigh)
	return math.Round(model.ClampFloat(idx, 0, 10)*10) / 10
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func at(vs []*float64, i int) float64 {
	return deref(ptrAt(vs, i))
}

func ptrAt(vs []*float64, i int) *float64 {
	if i < 0 || i >= len(vs) {
		return nil
	}
	return vs[i]
}

func maxPtr(a, b *float64) *float64 {
	if a == nil {
		return b
	}
	if b == nil || *a >= *b {
		return a
	}
	return b
}

// ConditionLabel maps a WMO weather interpretation code to a short label.
func ConditionLabel(code int) string {
	switch {
	case code == 0:
		return "Clear sky"
	case code <= 3:
		return "Partly cloudy"
	case code == 45 || code == 48:
		return "Fog"
	case code >= 51 && code <= 57:
		return "Drizzle"
	case code >= 61 && code <= 67, code >= 80 && code <= 82:
		return "Rain"
	case code >= 71 && code <= 77, code == 85 || code == 86:
		return "Snow"
	case code >= 95:
		return "Thunderstorm"
	}
	return "Unknown"
}
