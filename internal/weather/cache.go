package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

const keyPrefix = "flareguard:weather:"

// Cache is the subset of the go-redis client the cached provider needs.
// *goredis.Client satisfies it.
type Cache interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *goredis.StatusCmd
}

// CachedProvider serves snapshots from Redis when a fresh one exists and
// falls through to the wrapped Provider otherwise. Redis failures are logged
// and never fail the request.
type CachedProvider struct {
	next   Provider
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedProvider wraps next with a Redis cache. ttl <= 0 uses 15 minutes.
func NewCachedProvider(next Provider, cache Cache, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &CachedProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With("component", "weather.cache"),
	}
}

func (p *CachedProvider) Current(ctx context.Context, loc model.Location) (model.WeatherSnapshot, error) {
	key, ok := cacheKey(loc)
	if !ok {
		return p.next.Current(ctx, loc)
	}

	raw, err := p.cache.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var snap model.WeatherSnapshot
		if jerr := json.Unmarshal(raw, &snap); jerr == nil {
			return snap, nil
		}
		p.logger.Warn("discarding undecodable cache entry", "key", key)
	case !errors.Is(err, goredis.Nil):
		p.logger.Warn("cache read failed", "key", key, "error", err)
	}

	snap, err := p.next.Current(ctx, loc)
	if err != nil {
		return model.WeatherSnapshot{}, err
	}

	if data, err := json.Marshal(snap); err == nil {
		if err := p.cache.Set(ctx, key, data, p.ttl).Err(); err != nil {
			p.logger.Warn("cache write failed", "key", key, "error", err)
		}
	}
	return snap, nil
}

// cacheKey rounds coordinates to two decimals (about 1 km), which is finer
// than the upstream model grid.
func cacheKey(loc model.Location) (string, bool) {
	if loc.HasCoordinates() {
		lat := math.Round(*loc.Latitude*100) / 100
		lon := math.Round(*loc.Longitude*100) / 100
		return fmt.Sprintf("%s%.2f:%.2f", keyPrefix, lat, lon), true
	}
	if city := strings.ToLower(strings.TrimSpace(loc.City)); city != "" {
		return keyPrefix + "city:" + city, true
	}
	return "", false
}

// OpenRedis parses a redis:// URL, connects, and pings.
func OpenRedis(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("weather: parse redis url: %w", err)
	}
	opts.DialTimeout = 5 * time.Second

	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("weather: redis ping: %w", err)
	}
	return rdb, nil
}
