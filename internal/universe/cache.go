package universe

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"bandwatch/configs"
	"bandwatch/internal/market"
)

const (
	instrumentsKey = "bandwatch:all_instruments"
	sessionKey     = "bandwatch:start_ups"

	// Every forceEvery-th process start ignores the cached snapshot.
	forceEvery = 5
)

// ErrCacheMiss is returned when no instrument snapshot is cached.
var ErrCacheMiss = errors.New("instrument cache miss")

// Cache persists the instrument universe snapshot between process runs.
type Cache interface {
	// Instruments returns the cached snapshot, or ErrCacheMiss.
	Instruments(ctx context.Context) ([]market.Instrument, error)

	// SaveInstruments replaces the cached snapshot.
	SaveInstruments(ctx context.Context, instruments []market.Instrument) error

	// NextSession increments and returns the process start counter.
	NextSession(ctx context.Context) (int64, error)
}

// RedisCache stores the snapshot as a JSON blob under a fixed key and the
// session counter as a plain integer.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to redis and verifies connectivity with a ping.
func NewRedisCache(cfg configs.RedisConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Instruments(ctx context.Context) ([]market.Instrument, error) {
	blob, err := c.client.Get(ctx, instrumentsKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var instruments []market.Instrument
	if err := json.Unmarshal(blob, &instruments); err != nil {
		return nil, err
	}
	if len(instruments) == 0 {
		return nil, ErrCacheMiss
	}
	return instruments, nil
}

func (c *RedisCache) SaveInstruments(ctx context.Context, instruments []market.Instrument) error {
	blob, err := json.Marshal(instruments)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, instrumentsKey, blob, 0).Err()
}

func (c *RedisCache) NextSession(ctx context.Context) (int64, error) {
	return c.client.Incr(ctx, sessionKey).Result()
}

// Close releases the redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
