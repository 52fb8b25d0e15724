// Package redisseq allocates order sequence numbers from a shared Redis
// counter.
package redisseq

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Key      string
	PoolSize int
}

// raiseTo lifts the counter to ARGV[1] if it is lower, so a fresh Redis
// never hands out a sequence the ledger already holds.
var raiseTo = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
local floor = tonumber(ARGV[1])
if cur < floor then
	redis.call("SET", KEYS[1], floor)
	return floor
end
return cur
`)

type Allocator struct {
	client *redis.Client
	key    string
	log    *zap.Logger
}

// Open connects to Redis, checks it with PING and raises the counter to
// floor.
func Open(ctx context.Context, cfg Config, floor uint64, log *zap.Logger) (*Allocator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Key == "" {
		cfg.Key = "bistro:order:seq"
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 20
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  3 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "redisseq: ping %s", cfg.Addr)
	}

	cur, err := raiseTo.Run(ctx, client, []string{cfg.Key}, floor).Int64()
	if err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "redisseq: seed counter")
	}
	log.Info("redis order sequence ready",
		zap.String("addr", cfg.Addr),
		zap.String("key", cfg.Key),
		zap.Int64("current", cur),
	)
	return &Allocator{client: client, key: cfg.Key, log: log}, nil
}

// Allocate increments the shared counter and returns the new value.
func (a *Allocator) Allocate(ctx context.Context) (uint64, error) {
	v, err := a.client.Incr(ctx, a.key).Result()
	if err != nil {
		return 0, errors.Wrap(err, "redisseq: incr")
	}
	if v <= 0 {
		return 0, errors.Newf("redisseq: counter %q is %d", a.key, v)
	}
	return uint64(v), nil
}

func (a *Allocator) Close() error {
	return a.client.Close()
}
