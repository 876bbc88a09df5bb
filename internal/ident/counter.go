package ident

import (
	"context"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// Counter hands out strictly increasing numbers. Implementations must be
// atomic in their backing store: two callers never receive the same value,
// even from different processes.
type Counter interface {
	Next(ctx context.Context) (int64, error)
}

// CounterFunc adapts a function to the Counter interface
type CounterFunc func(ctx context.Context) (int64, error)

func (f CounterFunc) Next(ctx context.Context) (int64, error) {
	return f(ctx)
}

// MemoryCounter is an in-process counter for tests and single process tools
type MemoryCounter struct {
	last atomic.Int64
}

// NewMemoryCounter returns a counter whose first value is max(start, FirstNumber)
func NewMemoryCounter(start int64) *MemoryCounter {
	if start < FirstNumber {
		start = FirstNumber
	}
	c := &MemoryCounter{}
	c.last.Store(start - 1)
	return c
}

func (c *MemoryCounter) Next(context.Context) (int64, error) {
	return c.last.Add(1), nil
}

// nextScript raises the counter to the floor once, then increments it.
// It runs atomically on the redis server.
var nextScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local floor = tonumber(ARGV[1])
if cur < floor then
  redis.call('SET', KEYS[1], floor)
end
return redis.call('INCR', KEYS[1])
`)

// RedisCounter allocates numbers with a server-side INCR, shared by every
// process pointing at the same key
type RedisCounter struct {
	client redis.UniversalClient
	key    string
	floor  int64
}

// NewRedisCounter creates a counter that never returns a value at or below
// floor. Pass the highest task number already stored so a fresh key
// continues after existing data.
func NewRedisCounter(client redis.UniversalClient, key string, floor int64) *RedisCounter {
	if floor < FirstNumber-1 {
		floor = FirstNumber - 1
	}
	return &RedisCounter{client: client, key: key, floor: floor}
}

func (c *RedisCounter) Next(ctx context.Context) (int64, error) {
	return nextScript.Run(ctx, c.client, []string{c.key}, c.floor).Int64()
}
