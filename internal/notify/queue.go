package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amoylab/taskflow/internal/common/cnst"
	"github.com/amoylab/taskflow/internal/common/config"
	"github.com/amoylab/taskflow/pkg/utils"
)

// Queue carries encoded push jobs to the delivery process
type Queue interface {
	// Push appends one encoded job
	Push(ctx context.Context, job []byte) error
	// Pop waits up to timeout for the next job. It returns nil, nil on timeout.
	Pop(ctx context.Context, timeout time.Duration) ([]byte, error)
	// Close releases the underlying connection
	Close() error
}

// NewRedisClient connects to redis as configured and pings it
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	addrs := utils.SplitByMultipleDelimiters(cfg.Addr, ";", ",")
	opts := &redis.UniversalOptions{
		Addrs:    addrs,
		Username: cfg.Username,
		Password: cfg.Password,
	}
	if cfg.ClusterType == cnst.RedisClusterTypeSentinel {
		opts.MasterName = cfg.MasterName
	}
	if cfg.ClusterType != cnst.RedisClusterTypeCluster {
		// can not set db in cluster mode
		opts.DB = cfg.DB
	}
	client := redis.NewUniversalClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisQueue is a redis list: producers RPUSH, the worker BLPOPs
type RedisQueue struct {
	client redis.UniversalClient
	key    string
}

// NewRedisQueue creates a queue on the list named key
func NewRedisQueue(client redis.UniversalClient, key string) *RedisQueue {
	if key == "" {
		key = cnst.DefaultPushQueueKey
	}
	return &RedisQueue{client: client, key: key}
}

// Key returns the list name
func (q *RedisQueue) Key() string {
	return q.key
}

func (q *RedisQueue) Push(ctx context.Context, job []byte) error {
	if err := q.client.RPush(ctx, q.key, job).Err(); err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) ([]byte, error) {
	res, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}
	if len(res) != 2 {
		return nil, fmt.Errorf("unexpected BLPOP reply of %d elements", len(res))
	}
	return []byte(res[1]), nil
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}
