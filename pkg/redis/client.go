package redis

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/peergap/pkg/config"
)

// DefaultNamespace prefixes every key when REDIS_KEY_PREFIX is unset
const DefaultNamespace = "peergap"

const dialTimeout = 3 * time.Second

// Client is the shared Redis handle for the FMP cache and rate limiter
// ⭐ SSOT: Redis 연결과 키 네임스페이스는 여기서만 관리
//
// A disabled client is valid: every caller treats it as "no cache, no shared limit".
type Client struct {
	rdb       *redis.Client
	namespace string
}

// New connects to Redis when REDIS_ENABLED is set
func New(cfg *config.Config) (*Client, error) {
	namespace := strings.Trim(cfg.Redis.KeyPrefix, ": ")
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if !cfg.Redis.Enabled {
		return &Client{namespace: namespace}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        net.JoinHostPort(cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          cfg.Redis.DB,
		DialTimeout: dialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis connection failed (%s): %w", rdb.Options().Addr, err)
	}

	return &Client{rdb: rdb, namespace: namespace}, nil
}

// Key builds "<namespace>:<kind>:<parts...>"
// 환경별로 같은 Redis를 공유해도 키가 섞이지 않음
func (c *Client) Key(kind string, parts ...string) string {
	elems := make([]string, 0, len(parts)+2)
	elems = append(elems, c.namespace, kind)
	elems = append(elems, parts...)
	return strings.Join(elems, ":")
}

// Namespace returns the key prefix shared by the cache and limiter
func (c *Client) Namespace() string {
	return c.namespace
}

// Ping checks the connection; a disabled client is always healthy
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c.rdb != nil
}

// Redis returns the underlying client, nil when disabled
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// isMiss reports whether err is a plain cache miss
func isMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}
