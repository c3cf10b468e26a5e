package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Cache stores JSON-encoded provider responses under "<namespace>:cache:"
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
}

// NewCache creates a cache bound to the client's namespace
func NewCache(client *Client) *Cache {
	return &Cache{client: client}
}

// Get decodes a cached value into dest
// A miss is (false, nil); connection and decode failures are errors.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.client.Key("cache", key)).Bytes()
	if isMiss(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return true, nil
}

// Set stores a value with a TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return c.client.Redis().Set(ctx, c.client.Key("cache", key), data, ttl).Err()
}

// Provider response TTLs
const (
	TTLMedium = 10 * time.Minute // 스크리너 결과
	TTLLong   = 1 * time.Hour    // 회사 프로필
	TTLDaily  = 24 * time.Hour   // 재무제표
)

// ProfileKey is the cache key of a company profile
func ProfileKey(symbol string) string {
	return "profile:" + symbol
}

// FinancialsKey is the cache key of a symbol's collected statements
func FinancialsKey(symbol string) string {
	return "financials:" + symbol
}

// ScreenKey is the cache key of a candidate screen, keyed by query digest
func ScreenKey(digest string) string {
	return "screen:" + digest
}
