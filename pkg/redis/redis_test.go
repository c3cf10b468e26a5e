package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/peergap/pkg/config"
)

func disabledClient(t *testing.T, prefix string) *Client {
	t.Helper()
	c, err := New(&config.Config{Redis: config.RedisConfig{KeyPrefix: prefix}})
	require.NoError(t, err)
	return c
}

func TestNew_DisabledKeepsNamespace(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", DefaultNamespace},
		{"peergap-staging", "peergap-staging"},
		{" peergap-ci: ", "peergap-ci"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			c := disabledClient(t, tt.prefix)
			assert.False(t, c.Enabled())
			assert.Nil(t, c.Redis())
			assert.Equal(t, tt.want, c.Namespace())
			assert.NoError(t, c.Ping(context.Background()))
			assert.NoError(t, c.Close())
		})
	}
}

func TestNew_UnreachableServer(t *testing.T) {
	// 포트 1은 열려 있지 않음
	cfg := &config.Config{Redis: config.RedisConfig{Enabled: true, Host: "127.0.0.1", Port: "1"}}

	c, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "127.0.0.1:1")
}

func TestClient_Key(t *testing.T) {
	c := disabledClient(t, "peergap-staging")

	assert.Equal(t, "peergap-staging:cache:financials:WRB", c.Key("cache", FinancialsKey("WRB")))
	assert.Equal(t, "peergap-staging:ratelimit:fmp", c.Key("ratelimit", FMPLimit(5).Key))
	assert.Equal(t, "peergap-staging:cache", c.Key("cache"))
}

func TestCache_DisabledIsNoop(t *testing.T) {
	cache := NewCache(disabledClient(t, ""))
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, ProfileKey("WRB"), map[string]string{"symbol": "WRB"}, TTLLong))

	var out map[string]string
	found, err := cache.Get(ctx, ProfileKey("WRB"), &out)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, out)
}

func TestRateLimiter_DisabledAdmitsAll(t *testing.T) {
	limiter := NewRateLimiter(disabledClient(t, ""))
	cfg := FMPLimit(5)

	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, limiter.Wait(ctx, cfg))
}

func TestFMPLimit(t *testing.T) {
	assert.Equal(t, RateLimitConfig{Key: "fmp", Limit: 300, Window: time.Minute}, FMPLimit(5))
	assert.Equal(t, 60, FMPLimit(0).Limit)
}

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "profile:WRB", ProfileKey("WRB"))
	assert.Equal(t, "financials:WRB", FinancialsKey("WRB"))
	assert.Equal(t, "screen:ab12", ScreenKey("ab12"))
}
