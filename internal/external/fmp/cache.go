package fmp

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/wonny/peergap/internal/contracts"
	"github.com/wonny/peergap/pkg/logger"
	"github.com/wonny/peergap/pkg/redis"
)

// Provider is everything the analysis service needs from a data provider
type Provider interface {
	contracts.FinancialFetcher
	contracts.CandidateSearcher
	contracts.ProfileSource
}

var _ Provider = (*Client)(nil)
var _ Provider = (*CachedProvider)(nil)

// CachedProvider wraps a provider with Redis TTL caching
// Cache failures are logged and fall through to the provider.
type CachedProvider struct {
	next         Provider
	cache        *redis.Cache
	financialTTL time.Duration
	logger       *logger.Logger
}

// NewCachedProvider creates a caching provider
// financialTTL <= 0 uses redis.TTLDaily.
func NewCachedProvider(next Provider, cache *redis.Cache, financialTTL time.Duration, log *logger.Logger) *CachedProvider {
	if financialTTL <= 0 {
		financialTTL = redis.TTLDaily
	}
	return &CachedProvider{
		next:         next,
		cache:        cache,
		financialTTL: financialTTL,
		logger:       log.WithModule("fmp_cache"),
	}
}

// Fetch returns cached financials or fetches and stores them
func (p *CachedProvider) Fetch(ctx context.Context, symbol string) (*contracts.RawFinancials, error) {
	key := redis.FinancialsKey(contracts.NormalizeSymbol(symbol))

	var cached contracts.RawFinancials
	if p.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	raw, err := p.next.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, raw, p.financialTTL)
	return raw, nil
}

// Profile returns a cached profile or fetches and stores it
func (p *CachedProvider) Profile(ctx context.Context, symbol string) (*contracts.EntityProfile, error) {
	key := redis.ProfileKey(contracts.NormalizeSymbol(symbol))

	var cached contracts.EntityProfile
	if p.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	profile, err := p.next.Profile(ctx, symbol)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, profile, redis.TTLLong)
	return profile, nil
}

// SearchCandidates returns a cached screen or runs and stores it
func (p *CachedProvider) SearchCandidates(ctx context.Context, query contracts.CandidateQuery) ([]contracts.EntityProfile, error) {
	key := redis.ScreenKey(queryDigest(query))

	var cached []contracts.EntityProfile
	if p.lookup(ctx, key, &cached) {
		return cached, nil
	}

	out, err := p.next.SearchCandidates(ctx, query)
	if err != nil {
		return nil, err
	}
	p.store(ctx, key, out, redis.TTLMedium)
	return out, nil
}

func (p *CachedProvider) lookup(ctx context.Context, key string, dest interface{}) bool {
	found, err := p.cache.Get(ctx, key, dest)
	if err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return false
	}
	return found
}

func (p *CachedProvider) store(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if err := p.cache.Set(ctx, key, value, ttl); err != nil {
		p.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func queryDigest(q contracts.CandidateQuery) string {
	b, _ := json.Marshal(q)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:8])
}
