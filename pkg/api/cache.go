package api

import (
	"context"
	"strings"
	"time"

	"xchbal/pkg/models"

	"github.com/patrickmn/go-cache"
)

// PriceSource is anything that can quote the coin in a fiat currency.
type PriceSource interface {
	FetchPrice(ctx context.Context, currency string) (models.PriceData, error)
}

// PriceCache serves repeated price lookups for the same currency from memory until ttl expires.
// Failed lookups are never cached.
type PriceCache struct {
	src   PriceSource
	cache *cache.Cache
}

func NewPriceCache(src PriceSource, ttl time.Duration) *PriceCache {
	return &PriceCache{
		src:   src,
		cache: cache.New(ttl, 2*ttl),
	}
}

func (p *PriceCache) FetchPrice(ctx context.Context, currency string) (models.PriceData, error) {
	key := strings.ToLower(strings.TrimSpace(currency))
	if v, ok := p.cache.Get(key); ok {
		return v.(models.PriceData), nil
	}
	data, err := p.src.FetchPrice(ctx, currency)
	if err != nil {
		return models.PriceData{}, err
	}
	p.cache.Set(key, data, cache.DefaultExpiration)
	return data, nil
}

// CachedClient is a Client whose price lookups go through a PriceCache.
type CachedClient struct {
	*Client
	prices *PriceCache
}

func NewCachedClient(c *Client, ttl time.Duration) *CachedClient {
	return &CachedClient{Client: c, prices: NewPriceCache(c, ttl)}
}

func (c *CachedClient) FetchPrice(ctx context.Context, currency string) (models.PriceData, error) {
	return c.prices.FetchPrice(ctx, currency)
}
