// Package pricecache puts a Redis TTL cache in front of the payment
// gateway's price lookups. Checkout resolves one price per basket line, so
// without a cache every basket costs a gateway round trip per line. Price
// objects are immutable at the gateway (a price change is a new priceRef),
// which makes short TTL caching safe.
package pricecache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arenatix/ticketing/internal/payment"
)

// PriceFetcher is the slice of the gateway the cache wraps.
type PriceFetcher interface {
	RetrievePrice(ctx context.Context, priceRef string) (payment.Price, error)
}

// Cache is a read-through cache over PriceFetcher. A nil Redis client
// disables caching entirely and every call falls through to the gateway.
type Cache struct {
	rdb *redis.Client
	gw  PriceFetcher
	ttl time.Duration
}

// New builds a price cache with the given TTL; ttl <= 0 falls back to one
// minute.
func New(rdb *redis.Client, gw PriceFetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{rdb: rdb, gw: gw, ttl: ttl}
}

func key(priceRef string) string { return "price:" + priceRef }

// Get returns the price for priceRef, from Redis when present, otherwise
// from the gateway (populating Redis on the way out). Redis failures are
// treated as cache misses; the gateway answer always wins.
func (c *Cache) Get(ctx context.Context, priceRef string) (payment.Price, error) {
	if c.rdb != nil {
		if raw, err := c.rdb.Get(ctx, key(priceRef)).Result(); err == nil {
			var p payment.Price
			if err := json.Unmarshal([]byte(raw), &p); err == nil {
				return p, nil
			}
		}
	}

	p, err := c.gw.RetrievePrice(ctx, priceRef)
	if err != nil {
		return payment.Price{}, err
	}

	if c.rdb != nil {
		if raw, err := json.Marshal(p); err == nil {
			_ = c.rdb.Set(ctx, key(priceRef), raw, c.ttl).Err()
		}
	}
	return p, nil
}
