package repository

import (
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	DefaultEmailCodeTTL      = 10 * time.Minute
	DefaultEmailCodeCapacity = 1000
)

// EmailCodeCache keeps email-change codes in a bounded TTL cache. Entries
// expire a fixed time after they are written; reads do not extend them.
type EmailCodeCache struct {
	cache *ttlcache.Cache[string, string]
}

func NewEmailCodeCache(ttl time.Duration, capacity uint64) *EmailCodeCache {
	if ttl <= 0 {
		ttl = DefaultEmailCodeTTL
	}
	if capacity == 0 {
		capacity = DefaultEmailCodeCapacity
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, string](ttl),
		ttlcache.WithCapacity[string, string](capacity),
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go cache.Start()

	return &EmailCodeCache{cache: cache}
}

func emailCacheKey(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

func (c *EmailCodeCache) Save(email string, code string) {
	c.cache.Set(emailCacheKey(email), code, ttlcache.DefaultTTL)
}

func (c *EmailCodeCache) Get(email string) (string, bool) {
	item := c.cache.Get(emailCacheKey(email))
	if item == nil || item.IsExpired() {
		return "", false
	}
	return item.Value(), true
}

func (c *EmailCodeCache) Delete(email string) {
	c.cache.Delete(emailCacheKey(email))
}

func (c *EmailCodeCache) Len() int {
	return c.cache.Len()
}

// Close stops the cache's cleanup goroutine.
func (c *EmailCodeCache) Close() {
	c.cache.Stop()
}
