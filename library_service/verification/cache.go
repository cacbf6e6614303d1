package verification

import (
	"context"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"pustaka/types"
)

const cacheTTL = 24 * time.Hour

// Cache stores successful external verifications in redis so repeat lookups
// skip the catalog APIs. A nil Cache or an unreachable redis degrades to no
// caching at all; verification still works.
type Cache struct {
	client *redis.Client
}

// NewCache connects to redis at addr and pings it. When the ping fails a
// warning is logged and nil is returned so callers run uncached.
func NewCache(addr string) *Cache {
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Warning: redis unavailable at %s, verification cache disabled: %v", addr, err)
		return nil
	}
	log.Printf("Verification cache connected to redis at %s", addr)
	return &Cache{client: client}
}

// key builds the cache key from whichever identity fields are present.
// ISBN alone is enough; otherwise title+author.
func key(isbn, title, author string) string {
	if n := types.NormalizeISBN(isbn); n != "" {
		return "pustaka:verified:isbn:" + n
	}
	return "pustaka:verified:book:" + strings.ToLower(strings.TrimSpace(title)) +
		"|" + strings.ToLower(strings.TrimSpace(author))
}

// Get returns the cached source for the identity, or nil on miss.
func (c *Cache) Get(ctx context.Context, isbn, title, author string) *types.Source {
	if c == nil {
		return nil
	}
	raw, err := c.client.Get(ctx, key(isbn, title, author)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("verification cache read failed: %v", err)
		}
		return nil
	}
	var src types.Source
	if err := json.Unmarshal(raw, &src); err != nil {
		log.Printf("verification cache entry corrupt, dropping: %v", err)
		return nil
	}
	return &src
}

// Put stores a verified source under both the lookup identity and the
// source's own ISBN.
func (c *Cache) Put(ctx context.Context, isbn, title, author string, src types.Source) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(src)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key(isbn, title, author), raw, cacheTTL).Err(); err != nil {
		log.Printf("verification cache write failed: %v", err)
		return
	}
	if src.ISBN != "" && types.NormalizeISBN(src.ISBN) != types.NormalizeISBN(isbn) {
		_ = c.client.Set(ctx, key(src.ISBN, "", ""), raw, cacheTTL).Err()
	}
}
