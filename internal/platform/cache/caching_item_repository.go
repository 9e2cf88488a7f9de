// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"secondchance_backend/internal/feature/items/domain/entity"
	"secondchance_backend/internal/feature/items/usecase"
)

// CachingItemRepository decorates an ItemRepository with Redis caching.
// Reads are served read-through; every mutation drops the whole namespace,
// since a single write can change any list or search result.
type CachingItemRepository struct {
	inner     usecase.ItemRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.ItemRepository = (*CachingItemRepository)(nil)

// NewCachingItemRepository decorates an ItemRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "items".
// A nil rdb disables caching entirely.
func NewCachingItemRepository(rdb *redis.Client, ttl time.Duration, inner usecase.ItemRepository, namespace string) *CachingItemRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "items"
	}
	return &CachingItemRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// List retrieves all items, checking cache first then falling back to the store.
func (c *CachingItemRepository) List(ctx context.Context) ([]entity.Item, error) {
	var out []entity.Item
	err := c.readThrough(ctx, c.listKey(), &out, func() (any, error) {
		items, err := c.inner.List(ctx)
		out = items
		return items, err
	})
	return out, err
}

// FindByID retrieves an item by id. Misses on the store are not cached.
func (c *CachingItemRepository) FindByID(ctx context.Context, id string) (*entity.Item, error) {
	var out *entity.Item
	err := c.readThrough(ctx, c.idKey(id), &out, func() (any, error) {
		item, err := c.inner.FindByID(ctx, id)
		out = item
		return item, err
	})
	return out, err
}

// Search runs a filtered search through the cache.
func (c *CachingItemRepository) Search(ctx context.Context, f entity.SearchFilter) ([]entity.Item, error) {
	var out []entity.Item
	err := c.readThrough(ctx, c.searchKey(f), &out, func() (any, error) {
		items, err := c.inner.Search(ctx, f)
		out = items
		return items, err
	})
	return out, err
}

// Count is never cached.
func (c *CachingItemRepository) Count(ctx context.Context) (int64, error) {
	return c.inner.Count(ctx)
}

// Create stores the item and invalidates cached reads.
func (c *CachingItemRepository) Create(ctx context.Context, item *entity.Item) error {
	if err := c.inner.Create(ctx, item); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Update updates the item and invalidates cached reads.
func (c *CachingItemRepository) Update(ctx context.Context, id string, upd entity.ItemUpdate, updatedAt time.Time) error {
	if err := c.inner.Update(ctx, id, upd, updatedAt); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// Delete removes the item and invalidates cached reads.
func (c *CachingItemRepository) Delete(ctx context.Context, id string) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// InsertMany bulk-loads items and invalidates cached reads.
func (c *CachingItemRepository) InsertMany(ctx context.Context, items []entity.Item) (int, error) {
	n, err := c.inner.InsertMany(ctx, items)
	if n > 0 {
		c.invalidate(ctx)
	}
	return n, err
}

// readThrough decodes the cached value at key into dst, or calls load and caches its result.
// load must also assign its result to dst.
func (c *CachingItemRepository) readThrough(ctx context.Context, key string, dst any, load func() (any, error)) error {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		_, err := load()
		return err
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		if err := json.Unmarshal(b, dst); err == nil {
			return nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the store
	v, err := load()
	if err != nil {
		return err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return nil
}

func (c *CachingItemRepository) invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	// Best effort: a failed invalidation only leaves entries until their TTL expires
	if err := c.deleteByPattern(ctx, c.namespace+":*"); err != nil {
		slog.Warn("item cache invalidation failed", "namespace", c.namespace, "error", err)
	}
}

func (c *CachingItemRepository) listKey() string {
	return c.namespace + ":list"
}

func (c *CachingItemRepository) idKey(id string) string {
	return c.namespace + ":id:" + url.PathEscape(id)
}

// searchKey builds a canonical key; name is normalised because the match ignores case.
func (c *CachingItemRepository) searchKey(f entity.SearchFilter) string {
	v := url.Values{}
	v.Set("name", strings.ToLower(strings.TrimSpace(f.Name)))
	v.Set("category", f.Category)
	v.Set("condition", f.Condition)
	if f.MaxAgeYears != nil {
		v.Set("age_years", strconv.Itoa(*f.MaxAgeYears))
	}
	return fmt.Sprintf("%s:search:%s", c.namespace, v.Encode())
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingItemRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
