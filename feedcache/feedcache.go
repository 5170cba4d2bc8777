// Package feedcache manages the redis-cached community feed pages. The
// moderation pipeline only evicts and recomputes; reads happen in the
// serving path of a different service.
package feedcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// PageLoader produces the content of one feed page, typically by querying
// the search index.
type PageLoader func(ctx context.Context, communityID string, page, pageSize int) (any, error)

type Cache struct {
	rdb    *redis.Client
	data   *cache.Cache
	ttl    time.Duration
	pages  int
	size   int
	loader PageLoader
	logger *slog.Logger
}

const (
	// DefaultFirstPages is how many leading feed pages a recompute rebuilds.
	DefaultFirstPages = 5
	defaultPageSize   = 20
)

func New(redisURL string, ttl time.Duration, loader PageLoader, logger *slog.Logger) (*Cache, error) {
	ctx := context.Background()
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	data := cache.New(&cache.Options{
		Redis: rdb,
	})
	return &Cache{
		rdb:    rdb,
		data:   data,
		ttl:    ttl,
		pages:  DefaultFirstPages,
		size:   defaultPageSize,
		loader: loader,
		logger: logger.With("system", "feedcache"),
	}, nil
}

func (c *Cache) Close() error {
	return c.rdb.Close()
}

func feedPageKey(communityID string, page int) string {
	return fmt.Sprintf("discussion_feed_%s_page_%d", communityID, page)
}

// PurgePrefix deletes every key under prefix.
func (c *Cache) PurgePrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 100).Iterator()
	deleted := 0
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete cache key %s: %w", iter.Val(), err)
		}
		deleted++
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan failed for prefix %s: %w", prefix, err)
	}
	c.logger.Debug("purged cache prefix", "prefix", prefix, "deleted", deleted)
	return nil
}

// RecomputeFirstPages rebuilds the first pages of the community feed from
// the page loader. When refreshOnly is true, pages not already cached are
// left alone.
func (c *Cache) RecomputeFirstPages(ctx context.Context, communityID string, refreshOnly bool) error {
	for page := 1; page <= c.pages; page++ {
		key := feedPageKey(communityID, page)
		if refreshOnly {
			n, err := c.rdb.Exists(ctx, key).Result()
			if err != nil {
				return fmt.Errorf("failed to check cache key %s: %w", key, err)
			}
			if n == 0 {
				continue
			}
		}
		val, err := c.loader(ctx, communityID, page, c.size)
		if err != nil {
			return fmt.Errorf("failed to load feed page %d for community %s: %w", page, communityID, err)
		}
		if err := c.data.Set(&cache.Item{
			Ctx:   ctx,
			Key:   key,
			Value: val,
			TTL:   c.ttl,
		}); err != nil {
			return fmt.Errorf("failed to cache feed page %d for community %s: %w", page, communityID, err)
		}
	}
	c.logger.Debug("recomputed feed pages", "communityId", communityID, "refreshOnly", refreshOnly)
	return nil
}
