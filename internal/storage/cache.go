// internal/storage/cache.go
package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/redis/go-redis/v9"

	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

const (
	homePageCacheKey = "directory:homepage"
	keywordsCacheKey = "directory:keywords"
)

// TaxonomyReader is the database side of the taxonomy cache.
type TaxonomyReader interface {
	ListKeywords(ctx context.Context, categoryName string) ([]models.Keyword, error)
	HomePageGroups(ctx context.Context) ([]models.CategoryKeywordGroup, error)
	GetCountryByISOCode(ctx context.Context, isoCode string) (*models.Country, error)
}

// CachedTaxonomy is a read-through Redis cache over taxonomy queries. The
// taxonomy changes rarely and backs the busiest endpoints. Cache failures
// degrade to the database: a cold or broken cache must never take the
// endpoints down with it.
type CachedTaxonomy struct {
	reader TaxonomyReader
	redis  *redis.Client
	ttl    time.Duration
	log    logger.Logger
}

func NewCachedTaxonomy(reader TaxonomyReader, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedTaxonomy {
	return &CachedTaxonomy{reader: reader, redis: rdb, ttl: ttl, log: log}
}

// HomePageGroups serves the home page grouping, cached.
func (c *CachedTaxonomy) HomePageGroups(ctx context.Context) ([]models.CategoryKeywordGroup, error) {
	var groups []models.CategoryKeywordGroup
	if c.lookup(ctx, homePageCacheKey, &groups) {
		return groups, nil
	}

	groups, err := c.reader.HomePageGroups(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, homePageCacheKey, groups)
	return groups, nil
}

// ListKeywords serves the keyword list, cached only for the unfiltered case
// the home page and keyword browser actually hit.
func (c *CachedTaxonomy) ListKeywords(ctx context.Context, categoryName string) ([]models.Keyword, error) {
	if categoryName != "" {
		return c.reader.ListKeywords(ctx, categoryName)
	}

	var keywords []models.Keyword
	if c.lookup(ctx, keywordsCacheKey, &keywords) {
		return keywords, nil
	}

	keywords, err := c.reader.ListKeywords(ctx, "")
	if err != nil {
		return nil, err
	}
	c.store(ctx, keywordsCacheKey, keywords)
	return keywords, nil
}

// GetCountryByISOCode is a single-row lookup, served straight from the
// database.
func (c *CachedTaxonomy) GetCountryByISOCode(ctx context.Context, isoCode string) (*models.Country, error) {
	return c.reader.GetCountryByISOCode(ctx, isoCode)
}

// Invalidate drops the cached taxonomy, used after reindexing.
func (c *CachedTaxonomy) Invalidate(ctx context.Context) {
	if err := c.redis.Del(ctx, homePageCacheKey, keywordsCacheKey).Err(); err != nil {
		c.log.Warn("failed to invalidate taxonomy cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (c *CachedTaxonomy) lookup(ctx context.Context, key string, dest interface{}) bool {
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !stderrors.Is(err, redis.Nil) {
			c.log.Warn("taxonomy cache read failed, falling back to database", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.log.Warn("taxonomy cache entry corrupt, falling back to database", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return false
	}
	return true
}

func (c *CachedTaxonomy) store(ctx context.Context, key string, value interface{}) {
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.log.Warn("taxonomy cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
