// internal/storage/cache_test.go
package storage

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"service-directory/internal/common/logger"
	"service-directory/internal/models"
)

type stubTaxonomyReader struct {
	groups   []models.CategoryKeywordGroup
	keywords []models.Keyword
	country  *models.Country
	err      error
	calls    int
}

func (s *stubTaxonomyReader) ListKeywords(_ context.Context, _ string) ([]models.Keyword, error) {
	s.calls++
	return s.keywords, s.err
}

func (s *stubTaxonomyReader) HomePageGroups(_ context.Context) ([]models.CategoryKeywordGroup, error) {
	s.calls++
	return s.groups, s.err
}

func (s *stubTaxonomyReader) GetCountryByISOCode(_ context.Context, _ string) (*models.Country, error) {
	s.calls++
	return s.country, s.err
}

func newTestCache(t *testing.T, reader TaxonomyReader) (*CachedTaxonomy, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewCachedTaxonomy(reader, rdb, 5*time.Minute, logger.NewNoOpLogger()), mr
}

// ==========================================
// Taxonomy Cache Tests
// ==========================================

func TestHomePageGroups_ReadThrough(t *testing.T) {
	reader := &stubTaxonomyReader{groups: []models.CategoryKeywordGroup{
		{Name: "Health Services", Keywords: []string{"clinic", "hospital"}},
	}}
	cache, mr := newTestCache(t, reader)

	first, err := cache.HomePageGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, reader.calls)
	assert.True(t, mr.Exists(homePageCacheKey))

	// Second read is served from the cache.
	second, err := cache.HomePageGroups(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, reader.calls)
}

func TestHomePageGroups_CorruptEntryFallsBack(t *testing.T) {
	reader := &stubTaxonomyReader{groups: []models.CategoryKeywordGroup{{Name: "Health Services"}}}
	cache, mr := newTestCache(t, reader)
	require.NoError(t, mr.Set(homePageCacheKey, "{not json"))

	groups, err := cache.HomePageGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, 1, reader.calls)
}

func TestHomePageGroups_RedisDownFallsBack(t *testing.T) {
	reader := &stubTaxonomyReader{groups: []models.CategoryKeywordGroup{{Name: "Health Services"}}}
	cache, mr := newTestCache(t, reader)
	mr.Close()

	groups, err := cache.HomePageGroups(context.Background())
	require.NoError(t, err)
	require.Len(t, groups, 1)
}

func TestHomePageGroups_DatabaseErrorPropagates(t *testing.T) {
	reader := &stubTaxonomyReader{err: stderrors.New("connection refused")}
	cache, _ := newTestCache(t, reader)

	_, err := cache.HomePageGroups(context.Background())
	require.Error(t, err)
}

func TestListKeywords_CachesOnlyUnfiltered(t *testing.T) {
	reader := &stubTaxonomyReader{keywords: []models.Keyword{{ID: 1, Name: "clinic"}}}
	cache, mr := newTestCache(t, reader)

	_, err := cache.ListKeywords(context.Background(), "Health Services")
	require.NoError(t, err)
	assert.False(t, mr.Exists(keywordsCacheKey))

	_, err = cache.ListKeywords(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, mr.Exists(keywordsCacheKey))
}

func TestInvalidate(t *testing.T) {
	reader := &stubTaxonomyReader{}
	cache, mr := newTestCache(t, reader)

	raw, err := json.Marshal([]models.CategoryKeywordGroup{{Name: "stale"}})
	require.NoError(t, err)
	require.NoError(t, mr.Set(homePageCacheKey, string(raw)))

	cache.Invalidate(context.Background())
	assert.False(t, mr.Exists(homePageCacheKey))
}
