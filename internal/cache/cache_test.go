package cache_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-master/internal/cache"
	"research-master/internal/models"
)

func sampleResponse() models.SearchResponse {
	return models.SearchResponse{
		Papers:       []models.Paper{models.NewBuilder("p1", "Title", "https://x", models.SourceArxiv).Build()},
		TotalResults: 1,
		Source:       "arxiv",
		Query:        "q",
	}
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	cfg := cache.DefaultConfig(t.TempDir())
	c := cache.New(cfg, nil)

	key := cache.SearchKey("q", "arxiv", 10, "", "", "")
	c.SetSearch(key, "arxiv", "q", sampleResponse(), "")

	_, outcome := c.GetSearch(key)
	assert.Equal(t, cache.Miss, outcome)
}

func TestEnabledCacheNegativeTTLReadsExpired(t *testing.T) {
	cfg := cache.DefaultConfig(t.TempDir())
	cfg.Enabled = true
	cfg.SearchTTL = -time.Second // already expired by the time we read it back
	c := cache.New(cfg, nil)

	key := cache.SearchKey("q", "arxiv", 10, "", "", "")
	c.SetSearch(key, "arxiv", "q", sampleResponse(), "")

	resp, outcome := c.GetSearch(key)
	assert.Equal(t, cache.Expired, outcome)
	assert.Equal(t, "arxiv", resp.Source)
}

func TestZeroTTLExpiresWithinTheSameSecond(t *testing.T) {
	cfg := cache.DefaultConfig(t.TempDir())
	cfg.Enabled = true
	cfg.SearchTTL = 0
	c := cache.New(cfg, nil)

	key := cache.SearchKey("q", "arxiv", 10, "", "", "")
	c.SetSearch(key, "arxiv", "q", sampleResponse(), "")

	resp, outcome := c.GetSearch(key)
	assert.Equal(t, cache.Expired, outcome)
	assert.Equal(t, "arxiv", resp.Source)
}

func TestEnabledCacheFreshHit(t *testing.T) {
	dir := t.TempDir()
	cfg := cache.DefaultConfig(dir)
	cfg.Enabled = true
	c := cache.New(cfg, nil)

	key := cache.CitationKey("p1", "arxiv", 20)
	c.SetCitations(key, "arxiv", "p1", sampleResponse(), "")

	resp, outcome := c.GetCitations(key)
	require.Equal(t, cache.Hit, outcome)
	assert.Len(t, resp.Papers, 1)
}

func TestTruncatedFileIsTreatedAsMiss(t *testing.T) {
	dir := t.TempDir()
	cfg := cache.DefaultConfig(dir)
	cfg.Enabled = true
	c := cache.New(cfg, nil)

	key := cache.SearchKey("q", "arxiv", 10, "", "", "")
	c.SetSearch(key, "arxiv", "q", sampleResponse(), "")

	path := filepath.Join(dir, "searches", key+".json")
	require.NoError(t, os.WriteFile(path, []byte(`{"metadata":{`), 0o644))

	_, outcome := c.GetSearch(key)
	assert.Equal(t, cache.Miss, outcome)
}

func TestStatsAndClear(t *testing.T) {
	dir := t.TempDir()
	cfg := cache.DefaultConfig(dir)
	cfg.Enabled = true
	c := cache.New(cfg, nil)

	c.SetSearch(cache.SearchKey("q1", "arxiv", 10, "", "", ""), "arxiv", "q1", sampleResponse(), "")
	c.SetSearch(cache.SearchKey("q2", "arxiv", 10, "", "", ""), "arxiv", "q2", sampleResponse(), "")
	c.SetCitations(cache.CitationKey("p1", "arxiv", 20), "arxiv", "p1", sampleResponse(), "")

	stats := c.Stats()
	assert.Equal(t, 2, stats.SearchCount)
	assert.Equal(t, 1, stats.CitationCount)

	require.NoError(t, c.ClearSearches())
	stats = c.Stats()
	assert.Equal(t, 0, stats.SearchCount)
	assert.Equal(t, 1, stats.CitationCount)

	require.NoError(t, c.ClearAll())
	stats = c.Stats()
	assert.Equal(t, 0, stats.CitationCount)
}
