// Package cache implements the content-addressed disk cache (C11): search
// and citation responses are stored as pretty JSON files keyed by an MD5 of
// their canonicalized inputs.
package cache

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"research-master/internal/models"
)

// Outcome is the tri-state result of a cache lookup.
type Outcome int

const (
	Miss Outcome = iota
	Hit
	Expired
)

const (
	searchesDir  = "searches"
	citationsDir = "citations"
)

// Config configures the cache's root directory, enable flag, and per-kind TTLs.
type Config struct {
	Enabled      bool
	Directory    string
	SearchTTL    time.Duration
	CitationTTL  time.Duration
	MaxSizeBytes int64
}

// DefaultConfig matches spec.md §6's disk-cache defaults. The cache is
// disabled by default.
func DefaultConfig(directory string) Config {
	return Config{
		Enabled:      false,
		Directory:    directory,
		SearchTTL:    30 * time.Minute,
		CitationTTL:  15 * time.Minute,
		MaxSizeBytes: 500 * 1024 * 1024,
	}
}

// entry is the on-disk file shape: { metadata: {...}, response: {...} }.
type entry struct {
	Metadata metadata              `json:"metadata"`
	Response models.SearchResponse `json:"response"`
}

type metadata struct {
	CachedAtUnix  int64  `json:"cached_at"`
	ExpiresAtUnix int64  `json:"expires_at"`
	SourceID      string `json:"source_id"`
	Query         string `json:"query"`
	RequestID     string `json:"request_id,omitempty"`
}

// Cache reads and writes cache entries on the filesystem. Safe for
// concurrent use; concurrent writes to the same key race and last-writer-wins,
// which spec.md §5 accepts.
type Cache struct {
	cfg    Config
	logger *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{cfg: cfg, logger: logger}
}

// SearchKey builds the MD5 cache key for a search request, per spec.md §4.11.
func SearchKey(query, sourceID string, maxResults int, year, author, category string) string {
	raw := fmt.Sprintf("%s|%s|%d|%s|%s|%s", query, sourceID, maxResults, year, author, category)
	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))
}

// CitationKey builds the MD5 cache key for a citation request.
func CitationKey(paperID, sourceID string, maxResults int) string {
	raw := fmt.Sprintf("%s|%s|%d", paperID, sourceID, maxResults)
	return fmt.Sprintf("%x", md5.Sum([]byte(raw)))
}

func (c *Cache) pathFor(kind, key string) string {
	return filepath.Join(c.cfg.Directory, kind, key+".json")
}

// GetSearch looks up a cached search response. A truncated or otherwise
// undeserializable file is tolerated as a Miss, per spec.md §5.
func (c *Cache) GetSearch(key string) (models.SearchResponse, Outcome) {
	return c.get(searchesDir, key)
}

// GetCitations looks up a cached citation response.
func (c *Cache) GetCitations(key string) (models.SearchResponse, Outcome) {
	return c.get(citationsDir, key)
}

func (c *Cache) get(kind, key string) (models.SearchResponse, Outcome) {
	if !c.cfg.Enabled {
		return models.SearchResponse{}, Miss
	}

	data, err := os.ReadFile(c.pathFor(kind, key))
	if err != nil {
		return models.SearchResponse{}, Miss
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return models.SearchResponse{}, Miss
	}

	if time.Now().Unix() >= e.Metadata.ExpiresAtUnix {
		return e.Response, Expired
	}
	return e.Response, Hit
}

// SetSearch writes a search response to cache. Best-effort: failures are
// logged and never bubble up. requestID is the orchestrating request's id
// (empty when called outside a stamped request context), recorded on the
// entry purely for diagnostic correlation with the writing request's logs.
func (c *Cache) SetSearch(key, sourceID, query string, resp models.SearchResponse, requestID string) {
	c.set(searchesDir, key, sourceID, query, resp, c.cfg.SearchTTL, requestID)
}

// SetCitations writes a citation response to cache.
func (c *Cache) SetCitations(key, sourceID, query string, resp models.SearchResponse, requestID string) {
	c.set(citationsDir, key, sourceID, query, resp, c.cfg.CitationTTL, requestID)
}

func (c *Cache) set(kind, key, sourceID, query string, resp models.SearchResponse, ttl time.Duration, requestID string) {
	if !c.cfg.Enabled {
		return
	}

	now := time.Now()
	e := entry{
		Metadata: metadata{
			CachedAtUnix:  now.Unix(),
			ExpiresAtUnix: now.Add(ttl).Unix(),
			SourceID:      sourceID,
			Query:         query,
			RequestID:     requestID,
		},
		Response: resp,
	}

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		c.logger.Warn("cache entry failed to marshal", slog.String("error", err.Error()))
		return
	}

	dir := filepath.Join(c.cfg.Directory, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.logger.Warn("cache directory could not be created", slog.String("dir", dir), slog.String("error", err.Error()))
		return
	}

	if err := os.WriteFile(c.pathFor(kind, key), data, 0o644); err != nil {
		c.logger.Warn("cache entry failed to write", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Stats reports the cache's enabled flag, directory, per-kind counts, sizes
// in KB, and configured TTLs, per spec.md §4.11's `stats` operation.
type Stats struct {
	Enabled       bool          `json:"enabled"`
	Directory     string        `json:"directory"`
	SearchCount   int           `json:"search_count"`
	CitationCount int           `json:"citation_count"`
	TotalSizeKB   float64       `json:"total_size_kb"`
	SearchTTL     time.Duration `json:"search_ttl"`
	CitationTTL   time.Duration `json:"citation_ttl"`
}

func (c *Cache) Stats() Stats {
	searchCount, searchBytes := countDir(filepath.Join(c.cfg.Directory, searchesDir))
	citationCount, citationBytes := countDir(filepath.Join(c.cfg.Directory, citationsDir))
	return Stats{
		Enabled:       c.cfg.Enabled,
		Directory:     c.cfg.Directory,
		SearchCount:   searchCount,
		CitationCount: citationCount,
		TotalSizeKB:   float64(searchBytes+citationBytes) / 1024.0,
		SearchTTL:     c.cfg.SearchTTL,
		CitationTTL:   c.cfg.CitationTTL,
	}
}

func countDir(dir string) (count int, bytes int64) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if info, err := e.Info(); err == nil {
			count++
			bytes += info.Size()
		}
	}
	return count, bytes
}

// ClearAll removes every cached entry.
func (c *Cache) ClearAll() error {
	if err := c.ClearSearches(); err != nil {
		return err
	}
	return c.ClearCitations()
}

// ClearSearches removes every cached search entry.
func (c *Cache) ClearSearches() error {
	return clearDir(filepath.Join(c.cfg.Directory, searchesDir))
}

// ClearCitations removes every cached citation entry.
func (c *Cache) ClearCitations() error {
	return clearDir(filepath.Join(c.cfg.Directory, citationsDir))
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
