package report

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of sessions whose last report is kept.
const DefaultCacheSize = 256

// Cache keeps the last report generated in each session so it can be
// rendered again without re-running the query. Least recently used sessions
// are evicted first.
type Cache struct {
	results *lru.Cache[string, *Result]
}

// NewCache returns a cache holding up to size sessions.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	results, err := lru.New[string, *Result](size)
	if err != nil {
		return nil, err
	}
	return &Cache{results: results}, nil
}

// Put stores r as the session's last report, replacing any earlier one.
func (c *Cache) Put(session string, r *Result) {
	c.results.Add(session, r)
}

// Get returns the session's last report.
func (c *Cache) Get(session string) (*Result, bool) {
	return c.results.Get(session)
}

// Forget drops the session's report.
func (c *Cache) Forget(session string) {
	c.results.Remove(session)
}

// Len returns the number of cached sessions.
func (c *Cache) Len() int {
	return c.results.Len()
}
