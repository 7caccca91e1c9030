package docmodel

import "git.home.luguber.info/inful/docforge/internal/util/sets"

// CacheKey addresses one cached value: a file plus an operation-specific
// integer key (0 for checksums, an option hash for literal includes).
type CacheKey struct {
	File FileId
	Key  uint64
}

// Cache is a versioned store for the results of expensive, I/O-bound node
// resolution. Every write to a key increments that key's version counter;
// versions never reset. Keys are indexed per file so that a changed file can
// be invalidated in one call.
type Cache struct {
	entries    map[CacheKey]any
	versions   map[CacheKey]int
	keysByFile map[FileId]sets.Set[uint64]
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries:    make(map[CacheKey]any),
		versions:   make(map[CacheKey]int),
		keysByFile: make(map[FileId]sets.Set[uint64]),
	}
}

// Set stores a value and increments the key's version counter.
func (c *Cache) Set(file FileId, key uint64, value any) {
	k := CacheKey{File: file, Key: key}
	c.entries[k] = value
	c.versions[k]++
	if c.keysByFile[file] == nil {
		c.keysByFile[file] = sets.New[uint64]()
	}
	c.keysByFile[file].Add(key)
}

// Get returns the value stored for the key, or ok=false if absent. A miss is
// never an error.
func (c *Cache) Get(file FileId, key uint64) (any, bool) {
	v, ok := c.entries[CacheKey{File: file, Key: key}]
	return v, ok
}

// Version returns the current version counter for a key (0 if never set).
func (c *Cache) Version(file FileId, key uint64) int {
	return c.versions[CacheKey{File: file, Key: key}]
}

// Invalidate removes every entry stored under the given file. Version
// counters are retained so later writes keep incrementing.
func (c *Cache) Invalidate(file FileId) {
	for key := range c.keysByFile[file] {
		delete(c.entries, CacheKey{File: file, Key: key})
	}
	delete(c.keysByFile, file)
}

// Len returns the number of live entries.
func (c *Cache) Len() int { return len(c.entries) }
