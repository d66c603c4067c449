package cache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds the in-memory tier when no size is configured.
const DefaultMemoryEntries = 256

// Entry is one cached evaluation response.
type Entry struct {
	Key       string    `json:"key"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"createdAt"`
	TTL       int       `json:"ttl"`
}

func (e Entry) expired(now time.Time) bool {
	return e.TTL > 0 && now.Sub(e.CreatedAt) > time.Duration(e.TTL)*time.Second
}

// Options configures a Cache.
type Options struct {
	Enabled       bool
	Dir           string
	TTLSeconds    int
	MemoryEntries int
}

// Cache is a two-tier response cache. It is safe for concurrent use.
type Cache struct {
	dir        string
	ttlSeconds int
	enabled    bool
	mem        *lru.Cache[string, Entry]
}

// New creates a Cache. If opts.Dir is empty, the default cache directory is
// used. A disabled cache accepts every call and never hits.
func New(opts Options) (*Cache, error) {
	if !opts.Enabled {
		return &Cache{enabled: false}, nil
	}
	dir := opts.Dir
	if dir == "" {
		d, err := DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	size := opts.MemoryEntries
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	mem, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &Cache{
		dir:        dir,
		ttlSeconds: opts.TTLSeconds,
		enabled:    true,
		mem:        mem,
	}, nil
}

// Get retrieves a cached response by key. Returns ("", false) on miss.
func (c *Cache) Get(key string) (string, bool) {
	if c == nil || !c.enabled {
		return "", false
	}
	hashed := HashKey(key)
	now := time.Now()

	if e, ok := c.mem.Get(hashed); ok {
		if !e.expired(now) {
			return e.Response, true
		}
		c.mem.Remove(hashed)
	}

	path := c.entryPath(hashed)
	entry := c.readEntry(path)
	if entry == nil {
		return "", false
	}
	if entry.expired(now) {
		os.Remove(path)
		return "", false
	}
	c.mem.Add(hashed, *entry)
	return entry.Response, true
}

// Put stores a response in both tiers.
func (c *Cache) Put(key, response string) error {
	if c == nil || !c.enabled {
		return nil
	}
	hashed := HashKey(key)
	entry := Entry{
		Key:       hashed,
		Response:  response,
		CreatedAt: time.Now(),
		TTL:       c.ttlSeconds,
	}
	c.mem.Add(hashed, entry)

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	return os.WriteFile(c.entryPath(hashed), data, 0o644)
}

// Clear removes all cache entries and returns how many files were deleted.
func (c *Cache) Clear() (int, error) {
	if c == nil || !c.enabled || c.dir == "" {
		return 0, nil
	}
	c.mem.Purge()
	var removed int
	err := c.walk(func(path string, _ fs.FileInfo, _ *Entry) {
		if os.Remove(path) == nil {
			removed++
		}
	})
	return removed, err
}

// Prune removes expired and unreadable entries and returns how many files
// were deleted. Fresh entries are kept in both tiers.
func (c *Cache) Prune() (int, error) {
	if c == nil || !c.enabled || c.dir == "" {
		return 0, nil
	}
	now := time.Now()
	var removed int
	err := c.walk(func(path string, _ fs.FileInfo, e *Entry) {
		if e != nil && !e.expired(now) {
			return
		}
		if e != nil {
			c.mem.Remove(e.Key)
		}
		if os.Remove(path) == nil {
			removed++
		}
	})
	return removed, err
}

// Stats describes the cache contents.
type Stats struct {
	Dir           string `json:"dir"`
	Entries       int    `json:"entries"`
	TotalBytes    int64  `json:"totalBytes"`
	Expired       int    `json:"expired"`
	MemoryEntries int    `json:"memoryEntries"`
}

// GetStats returns information about the cache.
func (c *Cache) GetStats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	if !c.enabled || c.dir == "" {
		return stats, nil
	}
	stats.MemoryEntries = c.mem.Len()
	now := time.Now()
	err := c.walk(func(_ string, info fs.FileInfo, e *Entry) {
		stats.Entries++
		stats.TotalBytes += info.Size()
		if e != nil && e.expired(now) {
			stats.Expired++
		}
	})
	return stats, err
}

// walk calls fn for every entry file in the cache directory. e is nil when
// the file cannot be decoded. A missing directory is empty.
func (c *Cache) walk(fn func(path string, info fs.FileInfo, e *Entry)) error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading cache directory: %w", err)
	}
	for _, de := range entries {
		if de.IsDir() || filepath.Ext(de.Name()) != ".json" {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(c.dir, de.Name())
		fn(path, info, c.readEntry(path))
	}
	return nil
}

func (c *Cache) readEntry(path string) *Entry {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil
	}
	// The configured TTL applies to entries written under an older setting.
	e.TTL = c.ttlSeconds
	return &e
}

// Dir returns the cache directory path.
func (c *Cache) Dir() string {
	return c.dir
}

// Enabled returns whether caching is enabled.
func (c *Cache) Enabled() bool {
	return c != nil && c.enabled
}

// HashKey creates a SHA-256 hash of the given key material.
func HashKey(key string) string {
	h := sha256.Sum256([]byte(key))
	return fmt.Sprintf("%x", h)
}

// BuildCacheKey creates a cache key from the evaluation inputs.
func BuildCacheKey(provider, model string, maxTokens int, prompt string) string {
	return HashKey(fmt.Sprintf("%s:%s:%d:%s", provider, model, maxTokens, prompt))
}

func (c *Cache) entryPath(hashed string) string {
	return filepath.Join(c.dir, hashed+".json")
}

// DefaultDir returns the platform-appropriate cache directory.
func DefaultDir() (string, error) {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "archcheck"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Caches", "archcheck"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "archcheck", "cache"), nil
		}
		return filepath.Join(home, "AppData", "Local", "archcheck", "cache"), nil
	default:
		return filepath.Join(home, ".cache", "archcheck"), nil
	}
}
