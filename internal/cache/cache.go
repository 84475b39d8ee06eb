// Package cache keeps raw package-metadata output on disk between runs.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// AppName names the cache directory under the XDG cache home
const AppName = "license-audit"

// DefaultTTL is how long an entry is served before it is looked up again
const DefaultTTL = 24 * time.Hour

// entryExt marks files owned by the cache; Clear removes nothing else
const entryExt = ".meta"

// Cache is a directory of entries, one file per key, expired by mtime
type Cache struct {
	dir string
	ttl time.Duration
}

// DefaultDir returns $XDG_CACHE_HOME/license-audit
func DefaultDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Open returns the cache rooted at dir, creating it if needed. An empty dir
// selects DefaultDir and a zero ttl selects DefaultTTL.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &Cache{dir: dir, ttl: ttl}, nil
}

// Key derives an entry key from its parts. Parts are NUL-separated before
// hashing so ("ab", "c") and ("a", "bc") differ.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// Dir returns the directory holding the entries
func (c *Cache) Dir() string { return c.dir }

// TTL returns the entry lifetime
func (c *Cache) TTL() time.Duration { return c.ttl }

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+entryExt)
}

// Load returns the entry for key unless it is missing or older than the TTL
func (c *Cache) Load(key string) ([]byte, bool) {
	p := c.path(key)
	info, err := os.Stat(p)
	if err != nil || time.Since(info.ModTime()) > c.ttl {
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Store writes the entry for key. The data lands under a temporary name
// first so a concurrent Load never sees a partial entry.
func (c *Cache) Store(key string, data []byte) error {
	tmp, err := os.CreateTemp(c.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.path(key))
}

// Clear deletes every entry and returns how many were removed. Other files
// in the directory are left alone.
func (c *Cache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != entryExt {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}
