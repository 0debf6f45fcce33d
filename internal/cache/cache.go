// Package cache implements the on-disk JSON cache for upstream responses.
package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
	"go.uber.org/zap"

	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/logging"
	"github.com/EtienneMahe9/Projet-Bloc1-F1/internal/metrics"
)

const ext = ".json"

// ErrInvalidKey is returned for keys that would escape the cache directory.
var ErrInvalidKey = errors.New("invalid cache key")

// Stats summarizes the cache contents.
type Stats struct {
	Count     int       `json:"count"`
	TotalSize int64     `json:"total_size"`
	Oldest    time.Time `json:"oldest"`
	Newest    time.Time `json:"newest"`
}

// Cache stores one pretty-printed JSON file per key under a flat directory.
type Cache struct {
	dir    string
	logger *zap.Logger
	// commit publishes a fully written temp file; replaced in tests to
	// simulate a crash before the rename.
	commit func(*renameio.PendingFile) error
}

// New returns a cache rooted at dir. The directory is created on first write.
func New(dir string, logger *zap.Logger) (*Cache, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("cache directory is required")
	}
	return &Cache{
		dir:    dir,
		logger: logging.OrNop(logger),
		commit: func(pf *renameio.PendingFile) error { return pf.CloseAtomicallyReplace() },
	}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

// Get decodes the entry stored under key into out. It returns false when the
// entry is missing or unreadable; parse failures are logged, never returned.
func (c *Cache) Get(key string, out any) bool {
	path, err := c.path(key)
	if err != nil {
		c.logger.Warn("rejecting cache key", zap.String("key", key), zap.Error(err))
		return false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		metrics.ObserveCacheLookup(false)
		return false
	}
	if !json.Valid(data) {
		c.logger.Warn("cache entry is not valid JSON", zap.String("key", key))
		metrics.ObserveCacheLookup(false)
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.logger.Warn("cache entry decode failed", zap.String("key", key), zap.Error(err))
		metrics.ObserveCacheLookup(false)
		return false
	}
	metrics.ObserveCacheLookup(true)
	return true
}

// Set stores value under key. Raw bodies ([]byte, json.RawMessage) are
// stored as-is after re-indenting; anything else is marshaled.
func (c *Cache) Set(key string, value any) error {
	path, err := c.path(key)
	if err != nil {
		return err
	}
	data, err := encode(value)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", key, err)
	}
	if err := os.MkdirAll(c.dir, 0o750); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	pf, err := renameio.NewPendingFile(path, renameio.WithTempDir(c.dir), renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("open pending cache file: %w", err)
	}
	defer pf.Cleanup() //nolint:errcheck // no-op once committed
	if _, err := pf.Write(data); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	if err := c.commit(pf); err != nil {
		return fmt.Errorf("commit cache entry %s: %w", key, err)
	}
	c.logger.Debug("cache entry stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return nil
}

// Invalidate removes the entry for key and reports whether one existed.
func (c *Cache) Invalidate(key string) bool {
	path, err := c.path(key)
	if err != nil {
		return false
	}
	if err := os.Remove(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn("cache invalidate failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

// Clear removes every entry whose key matches the glob pattern (all entries
// when pattern is empty) and returns how many were removed.
func (c *Cache) Clear(pattern string) (int, error) {
	if pattern == "" {
		pattern = "*"
	}
	if strings.ContainsAny(pattern, `/\`) {
		return 0, fmt.Errorf("%w: pattern %q", ErrInvalidKey, pattern)
	}
	if _, err := filepath.Match(pattern, ""); err != nil {
		return 0, fmt.Errorf("bad cache pattern %q: %w", pattern, err)
	}
	entries, err := c.entries()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, entry := range entries {
		key := strings.TrimSuffix(entry.Name(), ext)
		if ok, _ := filepath.Match(pattern, key); !ok {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove cache entry %s: %w", key, err)
		}
		removed++
	}
	c.logger.Info("cache cleared", zap.String("pattern", pattern), zap.Int("removed", removed))
	return removed, nil
}

// Stats reports the entry count, total size and modification-time range.
func (c *Cache) Stats() (Stats, error) {
	entries, err := c.entries()
	if err != nil {
		return Stats{}, err
	}
	var st Stats
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		st.Count++
		st.TotalSize += info.Size()
		mod := info.ModTime()
		if st.Oldest.IsZero() || mod.Before(st.Oldest) {
			st.Oldest = mod
		}
		if mod.After(st.Newest) {
			st.Newest = mod
		}
	}
	return st, nil
}

func (c *Cache) entries() ([]fs.DirEntry, error) {
	all, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cache dir: %w", err)
	}
	out := all[:0]
	for _, entry := range all {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ext) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *Cache) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(c.dir, key+ext), nil
}

func encode(value any) ([]byte, error) {
	var raw []byte
	switch v := value.(type) {
	case json.RawMessage:
		raw = v
	case []byte:
		raw = v
	default:
		return json.MarshalIndent(value, "", "  ")
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Disabled is a cache that never hits and discards writes.
type Disabled struct{}

// Get always misses.
func (Disabled) Get(string, any) bool { return false }

// Set discards value.
func (Disabled) Set(string, any) error { return nil }
