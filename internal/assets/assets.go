// Package assets handles model asset lookup and caching across directories and
// VPK archives.
package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/kohachiro/MashFormMDL/internal/config"
	"github.com/kohachiro/MashFormMDL/internal/logger"
	"github.com/kohachiro/MashFormMDL/pkg/encoding"
	"github.com/kohachiro/MashFormMDL/pkg/vpk"
)

// source is one place assets can come from.
type source interface {
	read(name string) ([]byte, error)
	close() error
	String() string
}

type dirSource struct {
	root string
}

func (d dirSource) read(name string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(name)))
	if errors.Is(err, fs.ErrNotExist) {
		// Asset references are case-insensitive; files on disk usually lowercase.
		data, err = os.ReadFile(filepath.Join(d.root, filepath.FromSlash(encoding.NormalizePath(name))))
	}
	return data, err
}

func (d dirSource) close() error   { return nil }
func (d dirSource) String() string { return d.root }

type archiveSource struct {
	path    string
	archive *vpk.Archive
}

func (a archiveSource) read(name string) ([]byte, error) { return a.archive.Read(name) }
func (a archiveSource) close() error                     { return a.archive.Close() }
func (a archiveSource) String() string                   { return a.path }

// Manager handles asset loading from directories and VPK archives.
// It is safe for concurrent use.
type Manager struct {
	sources []source
	cache   *Cache
	mu      sync.RWMutex
}

// NewManager creates a new asset manager. A nil cache disables caching.
func NewManager(cache *Cache) *Manager {
	return &Manager{
		cache: cache,
	}
}

// NewFromConfig creates a manager over the configured search paths and archives.
// Archives take priority over directories; later entries over earlier ones.
func NewFromConfig(cfg config.DataConfig) (*Manager, error) {
	var cache *Cache
	if cfg.Cache {
		cache = NewCache()
	}
	m := NewManager(cache)
	for _, dir := range cfg.SearchPaths {
		if err := m.AddDir(dir); err != nil {
			m.Close()
			return nil, err
		}
	}
	for _, path := range cfg.Archives {
		if err := m.AddArchive(path); err != nil {
			m.Close()
			return nil, err
		}
	}
	return m, nil
}

// AddDir adds a directory to the manager.
func (m *Manager) AddDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("adding directory %s: %w", path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("adding directory %s: not a directory", path)
	}

	m.mu.Lock()
	m.sources = append(m.sources, dirSource{root: path})
	m.mu.Unlock()

	return nil
}

// AddArchive adds a VPK archive to the manager.
// Sources are searched in reverse order (last added = highest priority).
func (m *Manager) AddArchive(path string) error {
	archive, err := vpk.Open(path)
	if err != nil {
		return fmt.Errorf("opening archive %s: %w", path, err)
	}

	m.mu.Lock()
	m.sources = append(m.sources, archiveSource{path: path, archive: archive})
	m.mu.Unlock()

	logger.Debug("archive added", zap.String("path", path), zap.Int("files", len(archive.List())))
	return nil
}

// ReadFile loads a file by asset path. A file present in no source yields an
// error matching fs.ErrNotExist; any other source failure is returned as is.
func (m *Manager) ReadFile(name string) ([]byte, error) {
	key := encoding.NormalizePath(name)
	if m.cache != nil {
		if data, ok := m.cache.Get(key); ok {
			return data, nil
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.sources) - 1; i >= 0; i-- {
		src := m.sources[i]
		data, err := src.read(name)
		if err == nil {
			if m.cache != nil {
				m.cache.Set(key, data)
			}
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("reading %s from %s: %w", name, src, err)
		}
	}

	return nil, fmt.Errorf("file not found: %s: %w", name, fs.ErrNotExist)
}

// Sources returns the source names in search order (highest priority first).
func (m *Manager) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.sources))
	for i := len(m.sources) - 1; i >= 0; i-- {
		out = append(out, m.sources[i].String())
	}
	return out
}

// Cache returns the manager's cache, or nil.
func (m *Manager) Cache() *Cache {
	return m.cache
}

// Close closes all archives.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for _, src := range m.sources {
		errs = append(errs, src.close())
	}
	m.sources = nil
	if m.cache != nil {
		m.cache.Clear()
	}
	return errors.Join(errs...)
}

// Cache is a simple in-memory cache for loaded assets.
type Cache struct {
	data map[string][]byte
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string][]byte),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return data, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// Len returns the number of cached items.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string][]byte)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
