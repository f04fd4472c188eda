// Package store manages a directory of named experiment configs. An
// experiment is a YAML file <name>.yaml (or .yml) overlaying the defaults
// tree; the store resolves experiments to their effective config and
// caches the resolved form in Ristretto, keyed by name, file mtime and
// overrides, so a changed file never serves a stale resolution.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/detkit/detconf/internal/config"
)

const defaultCacheCounters = 10_000
const defaultCacheMaxCost = 64 << 20

// Store resolves named experiments from a directory.
type Store struct {
	dir   string
	cache *ristretto.Cache[string, []byte]
	log   zerolog.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	numCounters int64
	maxCost     int64
	log         zerolog.Logger
}

// WithCacheSize sets the Ristretto sizing knobs.
func WithCacheSize(numCounters, maxCost int64) Option {
	return func(o *options) {
		o.numCounters = numCounters
		o.maxCost = maxCost
	}
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// New creates a Store over a directory of experiment files.
func New(dir string, opts ...Option) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("store: %s is not a directory", dir)
	}

	o := options{
		numCounters: defaultCacheCounters,
		maxCost:     defaultCacheMaxCost,
		log:         zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: o.numCounters,
		MaxCost:     o.maxCost,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("store: failed to create cache: %w", err)
	}

	return &Store{
		dir:   dir,
		cache: cache,
		log:   o.log,
	}, nil
}

// Dir returns the experiment directory.
func (s *Store) Dir() string {
	return s.dir
}

// List returns the experiment names in sorted order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name(), ext))
	}
	sort.Strings(names)
	return names, nil
}

// Path returns the file backing an experiment name.
func (s *Store) Path(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}

	for _, ext := range []string{".yaml", ".yml"} {
		path := filepath.Join(s.dir, name+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}

// Resolve returns the effective config of an experiment: defaults
// overlaid with the experiment file, then the given PATH=VALUE overrides.
func (s *Store) Resolve(name string, overrides []string) (*config.Config, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	key := cacheKey(name, info.ModTime().UnixNano(), overrides)
	if data, ok := s.cache.Get(key); ok {
		var cfg config.Config
		if err := json.Unmarshal(data, &cfg); err == nil {
			s.log.Debug().Str("experiment", name).Msg("resolved from cache")
			return &cfg, nil
		}
		// Undecodable cache entries are dropped and re-resolved.
		s.cache.Del(key)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if len(overrides) > 0 {
		if err := cfg.MergeAssignments(overrides); err != nil {
			return nil, err
		}
	}

	if data, err := json.Marshal(cfg); err == nil {
		s.cache.Set(key, data, int64(len(data)))
	}

	s.log.Debug().Str("experiment", name).Str("path", path).Msg("experiment resolved")
	return cfg, nil
}

// SaveScaffold writes a new experiment file atomically. Existing
// experiments are never overwritten.
func (s *Store) SaveScaffold(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	if _, err := s.Path(name); err == nil {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}

	path := filepath.Join(s.dir, name+".yaml")
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("store: failed to write %s: %w", path, err)
	}

	s.log.Info().Str("experiment", name).Str("path", path).Msg("experiment scaffold written")
	return nil
}

// Watch invalidates the cache whenever an experiment file changes.
// Resolutions are keyed by mtime, so the watcher mainly reclaims entries
// for deleted or rewritten files. Blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("store: failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("store: failed to watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yaml" && ext != ".yml" {
				continue
			}
			s.log.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("experiment dir changed, clearing cache")
			s.cache.Clear()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Error().Err(err).Msg("experiment dir watch error")
		}
	}
}

// Close releases the cache.
func (s *Store) Close() {
	s.cache.Wait()
	s.cache.Close()
}

func cacheKey(name string, mtime int64, overrides []string) string {
	return fmt.Sprintf("%s|%d|%s", name, mtime, strings.Join(overrides, "\x00"))
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}
