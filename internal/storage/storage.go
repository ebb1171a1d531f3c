// ABOUTME: Snapshot storage for routegen passes
// ABOUTME: Keeps the previous generation in memory, a JSON file, or charm KV
package storage

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/harper/routegen/internal/charm"
	"github.com/harper/routegen/internal/config"
	"github.com/harper/routegen/internal/models"
)

// SnapshotStore persists the route snapshot of each localized tree
type SnapshotStore interface {
	// Load returns the stored snapshot, or nil when none exists
	Load(tree string) ([]models.OriginRoute, error)
	Save(tree string, routes []models.OriginRoute) error
	Delete(tree string) error
	// Trees lists every tree with a stored snapshot
	Trees() ([]string, error)
	Close() error
}

// Open returns the store selected by cfg.StateBackend
func Open(cfg *config.Config) (SnapshotStore, error) {
	switch cfg.StateBackend {
	case config.BackendFile, "":
		path := cfg.StateFile
		if path == "" {
			path = config.DefaultStateFile(cfg.LocalizedDir)
		}
		return NewFileStore(path), nil
	case config.BackendMemory:
		return NewMemoryStore(), nil
	case config.BackendCharm:
		client, err := charm.NewClient(&charm.Config{
			Host:     cfg.CharmHost,
			DBName:   cfg.CharmDBName,
			AutoSync: cfg.AutoSync,
		})
		if err != nil {
			return nil, err
		}
		return NewCharmStore(client), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q", cfg.StateBackend)
	}
}

// TreeKey identifies a localized tree by its absolute path
func TreeKey(localizedDir string) (string, error) {
	abs, err := filepath.Abs(localizedDir)
	if err != nil {
		return "", fmt.Errorf("resolving localized dir: %w", err)
	}
	return filepath.ToSlash(abs), nil
}

// MemoryStore keeps snapshots for the lifetime of the process
type MemoryStore struct {
	mu        sync.Mutex
	snapshots map[string][]models.OriginRoute
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]models.OriginRoute)}
}

func (m *MemoryStore) Load(tree string) ([]models.OriginRoute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.snapshots[tree]), nil
}

func (m *MemoryStore) Save(tree string, routes []models.OriginRoute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[tree] = slices.Clone(routes)
	return nil
}

func (m *MemoryStore) Delete(tree string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, tree)
	return nil
}

func (m *MemoryStore) Trees() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	trees := make([]string, 0, len(m.snapshots))
	for tree := range m.snapshots {
		trees = append(trees, tree)
	}
	sort.Strings(trees)
	return trees, nil
}

func (m *MemoryStore) Close() error { return nil }

// kvClient is the subset of the charm client the store needs
type kvClient interface {
	SetJSON(key string, value interface{}) error
	GetJSON(key string, dest interface{}) error
	Delete(key string) error
	ListKeys(prefix string) ([]string, error)
	Close() error
}

// CharmStore keeps snapshots in charm KV
type CharmStore struct {
	client kvClient
}

// NewCharmStore wraps an open charm client
func NewCharmStore(client *charm.Client) *CharmStore {
	return &CharmStore{client: client}
}

func (s *CharmStore) Load(tree string) ([]models.OriginRoute, error) {
	key := charm.SnapshotKey(tree)
	keys, err := s.client.ListKeys(key)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(keys, key) {
		return nil, nil
	}

	var routes []models.OriginRoute
	if err := s.client.GetJSON(key, &routes); err != nil {
		return nil, fmt.Errorf("loading snapshot for %s: %w", tree, err)
	}
	return routes, nil
}

func (s *CharmStore) Save(tree string, routes []models.OriginRoute) error {
	if routes == nil {
		routes = []models.OriginRoute{}
	}
	if err := s.client.SetJSON(charm.SnapshotKey(tree), routes); err != nil {
		return fmt.Errorf("saving snapshot for %s: %w", tree, err)
	}
	return nil
}

func (s *CharmStore) Delete(tree string) error {
	return s.client.Delete(charm.SnapshotKey(tree))
}

func (s *CharmStore) Trees() ([]string, error) {
	keys, err := s.client.ListKeys(charm.SnapshotPrefix)
	if err != nil {
		return nil, err
	}
	trees := make([]string, 0, len(keys))
	for _, k := range keys {
		trees = append(trees, charm.TreeFromKey(k))
	}
	sort.Strings(trees)
	return trees, nil
}

func (s *CharmStore) Close() error {
	return s.client.Close()
}
