// ABOUTME: JSON file snapshot store, the default backend for CLI runs
// ABOUTME: Keeps one snapshot per localized tree in a single file, replaced atomically on save
package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/harper/routegen/internal/models"
)

// snapshotFile is the on-disk shape of a FileStore
type snapshotFile struct {
	Snapshots map[string][]models.OriginRoute `json:"snapshots"`
}

// FileStore keeps snapshots in a JSON file so separate invocations share them
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by the file at path. The file and its
// directory are created on the first save.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the snapshot file location
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(tree string) ([]models.OriginRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}
	return f.Snapshots[tree], nil
}

func (s *FileStore) Save(tree string, routes []models.OriginRoute) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	if routes == nil {
		routes = []models.OriginRoute{}
	}
	f.Snapshots[tree] = routes
	return s.write(f)
}

func (s *FileStore) Delete(tree string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return err
	}
	if _, ok := f.Snapshots[tree]; !ok {
		return nil
	}
	delete(f.Snapshots, tree)
	return s.write(f)
}

func (s *FileStore) Trees() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := s.read()
	if err != nil {
		return nil, err
	}
	trees := make([]string, 0, len(f.Snapshots))
	for tree := range f.Snapshots {
		trees = append(trees, tree)
	}
	sort.Strings(trees)
	return trees, nil
}

func (s *FileStore) Close() error { return nil }

// read returns the decoded file, or an empty one when it does not exist yet
func (s *FileStore) read() (*snapshotFile, error) {
	f := &snapshotFile{Snapshots: map[string][]models.OriginRoute{}}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot file: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decoding snapshot file %s: %w", s.path, err)
	}
	if f.Snapshots == nil {
		f.Snapshots = map[string][]models.OriginRoute{}
	}
	return f, nil
}

func (s *FileStore) write(f *snapshotFile) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot file: %w", err)
	}
	if err := writeFileAtomic(s.path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing snapshot file %s: %w", s.path, err)
	}
	return nil
}

// writeFileAtomic writes through a temp file in the same directory and
// renames it over path, so readers never see a partial snapshot
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		_ = tmp.Close()
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	committed = true
	return nil
}
