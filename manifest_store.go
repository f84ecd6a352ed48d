package pob

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ManifestStore keeps campaign manifests in a JSON file with atomic
// persistence. It never sees private keys.
type ManifestStore struct {
	mu    sync.RWMutex
	path  string
	data  *StoreData
	dirty bool
}

// NewManifestStore creates or opens a store at the given path.
// If the file doesn't exist, a new empty store is created.
// If the directory doesn't exist, it is created with 0700 permissions.
func NewManifestStore(path string) (*ManifestStore, error) {
	if path == "" {
		return nil, ErrMissingStorePath
	}

	store := &ManifestStore{
		path: path,
		data: &StoreData{
			Version:   DefaultStoreVersion,
			Campaigns: make(map[string]*Manifest),
		},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	if err := store.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return store, nil
}

// load reads store data from disk.
// Returns os.ErrNotExist if the file doesn't exist.
func (s *ManifestStore) load() error {
	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}

	// Empty file is an empty store
	if len(data) == 0 {
		return nil
	}

	var storeData StoreData
	if err := json.Unmarshal(data, &storeData); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreCorrupted, err)
	}

	if storeData.Version > DefaultStoreVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrStoreCorrupted, storeData.Version)
	}

	if storeData.Campaigns == nil {
		storeData.Campaigns = make(map[string]*Manifest)
	}

	s.data = &storeData
	s.dirty = false
	return nil
}

// syncLocked writes store data atomically using temp file + rename.
// Must be called with write lock held.
func (s *ManifestStore) syncLocked() error {
	if !s.dirty || s.path == "" {
		return nil
	}

	data, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrStorePersist, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write: %v", ErrStorePersist, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: fsync: %v", ErrStorePersist, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close: %v", ErrStorePersist, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", ErrStorePersist, err)
	}

	s.dirty = false
	return nil
}

// Close syncs any pending changes.
func (s *ManifestStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

// Path returns the store file path.
func (s *ManifestStore) Path() string {
	return s.path
}

// Save stores a manifest. Saving a different manifest under an existing
// ID is rejected; re-saving an identical root is a no-op update.
func (s *ManifestStore) Save(m *Manifest) error {
	if m == nil {
		return fmt.Errorf("manifest cannot be nil")
	}
	if m.ID == "" {
		return fmt.Errorf("manifest ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.data.Campaigns[m.ID]; exists && existing.MerkleRoot != m.MerkleRoot {
		return fmt.Errorf("campaign %s already stored with root %s", m.ID, existing.MerkleRoot.Hex())
	}

	s.data.Campaigns[m.ID] = copyManifest(m)
	s.dirty = true
	return s.syncLocked()
}

// Get retrieves a manifest by campaign ID.
func (s *ManifestStore) Get(id string) (*Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, exists := s.data.Campaigns[id]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}
	return copyManifest(m), nil
}

// List returns all manifests, oldest first.
func (s *ManifestStore) List() []*Manifest {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Manifest, 0, len(s.data.Campaigns))
	for _, m := range s.data.Campaigns {
		result = append(result, copyManifest(m))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete removes a manifest.
func (s *ManifestStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Campaigns[id]; !exists {
		return fmt.Errorf("%w: %s", ErrCampaignNotFound, id)
	}

	delete(s.data.Campaigns, id)
	s.dirty = true
	return s.syncLocked()
}

// Count returns the number of stored campaigns.
func (s *ManifestStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data.Campaigns)
}

func copyManifest(m *Manifest) *Manifest {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Addresses != nil {
		cp.Addresses = make([]common.Address, len(m.Addresses))
		copy(cp.Addresses, m.Addresses)
	}
	return &cp
}

// newStoreForTesting creates a store without file operations.
func newStoreForTesting() *ManifestStore {
	return &ManifestStore{
		data: &StoreData{
			Version:   DefaultStoreVersion,
			Campaigns: make(map[string]*Manifest),
		},
	}
}
