package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketPreferences = []byte("preferences")

// PreferenceStore implements domain.PreferenceStore using BoltDB.
// Values are JSON encoded so non-string preferences can share the bucket.
type PreferenceStore struct {
	db *bolt.DB
	mu sync.RWMutex // Protects memory cache

	// In-memory copy of values read or written this session
	cache map[string][]byte
}

// NewPreferenceStore opens (or creates) the bolt file at path.
// An empty path gives a memory-only store that forgets everything on Close.
func NewPreferenceStore(path string) (*PreferenceStore, error) {
	if path == "" {
		return &PreferenceStore{cache: make(map[string][]byte)}, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketPreferences)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &PreferenceStore{db: db, cache: make(map[string][]byte)}, nil
}

func (s *PreferenceStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Generic helpers ===

func (s *PreferenceStore) get(key string, dest interface{}) bool {
	s.mu.RLock()
	if data, ok := s.cache[key]; ok {
		s.mu.RUnlock()
		return json.Unmarshal(data, dest) == nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return false
	}

	var data []byte
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketPreferences)
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})

	if data == nil {
		return false
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()

	return json.Unmarshal(data, dest) == nil
}

func (s *PreferenceStore) set(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucketPreferences).Put([]byte(key), data)
		})
		if err != nil {
			return fmt.Errorf("failed to save preference %q: %w", key, err)
		}
	}

	s.mu.Lock()
	s.cache[key] = data
	s.mu.Unlock()
	return nil
}

// === Typed accessors ===

// GetString returns the stored string and whether the key was present
func (s *PreferenceStore) GetString(key string) (string, bool) {
	var v string
	ok := s.get(key, &v)
	return v, ok
}

// SetString stores a string value, persisting it before updating the cache
func (s *PreferenceStore) SetString(key, value string) error {
	return s.set(key, value)
}

// Delete removes a key; absent keys are ignored
func (s *PreferenceStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.cache, key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPreferences).Delete([]byte(key))
	})
}
