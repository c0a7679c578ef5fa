// Package state keeps the shopper's session, cart, wishlist and recently viewed
// products in sync between local storage and the API.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"luxvision/models"
)

// Storage keys.
const (
	KeyCart           = "cart"
	KeyWishlist       = "wishlist"
	KeyRecentlyViewed = "recentlyViewedProducts"
	KeyAccessToken    = "accessToken"
	KeyRefreshToken   = "refreshToken"
)

// Storage is a durable string key/value store.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

// MemoryStorage is a Storage that lives as long as the process.
type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStorage returns an empty MemoryStorage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: make(map[string]string)}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStorage) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// FileStorage persists every key in one JSON document.
type FileStorage struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// OpenFileStorage loads path, which may not exist yet.
func OpenFileStorage(path string) (*FileStorage, error) {
	fs := &FileStorage{path: path, values: make(map[string]string)}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return fs, nil
	}
	if err := json.Unmarshal(b, &fs.values); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return fs, nil
}

func (f *FileStorage) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return f.flush()
}

func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

// flush rewrites the file through a rename so readers never see a partial document.
func (f *FileStorage) flush() error {
	b, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// loadJSON decodes the value stored under key into v. A missing or corrupt
// value leaves v untouched.
func loadJSON(s Storage, key string, v interface{}) bool {
	raw, ok := s.Get(key)
	if !ok || raw == "" {
		return false
	}
	return json.Unmarshal([]byte(raw), v) == nil
}

func saveJSON(s Storage, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.Set(key, string(b))
}

// Tokens is a client.TokenStore backed by a Storage.
type Tokens struct {
	storage Storage
}

// NewTokens returns the token store saved in s.
func NewTokens(s Storage) *Tokens {
	return &Tokens{storage: s}
}

func (t *Tokens) AccessToken() string {
	v, _ := t.storage.Get(KeyAccessToken)
	return v
}

func (t *Tokens) RefreshToken() string {
	v, _ := t.storage.Get(KeyRefreshToken)
	return v
}

func (t *Tokens) SetTokens(p models.TokenPair) error {
	if err := t.storage.Set(KeyAccessToken, p.AccessToken); err != nil {
		return err
	}
	return t.storage.Set(KeyRefreshToken, p.RefreshToken)
}

func (t *Tokens) ClearTokens() error {
	if err := t.storage.Remove(KeyAccessToken); err != nil {
		return err
	}
	return t.storage.Remove(KeyRefreshToken)
}
