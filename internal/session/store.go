package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/kiranshivaraju/clarus/internal/cache"
)

// TokenStore persists the bearer token between runs. Load returns an empty
// string, not an error, when nothing is stored.
type TokenStore interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// MemoryStore keeps the token for the life of the process.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Save(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}

// FileStore keeps the token in a single user-only file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Load(_ context.Context) (string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileStore) Save(_ context.Context, token string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("creating token dir: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear(_ context.Context) error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing token file: %w", err)
	}
	return nil
}

// CacheStore keeps the token in a shared cache (Redis) under a per-profile key.
type CacheStore struct {
	cache cache.Cache
	key   string
	ttl   time.Duration
}

func NewCacheStore(c cache.Cache, profile string, ttl time.Duration) *CacheStore {
	return &CacheStore{cache: c, key: cache.TokenKey(profile), ttl: ttl}
}

func (s *CacheStore) Load(ctx context.Context) (string, error) {
	val, found, err := s.cache.Get(ctx, s.key)
	if err != nil {
		return "", fmt.Errorf("loading token: %w", err)
	}
	if !found {
		return "", nil
	}
	return string(val), nil
}

func (s *CacheStore) Save(ctx context.Context, token string) error {
	if err := s.cache.Set(ctx, s.key, []byte(token), s.ttl); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

func (s *CacheStore) Clear(ctx context.Context) error {
	if err := s.cache.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

var (
	_ TokenStore = (*MemoryStore)(nil)
	_ TokenStore = (*FileStore)(nil)
	_ TokenStore = (*CacheStore)(nil)
)
