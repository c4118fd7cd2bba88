package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"storefront/internal/cache"
)

// ErrNotFound is returned by a Storage when nothing is stored under a key.
var ErrNotFound = errors.New("session: not found")

// Storage is the durable client storage the Store persists into.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// FileStorage keeps one file per key under dir.
type FileStorage struct {
	fs  afero.Fs
	dir string
}

func NewFileStorage(fs afero.Fs, dir string) *FileStorage {
	return &FileStorage{fs: fs, dir: dir}
}

func (s *FileStorage) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *FileStorage) Get(_ context.Context, key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (s *FileStorage) Set(_ context.Context, key string, data []byte) error {
	if err := s.fs.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path(key), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (s *FileStorage) Delete(_ context.Context, key string) error {
	err := s.fs.Remove(s.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

// RedisStorage keeps sessions in redis, optionally expiring them after ttl.
type RedisStorage struct {
	client *cache.Client
	ttl    time.Duration
}

func NewRedisStorage(client *cache.Client, ttl time.Duration) *RedisStorage {
	return &RedisStorage{client: client, ttl: ttl}
}

func (s *RedisStorage) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key)
	if errors.Is(err, cache.ErrMiss) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *RedisStorage) Set(ctx context.Context, key string, data []byte) error {
	return s.client.Set(ctx, key, data, s.ttl)
}

func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, key)
}
