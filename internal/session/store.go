// Package session owns the authenticated identity of the storefront client
// and its persistence.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"storefront/internal/models"
)

// Key is the storage key the session is persisted under.
const Key = "currentUser"

// Store holds the single live session. It is not safe for concurrent use;
// the storefront event loop is its only caller.
type Store struct {
	storage Storage
	codec   Codec
	current *models.User
}

func NewStore(storage Storage, codec Codec) *Store {
	if codec == nil {
		codec = JSONCodec{}
	}
	return &Store{storage: storage, codec: codec}
}

// Load reads the persisted session and makes it current. Missing, unreadable
// or identity-less values yield nil, and anything present but unusable is
// removed from storage.
func (s *Store) Load(ctx context.Context) *models.User {
	s.current = nil

	data, err := s.storage.Get(ctx, Key)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		slog.Warn("Failed to read stored session", "error", err)
		s.discard(ctx)
		return nil
	}

	u, err := s.codec.Decode(data)
	if err != nil {
		slog.Debug("Discarding stored session", "error", err)
		s.discard(ctx)
		return nil
	}

	s.current = u
	return s.Current()
}

// Set replaces the live session and persists it.
func (s *Store) Set(ctx context.Context, u *models.User) error {
	if u == nil || u.UserID <= 0 {
		return models.ErrNoIdentity
	}
	data, err := s.codec.Encode(u)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	cp := *u
	s.current = &cp

	if err := s.storage.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// Clear drops the live session and its persisted value.
func (s *Store) Clear(ctx context.Context) error {
	s.current = nil
	if err := s.storage.Delete(ctx, Key); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Current returns a copy of the live session, or nil.
func (s *Store) Current() *models.User {
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

func (s *Store) discard(ctx context.Context) {
	if err := s.storage.Delete(ctx, Key); err != nil {
		slog.Warn("Failed to remove stored session", "error", err)
	}
}
