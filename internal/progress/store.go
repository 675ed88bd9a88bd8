// Package progress persists per-playlist completion counts and derives
// mastery status from them.
package progress

import (
	"context"
	"fmt"
	"sync"
)

// KeyPrefix prefixes every progress key.
const KeyPrefix = "PlaylistCompleted_"

// Key returns the storage key for a playlist's completed count.
func Key(playlistID string) string {
	return KeyPrefix + playlistID
}

// KeyValue is the integer key-value contract progress is stored through.
type KeyValue interface {
	// GetInt returns the value for key and whether it was set.
	GetInt(ctx context.Context, key string) (int, bool, error)
	SetInt(ctx context.Context, key string, value int) error
	Delete(ctx context.Context, key string) error
}

// Store reads and writes completed-question counts.
type Store struct {
	kv KeyValue
}

// NewStore creates a Store backed by kv.
func NewStore(kv KeyValue) *Store {
	return &Store{kv: kv}
}

// CompletedCount returns the persisted count for a playlist, 0 if unset.
func (s *Store) CompletedCount(ctx context.Context, playlistID string) (int, error) {
	v, ok, err := s.kv.GetInt(ctx, Key(playlistID))
	if err != nil {
		return 0, fmt.Errorf("get completed count for %s: %w", playlistID, err)
	}
	if !ok {
		return 0, nil
	}
	return v, nil
}

// SetCompletedCount persists the count for a playlist.
func (s *Store) SetCompletedCount(ctx context.Context, playlistID string, n int) error {
	if err := s.kv.SetInt(ctx, Key(playlistID), n); err != nil {
		return fmt.Errorf("set completed count for %s: %w", playlistID, err)
	}
	return nil
}

// Clear removes the persisted count for a playlist.
func (s *Store) Clear(ctx context.Context, playlistID string) error {
	if err := s.kv.Delete(ctx, Key(playlistID)); err != nil {
		return fmt.Errorf("clear completed count for %s: %w", playlistID, err)
	}
	return nil
}

// MemoryKeyValue is an in-memory KeyValue.
type MemoryKeyValue struct {
	mu sync.RWMutex
	m  map[string]int
}

// NewMemoryKeyValue returns an empty in-memory KeyValue.
func NewMemoryKeyValue() *MemoryKeyValue {
	return &MemoryKeyValue{m: make(map[string]int)}
}

func (kv *MemoryKeyValue) GetInt(_ context.Context, key string) (int, bool, error) {
	kv.mu.RLock()
	defer kv.mu.RUnlock()
	v, ok := kv.m[key]
	return v, ok, nil
}

func (kv *MemoryKeyValue) SetInt(_ context.Context, key string, value int) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	kv.m[key] = value
	return nil
}

func (kv *MemoryKeyValue) Delete(_ context.Context, key string) error {
	kv.mu.Lock()
	defer kv.mu.Unlock()
	delete(kv.m, key)
	return nil
}
