// Package positions remembers where panels were dropped, across sessions.
//
// All positions live as one JSON object under a single key-value slot, keyed
// by element id. Writes are read-modify-write; the last writer wins.
package positions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ayusman/handcontrol/internal/store"
	"github.com/ayusman/handcontrol/internal/surface"
)

// DefaultKey is the slot positions are stored under.
const DefaultKey = "cartPositions"

// KV is a string-keyed slot store. Get returns store.ErrNotFound for unset keys.
type KV interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// Target is the part of the page positions are restored onto.
type Target interface {
	Bounds(id string) (surface.Rect, bool)
	SetPosition(id string, pos surface.Position) error
}

// Store saves and restores element positions.
type Store struct {
	kv  KV
	key string
	log *slog.Logger
}

// New creates a position store over kv. An empty key selects DefaultKey.
func New(kv KV, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		kv:  kv,
		key: key,
		log: slog.With("component", "positions"),
	}
}

// Load returns all stored positions. A missing slot is an empty map.
func (s *Store) Load() (map[string]surface.Position, error) {
	raw, err := s.kv.Get(s.key)
	if errors.Is(err, store.ErrNotFound) {
		return map[string]surface.Position{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read positions: %w", err)
	}

	positions := map[string]surface.Position{}
	if raw == "" || raw == "null" {
		return positions, nil
	}
	if err := json.Unmarshal([]byte(raw), &positions); err != nil {
		return nil, fmt.Errorf("decode positions: %w", err)
	}
	return positions, nil
}

// Save merges one element's position into the stored map. Corrupt stored
// data is replaced rather than blocking the write.
func (s *Store) Save(id string, pos surface.Position) error {
	positions, err := s.Load()
	if err != nil {
		s.log.Warn("discarding unreadable positions", "error", err)
		positions = map[string]surface.Position{}
	}
	positions[id] = pos

	data, err := json.Marshal(positions)
	if err != nil {
		return fmt.Errorf("encode positions: %w", err)
	}
	if err := s.kv.Set(s.key, string(data)); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// Restore applies stored positions to matching elements on t and returns how
// many were applied. With ids, only those elements are considered. Unknown
// ids and unusable values are skipped; storage failures are logged and
// treated as empty.
func (s *Store) Restore(t Target, ids ...string) int {
	positions, err := s.Load()
	if err != nil {
		s.log.Error("failed to load positions", "error", err)
		return 0
	}

	applied := 0
	for id, pos := range positions {
		if len(ids) > 0 && !slices.Contains(ids, id) {
			continue
		}
		if _, ok := t.Bounds(id); !ok {
			continue
		}
		if err := t.SetPosition(id, pos); err != nil {
			s.log.Warn("skipping stored position", "id", id, "error", err)
			continue
		}
		applied++
	}
	return applied
}

// Reset forgets every stored position.
func (s *Store) Reset() error {
	err := s.kv.Delete(s.key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("reset positions: %w", err)
	}
	return nil
}
