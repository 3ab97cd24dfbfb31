package embedding

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Store is the in-memory embedding store. Shards are added while the dataset
// loads, possibly concurrently; after Freeze the store is read-only and
// lookups are answered.
type Store struct {
	mu      sync.RWMutex
	vectors map[string]Vector
	loaded  map[string]bool
	frozen  bool
}

func NewStore() *Store {
	return &Store{
		vectors: make(map[string]Vector),
		loaded:  make(map[string]bool),
	}
}

// Add merges the vectors of one shard into the store.
func (s *Store) Add(shard Shard, vectors map[string]Vector) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return errors.New("embedding store is frozen")
	}
	if s.loaded[shard.Name] {
		return fmt.Errorf("shard %s loaded twice", shard.Name)
	}
	for word, vec := range vectors {
		if !shard.Contains(word) {
			return fmt.Errorf("%w: word %q does not belong to shard %s", ErrMalformed, word, shard.Name)
		}
		s.vectors[word] = vec
	}
	s.loaded[shard.Name] = true
	return nil
}

// Freeze marks loading as complete. It fails if any shard is missing.
func (s *Store) Freeze() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, shard := range Shards {
		if !s.loaded[shard.Name] {
			return fmt.Errorf("shard %s was not loaded", shard.Name)
		}
	}
	s.frozen = true
	return nil
}

// Lookup returns the vector for word. The word is matched exactly; callers
// normalise case beforehand.
func (s *Store) Lookup(word string) (Vector, error) {
	if _, ok := ShardFor(word); !ok {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.frozen {
		return nil, ErrNotLoaded
	}
	vec, ok := s.vectors[word]
	if !ok {
		return nil, ErrNotFound
	}
	return vec, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.vectors)
}

// Words returns the vocabulary in sorted order.
func (s *Store) Words() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	words := make([]string, 0, len(s.vectors))
	for word := range s.vectors {
		words = append(words, word)
	}
	sort.Strings(words)
	return words
}
