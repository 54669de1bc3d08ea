package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/nala/pkg/domain"
)

// Store implements ports.DeckStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.Deck
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.Deck),
	}
}

// Save keeps a copy of the deck.
func (s *Store) Save(_ context.Context, deck *domain.Deck) error {
	copied := *deck
	copied.Files = slices.Clone(deck.Files)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[deck.ID] = copied
	return nil
}

// Load retrieves a deck from memory.
func (s *Store) Load(_ context.Context, id string) (*domain.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	deck, ok := s.data[id]
	if !ok {
		return nil, domain.ErrDeckNotFound
	}

	// Copy on read so callers can't mutate the stored deck
	deck.Files = slices.Clone(deck.Files)
	return &deck, nil
}

// Delete removes the deck.
func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored deck IDs.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
