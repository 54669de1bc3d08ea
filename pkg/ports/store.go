package ports

import (
	"context"

	"github.com/aretw0/nala/pkg/domain"
)

// DeckStore defines the interface for persisting exported decks, so that a
// deck built once for a model revision can be served again.
type DeckStore interface {
	// Save persists a deck under its ID, replacing any previous one.
	Save(ctx context.Context, deck *domain.Deck) error

	// Load retrieves a deck by ID.
	// Returns domain.ErrDeckNotFound if the deck does not exist.
	Load(ctx context.Context, id string) (*domain.Deck, error)

	// Delete removes a deck. Deleting a missing deck is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every stored deck.
	List(ctx context.Context) ([]string, error)
}
