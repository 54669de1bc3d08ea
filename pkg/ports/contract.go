package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/nala/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDeckStoreContract runs a suite of tests to verify that a DeckStore implementation
// adheres to the defined interface contract.
func RunDeckStoreContract(t *testing.T, store DeckStore) {
	ctx := context.Background()
	deckID := "contract-test-deck-" + time.Now().Format("20060102150405")

	newDeck := func(id string) *domain.Deck {
		return &domain.Deck{
			ID:        id,
			Code:      "elegant",
			Target:    "S01",
			Content:   "Q1: KQUAD, L = 0.2, K1 = 1.5\n",
			Files:     []string{"Data/cav.hdf5"},
			CreatedAt: time.Now().UTC().Truncate(time.Second),
		}
	}

	t.Run("Save and Load", func(t *testing.T) {
		deck := newDeck(deckID)

		err := store.Save(ctx, deck)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, deckID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, deck.Code, loaded.Code)
		assert.Equal(t, deck.Target, loaded.Target)
		assert.Equal(t, deck.Content, loaded.Content)
		assert.Equal(t, deck.Files, loaded.Files)
		assert.True(t, deck.CreatedAt.Equal(loaded.CreatedAt), "CreatedAt should survive persistence")
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		deck := newDeck(deckID)
		deck.Content = "replaced\n"
		require.NoError(t, store.Save(ctx, deck))

		loaded, err := store.Load(ctx, deckID)
		require.NoError(t, err)
		assert.Equal(t, "replaced\n", loaded.Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+deckID)
		assert.ErrorIs(t, err, domain.ErrDeckNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, newDeck(deckID))
		require.NoError(t, err)

		err = store.Delete(ctx, deckID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, deckID)
		assert.ErrorIs(t, err, domain.ErrDeckNotFound, "Load after Delete should return ErrDeckNotFound")

		assert.NoError(t, store.Delete(ctx, deckID), "Deleting a missing deck should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := deckID + "-1"
		id2 := deckID + "-2"
		_ = store.Save(ctx, newDeck(id1))
		_ = store.Save(ctx, newDeck(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		decks, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, decks, id1)
		assert.Contains(t, decks, id2)
	})
}
