package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/nala/pkg/adapters/memory"
	"github.com/aretw0/nala/pkg/domain"
	"github.com/aretw0/nala/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDeckStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	deck := &domain.Deck{ID: "d1", Files: []string{"a.hdf5"}}
	require.NoError(t, store.Save(ctx, deck))
	deck.Files[0] = "changed"

	loaded, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hdf5"}, loaded.Files)

	loaded.Files[0] = "changed again"
	again, err := store.Load(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.hdf5"}, again.Files)
}
