package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"familytree-backend/domain/tree"
)

func TestTreeStore_LoadAbsentUser(t *testing.T) {
	store := NewTreeStore()

	snap, err := store.Load(context.Background(), "nobody")

	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestTreeStore_SaveThenLoad(t *testing.T) {
	// Arrange
	store := NewTreeStore()
	ctx := context.Background()
	snap := tree.Bootstrap("John", "Doe", tree.GenderMale)

	// Act
	require.NoError(t, store.Save(ctx, "u1", snap))
	loaded, err := store.Load(ctx, "u1")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, snap, loaded)
}

func TestTreeStore_StoredSnapshotIsDetached(t *testing.T) {
	// Arrange
	store := NewTreeStore()
	ctx := context.Background()
	snap := tree.Bootstrap("John", "Doe", tree.GenderMale)
	require.NoError(t, store.Save(ctx, "u1", snap))

	// Act: mutate the snapshot after saving
	snap.People[tree.RootID].FirstName = "Changed"

	// Assert
	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "John", loaded.People[tree.RootID].FirstName)
}
