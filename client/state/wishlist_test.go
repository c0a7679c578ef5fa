package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxvision/models"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

func TestGuestWishlist(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	storage := NewMemoryStorage()
	w := NewWishlist(api, storage, nil)

	require.NoError(t, w.Add(ctx, classicRound))
	require.NoError(t, w.Add(ctx, classicRound))
	require.NoError(t, w.Toggle(ctx, aviatorPro))
	assert.Equal(t, 2, w.Count())

	require.NoError(t, w.Toggle(ctx, classicRound))
	assert.False(t, w.Contains(classicRound.ID))
	assert.True(t, w.Contains(aviatorPro.ID))
	assert.Empty(t, api.Calls())

	reloaded := NewWishlist(api, storage, nil)
	require.Len(t, reloaded.Products(), 1)
	assert.Equal(t, aviatorPro.ID, reloaded.Products()[0].ID)
}

func TestWishlistSync(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.wishlist = []models.WishlistItem{{ID: "w1", ProductID: classicRound.ID, Product: &classicRound}}
	n := &notes{}
	w := NewWishlist(api, NewMemoryStorage(), n.notify)
	w.SetUser(ctx, customer)
	require.True(t, w.Contains(classicRound.ID))

	api.fail["AddToWishlist"] = true
	require.Error(t, w.Add(ctx, aviatorPro))
	assert.False(t, w.Contains(aviatorPro.ID))

	api.fail["RemoveFromWishlist p1"] = true
	require.Error(t, w.Remove(ctx, classicRound.ID))
	assert.True(t, w.Contains(classicRound.ID))
	assert.Equal(t, Committed, w.State(classicRound.ID))

	api.fail["ClearWishlist"] = true
	require.Error(t, w.Clear(ctx))
	assert.Equal(t, 1, w.Count())

	assert.Equal(t, []string{MsgWishlistAddFailed, MsgWishlistRemoveFailed, MsgWishlistClearFailed}, n.messages())

	api.fail["AddToWishlist"] = false
	require.NoError(t, w.Toggle(ctx, aviatorPro))
	assert.Equal(t, 2, w.Count())
}

func TestWishlistRemoveIsHiddenWhilePending(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.wishlist = []models.WishlistItem{{ID: "w1", ProductID: classicRound.ID, Product: &classicRound}}
	w := NewWishlist(api, NewMemoryStorage(), nil)
	w.SetUser(ctx, customer)

	release := make(chan struct{})
	api.block["RemoveFromWishlist p1"] = release

	done := make(chan error)
	go func() { done <- w.Remove(ctx, classicRound.ID) }()

	require.Eventually(t, func() bool { return w.State(classicRound.ID) == PendingRemove }, timeout, tick)
	assert.False(t, w.Contains(classicRound.ID))
	assert.Zero(t, w.Count())

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, Absent, w.State(classicRound.ID))
}

func TestGuestWishlistReportsStorageFailure(t *testing.T) {
	ctx := context.Background()
	w := NewWishlist(newFakeAPI(), &brokenStorage{MemoryStorage: NewMemoryStorage()}, nil)

	assert.ErrorIs(t, w.Add(ctx, classicRound), errStorage)
	assert.True(t, w.Contains(classicRound.ID))
	assert.ErrorIs(t, w.Remove(ctx, classicRound.ID), errStorage)
	assert.ErrorIs(t, w.Clear(ctx), errStorage)
}

func TestSignedInWishlistSkipsStorage(t *testing.T) {
	ctx := context.Background()
	w := NewWishlist(newFakeAPI(), &brokenStorage{MemoryStorage: NewMemoryStorage()}, nil)
	w.SetUser(ctx, customer)

	require.NoError(t, w.Add(ctx, classicRound))
	require.NoError(t, w.Remove(ctx, classicRound.ID))
}
