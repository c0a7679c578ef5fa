package state

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxvision/models"
)

func TestRecentlyViewed(t *testing.T) {
	storage := NewMemoryStorage()
	r := NewRecentlyViewed(storage)

	require.NoError(t, r.Add(classicRound))
	require.NoError(t, r.Add(aviatorPro))
	require.NoError(t, r.Add(classicRound))

	got := r.Products()
	require.Len(t, got, 2)
	assert.Equal(t, classicRound.ID, got[0].ID)
	assert.Equal(t, aviatorPro.ID, got[1].ID)

	got[0].Name = "changed"
	assert.Equal(t, "Classic Round", r.Products()[0].Name)

	reloaded := NewRecentlyViewed(storage)
	assert.Len(t, reloaded.Products(), 2)

	require.NoError(t, reloaded.Clear())
	assert.Empty(t, NewRecentlyViewed(storage).Products())
}

func TestRecentlyViewedIsBounded(t *testing.T) {
	r := NewRecentlyViewed(NewMemoryStorage())
	for i := 0; i < MaxRecentlyViewed+3; i++ {
		require.NoError(t, r.Add(models.Product{ID: strconv.Itoa(i)}))
	}

	got := r.Products()
	require.Len(t, got, MaxRecentlyViewed)
	assert.Equal(t, strconv.Itoa(MaxRecentlyViewed+2), got[0].ID)
	assert.Equal(t, "3", got[MaxRecentlyViewed-1].ID)
}
