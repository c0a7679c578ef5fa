package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"luxvision/models"
)

func TestReviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	s := NewReviewService(f.store, newProducts(t, f), zaptest.NewLogger(t))

	u := f.user(t, "client@example.com")
	other := f.user(t, "other@example.com")
	p := f.product(t, "classic-round", 95000, 12)

	r, err := s.Create(ctx, u.ID, models.ReviewInput{ProductID: p.ID, Rating: 5, Title: "Superbe", Comment: "Très confortables"})
	require.NoError(t, err)
	assert.False(t, r.Verified)
	require.NotNil(t, r.User)
	assert.Equal(t, "Dupont", r.User.LastName)

	_, err = s.Create(ctx, u.ID, models.ReviewInput{ProductID: p.ID, Rating: 4, Comment: "Encore"})
	requireCode(t, models.EConflict, err)
	assert.Equal(t, "Vous avez déjà laissé un avis pour ce produit", models.ErrorMessage(err))

	_, err = s.Create(ctx, other.ID, models.ReviewInput{ProductID: p.ID, Rating: 6, Comment: "Trop"})
	requireCode(t, models.EInvalid, err)
	assert.Equal(t, "Note invalide (1-5)", models.ErrorMessage(err))

	_, err = s.Create(ctx, other.ID, models.ReviewInput{ProductID: p.ID, Rating: 3})
	requireCode(t, models.EInvalid, err)

	_, err = s.Create(ctx, other.ID, models.ReviewInput{ProductID: "missing", Rating: 3, Comment: "?"})
	requireCode(t, models.ENotFound, err)

	list, err := s.ListByProduct(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, u.ID, list[0].User.ID)

	err = s.Delete(ctx, other.ID, r.ID)
	requireCode(t, models.EForbidden, err)
	assert.Equal(t, "Non autorisé", models.ErrorMessage(err))

	require.NoError(t, s.Delete(ctx, u.ID, r.ID))
	requireCode(t, models.ENotFound, s.Delete(ctx, u.ID, r.ID))
}

func TestReviewVerifiedAfterDelivery(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	orders := newOrders(t, f, nil)
	s := NewReviewService(f.store, nil, zaptest.NewLogger(t))

	u := f.user(t, "client@example.com")
	p := f.product(t, "classic-round", 95000, 12)

	o, err := orders.Create(ctx, checkout(u.ID, models.OrderLine{ProductID: p.ID, Quantity: 1}))
	require.NoError(t, err)
	_, err = orders.UpdateStatus(ctx, o.ID, models.StatusUpdate{Status: models.OrderDelivered})
	require.NoError(t, err)

	r, err := s.Create(ctx, u.ID, models.ReviewInput{ProductID: p.ID, Rating: 4, Comment: "Reçues rapidement"})
	require.NoError(t, err)
	assert.True(t, r.Verified)
}
