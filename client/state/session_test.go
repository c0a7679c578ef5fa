package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxvision/client"
	"luxvision/models"
)

func TestInitWithoutToken(t *testing.T) {
	api := newFakeAPI()
	s := NewSession(api)

	require.NoError(t, s.Init(context.Background()))
	assert.False(t, s.IsAuthenticated())
	assert.Empty(t, api.Calls())
}

func TestInitRestoresSession(t *testing.T) {
	api := newFakeAPI()
	api.user = customer
	require.NoError(t, api.tokens.SetTokens(models.TokenPair{AccessToken: "a", RefreshToken: "r"}))
	s := NewSession(api)

	require.NoError(t, s.Init(context.Background()))
	assert.Equal(t, customer, s.User())
	assert.False(t, s.IsAdmin())
}

func TestInitClearsRefusedTokens(t *testing.T) {
	api := newFakeAPI()
	api.fail["Me"] = true
	require.NoError(t, api.tokens.SetTokens(models.TokenPair{AccessToken: "a", RefreshToken: "r"}))
	s := NewSession(api)

	require.ErrorIs(t, s.Init(context.Background()), errBackend)
	assert.Nil(t, s.User())
	assert.Empty(t, api.tokens.AccessToken())
	assert.Empty(t, api.tokens.RefreshToken())
}

func TestLoginNotifiesObservers(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.user = &models.User{ID: "u9", Role: models.RoleAdmin}
	s := NewSession(api)

	var seen []*models.User
	s.Subscribe(func(_ context.Context, u *models.User) { seen = append(seen, u) })

	u, err := s.Login(ctx, "admin@luxvision.cg", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u9", u.ID)
	assert.True(t, s.IsAdmin())

	api.fail["Logout"] = true
	assert.Error(t, s.Logout(ctx))
	assert.False(t, s.IsAuthenticated())

	require.Len(t, seen, 2)
	assert.Equal(t, "u9", seen[0].ID)
	assert.Nil(t, seen[1])
}

func TestFailedLoginKeepsGuest(t *testing.T) {
	api := newFakeAPI()
	api.fail["Login"] = true
	s := NewSession(api)

	called := false
	s.Subscribe(func(context.Context, *models.User) { called = true })

	_, err := s.Login(context.Background(), "client@example.com", "wrong")
	require.Error(t, err)
	assert.False(t, called)
	assert.False(t, s.IsAuthenticated())
}

func TestRegister(t *testing.T) {
	s := NewSession(newFakeAPI())
	u, err := s.Register(context.Background(), client.RegisterInput{Email: "new@example.com", Password: "password123", FirstName: "Marie"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", u.Email)
	assert.True(t, s.IsAuthenticated())
}

func TestExpire(t *testing.T) {
	api := newFakeAPI()
	api.user = customer
	s := NewSession(api)
	_, err := s.Login(context.Background(), "client@example.com", "password123")
	require.NoError(t, err)

	calls := 0
	s.Subscribe(func(context.Context, *models.User) { calls++ })
	s.Expire()
	s.Expire()
	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, 1, calls)
}

func TestStoreFollowsSession(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	api.user = customer
	api.cart = models.Cart{Items: []models.CartItem{
		{ID: "ci-1", ProductID: aviatorPro.ID, Quantity: 1, Product: &aviatorPro},
	}}
	api.wishlist = []models.WishlistItem{{ID: "w1", ProductID: catEye.ID, Product: &catEye}}

	st := New(api, NewMemoryStorage(), nil)
	require.NoError(t, st.Cart.Add(ctx, classicRound, 1))
	require.NoError(t, st.RecentlyViewed.Add(classicRound))

	_, err := st.Session.Login(ctx, "client@example.com", "password123")
	require.NoError(t, err)
	require.Len(t, st.Cart.Items(), 1)
	assert.Equal(t, aviatorPro.ID, st.Cart.Items()[0].Product.ID)
	assert.True(t, st.Wishlist.Contains(catEye.ID))

	require.NoError(t, st.Session.Logout(ctx))
	require.Len(t, st.Cart.Items(), 1)
	assert.Equal(t, classicRound.ID, st.Cart.Items()[0].Product.ID)
	assert.Zero(t, st.Wishlist.Count())
	assert.Len(t, st.RecentlyViewed.Products(), 1)
}
