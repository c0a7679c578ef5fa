package state

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"luxvision/client"
	"luxvision/models"
)

var (
	errBackend = errors.New("backend unavailable")
	errStorage = errors.New("disk full")
)

// brokenStorage reads like MemoryStorage and fails every write.
type brokenStorage struct {
	*MemoryStorage
}

func (b *brokenStorage) Set(key, value string) error { return errStorage }

var (
	classicRound = models.Product{ID: "p1", Name: "Classic Round", Slug: "classic-round", Price: 95000, Stock: 12}
	aviatorPro   = models.Product{ID: "p2", Name: "Aviator Pro", Slug: "aviator-pro", Price: 125000, Stock: 8}
	catEye       = models.Product{ID: "p3", Name: "Cat Eye Elegance", Slug: "cat-eye-elegance", Price: 105000, Stock: 15}
)

var customer = &models.User{ID: "u1", Email: "client@example.com", FirstName: "Jean", Role: models.RoleCustomer}

// fakeAPI records calls and fails the ones listed in fail. Calls listed in
// block wait for a value on the channel before answering.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]bool
	block map[string]chan struct{}

	tokens   client.MemoryTokens
	cart     models.Cart
	wishlist []models.WishlistItem
	user     *models.User
	nextID   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{fail: map[string]bool{}, block: map[string]chan struct{}{}}
}

func (f *fakeAPI) call(name string) error {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	ch := f.block[name]
	failed := f.fail[name]
	f.mu.Unlock()

	if ch != nil {
		<-ch
	}
	if failed {
		return errBackend
	}
	return nil
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) Tokens() client.TokenStore { return &f.tokens }

func (f *fakeAPI) Register(ctx context.Context, in client.RegisterInput) (*models.AuthResult, error) {
	if err := f.call("Register"); err != nil {
		return nil, err
	}
	u := &models.User{ID: "u2", Email: in.Email, FirstName: in.FirstName, Role: models.RoleCustomer}
	pair := models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	_ = f.tokens.SetTokens(pair)
	return &models.AuthResult{User: u, Tokens: pair}, nil
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	if err := f.call("Login"); err != nil {
		return nil, err
	}
	pair := models.TokenPair{AccessToken: "access", RefreshToken: "refresh"}
	_ = f.tokens.SetTokens(pair)
	return &models.AuthResult{User: f.user, Tokens: pair}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error {
	err := f.call("Logout")
	_ = f.tokens.ClearTokens()
	return err
}

func (f *fakeAPI) Me(ctx context.Context) (*models.User, error) {
	if err := f.call("Me"); err != nil {
		return nil, err
	}
	return f.user, nil
}

func (f *fakeAPI) Cart(ctx context.Context) (*models.Cart, error) {
	if err := f.call("Cart"); err != nil {
		return nil, err
	}
	return &f.cart, nil
}

func (f *fakeAPI) AddToCart(ctx context.Context, productID string, quantity int) (*models.CartItem, error) {
	if err := f.call("AddToCart"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.nextID++
	id := "ci-" + strconv.Itoa(f.nextID)
	f.mu.Unlock()
	return &models.CartItem{ID: id, ProductID: productID, Quantity: quantity}, nil
}

func (f *fakeAPI) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*models.CartItem, error) {
	if err := f.call("UpdateCartItem " + itemID); err != nil {
		return nil, err
	}
	return &models.CartItem{ID: itemID, Quantity: quantity}, nil
}

func (f *fakeAPI) RemoveCartItem(ctx context.Context, itemID string) error {
	return f.call("RemoveCartItem " + itemID)
}

func (f *fakeAPI) ClearCart(ctx context.Context) error {
	return f.call("ClearCart")
}

func (f *fakeAPI) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	if err := f.call("Wishlist"); err != nil {
		return nil, err
	}
	return f.wishlist, nil
}

func (f *fakeAPI) AddToWishlist(ctx context.Context, productID string) (*models.WishlistItem, error) {
	if err := f.call("AddToWishlist"); err != nil {
		return nil, err
	}
	return &models.WishlistItem{ID: "w-" + productID, ProductID: productID}, nil
}

func (f *fakeAPI) RemoveFromWishlist(ctx context.Context, productID string) error {
	return f.call("RemoveFromWishlist " + productID)
}

func (f *fakeAPI) ClearWishlist(ctx context.Context) error {
	return f.call("ClearWishlist")
}

// notes collects notifications.
type notes struct {
	mu  sync.Mutex
	got []string
}

func (n *notes) notify(msg string) {
	n.mu.Lock()
	n.got = append(n.got, msg)
	n.mu.Unlock()
}

func (n *notes) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.got...)
}

var _ API = (*client.Client)(nil)
