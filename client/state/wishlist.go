package state

import (
	"context"
	"sync"

	"luxvision/models"
)

// Notification messages shown when a wishlist change could not be saved.
const (
	MsgWishlistAddFailed    = "Erreur lors de l'ajout aux favoris"
	MsgWishlistRemoveFailed = "Erreur lors de la suppression des favoris"
	MsgWishlistClearFailed  = "Erreur lors du vidage des favoris"
)

// WishlistAPI is the part of the API client used by Wishlist.
type WishlistAPI interface {
	Wishlist(ctx context.Context) ([]models.WishlistItem, error)
	AddToWishlist(ctx context.Context, productID string) (*models.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, productID string) error
	ClearWishlist(ctx context.Context) error
}

func productKey(p models.Product) string { return p.ID }

// Wishlist is the shopper's saved products, synced like Cart.
type Wishlist struct {
	api      WishlistAPI
	storage  Storage
	notify   Notifier
	products *collection[models.Product]

	mu            sync.RWMutex
	authenticated bool
}

// NewWishlist returns a guest wishlist loaded from storage. notify may be nil.
func NewWishlist(api WishlistAPI, storage Storage, notify Notifier) *Wishlist {
	w := &Wishlist{api: api, storage: storage, notify: notify, products: newCollection[models.Product]()}
	w.loadStorage()
	return w
}

func (w *Wishlist) isAuthenticated() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.authenticated
}

func (w *Wishlist) loadStorage() {
	var products []models.Product
	loadJSON(w.storage, KeyWishlist, &products)
	w.products.replace(products, productKey)
}

// persist saves a guest's wishlist. Signed-in state lives on the backend.
func (w *Wishlist) persist() error {
	if w.isAuthenticated() {
		return nil
	}
	return saveJSON(w.storage, KeyWishlist, w.products.list())
}

func (w *Wishlist) fail(message string) {
	if w.notify != nil {
		w.notify(message)
	}
}

// SetUser switches the wishlist to the identity of u, nil meaning a guest.
func (w *Wishlist) SetUser(ctx context.Context, u *models.User) {
	w.mu.Lock()
	w.authenticated = u != nil
	w.mu.Unlock()

	if u == nil {
		w.loadStorage()
		return
	}
	remote, err := w.api.Wishlist(ctx)
	if err != nil {
		w.loadStorage()
		return
	}
	products := make([]models.Product, 0, len(remote))
	for _, it := range remote {
		if it.Product != nil {
			products = append(products, *it.Product)
		}
	}
	w.products.replace(products, productKey)
}

// Products returns the saved products in insertion order.
func (w *Wishlist) Products() []models.Product {
	return w.products.list()
}

// Count returns the number of saved products.
func (w *Wishlist) Count() int {
	return len(w.products.list())
}

// Contains reports whether productID is saved.
func (w *Wishlist) Contains(productID string) bool {
	_, _, ok := w.products.get(productID)
	return ok
}

// State returns the sync state of productID.
func (w *Wishlist) State(productID string) ItemState {
	_, st, _ := w.products.get(productID)
	return st
}

// Add saves p. Saving a product twice does nothing.
func (w *Wishlist) Add(ctx context.Context, p models.Product) error {
	if w.Contains(p.ID) {
		return nil
	}
	ch := w.products.put(p.ID, PendingAdd, func(models.Product, bool) models.Product { return p })
	if !w.isAuthenticated() {
		w.products.settle(ch, true, nil)
		return w.persist()
	}

	if _, err := w.api.AddToWishlist(ctx, p.ID); err != nil {
		w.products.settle(ch, false, nil)
		w.fail(MsgWishlistAddFailed)
		return err
	}
	w.products.settle(ch, true, nil)
	return nil
}

// Remove forgets productID.
func (w *Wishlist) Remove(ctx context.Context, productID string) error {
	ch, ok := w.products.remove(productID)
	if !ok {
		return nil
	}
	if !w.isAuthenticated() {
		w.products.settle(ch, true, nil)
		return w.persist()
	}

	if err := w.api.RemoveFromWishlist(ctx, productID); err != nil {
		w.products.settle(ch, false, nil)
		w.fail(MsgWishlistRemoveFailed)
		return err
	}
	w.products.settle(ch, true, nil)
	return nil
}

// Toggle saves p, or forgets it when already saved.
func (w *Wishlist) Toggle(ctx context.Context, p models.Product) error {
	if w.Contains(p.ID) {
		return w.Remove(ctx, p.ID)
	}
	return w.Add(ctx, p)
}

// Clear forgets every product, restoring them when the backend refuses.
func (w *Wishlist) Clear(ctx context.Context) error {
	snap := w.products.reset()
	if !w.isAuthenticated() {
		return w.persist()
	}
	if err := w.api.ClearWishlist(ctx); err != nil {
		w.products.restore(snap)
		w.fail(MsgWishlistClearFailed)
		return err
	}
	return nil
}
