package state

import (
	"context"
	"sync"

	"luxvision/models"
)

// Notification messages shown when a cart change could not be saved.
const (
	MsgCartAddFailed    = "Erreur lors de l'ajout au panier"
	MsgCartRemoveFailed = "Erreur lors de la suppression du panier"
	MsgCartUpdateFailed = "Erreur lors de la mise à jour du panier"
	MsgCartClearFailed  = "Erreur lors du vidage du panier"
)

// Notifier surfaces an error message to the shopper.
type Notifier func(message string)

// CartAPI is the part of the API client used by Cart.
type CartAPI interface {
	Cart(ctx context.Context) (*models.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*models.CartItem, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (*models.CartItem, error)
	RemoveCartItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// CartItem is a product line of the local cart. CartItemID is the ID of the
// backend line, known once the backend accepted it.
type CartItem struct {
	Product    models.Product `json:"product"`
	Quantity   int            `json:"quantity"`
	CartItemID string         `json:"cartItemId,omitempty"`
}

func cartKey(it CartItem) string { return it.Product.ID }

// Cart is the shopper's cart. Changes apply locally first; for a signed-in
// shopper they are then sent to the backend and undone when it refuses them.
// Guests' carts only live in Storage.
type Cart struct {
	api     CartAPI
	storage Storage
	notify  Notifier
	items   *collection[CartItem]

	mu            sync.RWMutex
	authenticated bool
	// orphans holds products removed while their add call was in flight.
	orphans map[string]bool
}

// NewCart returns a guest cart loaded from storage. notify may be nil.
func NewCart(api CartAPI, storage Storage, notify Notifier) *Cart {
	c := &Cart{api: api, storage: storage, notify: notify, items: newCollection[CartItem]()}
	c.loadStorage()
	return c
}

func (c *Cart) isAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

func (c *Cart) loadStorage() {
	var items []CartItem
	loadJSON(c.storage, KeyCart, &items)
	c.items.replace(items, cartKey)
}

// persist saves a guest's cart. Signed-in state lives on the backend.
func (c *Cart) persist() error {
	if c.isAuthenticated() {
		return nil
	}
	return saveJSON(c.storage, KeyCart, c.items.list())
}

func (c *Cart) fail(message string) {
	if c.notify != nil {
		c.notify(message)
	}
}

// SetUser switches the cart to the identity of u, nil meaning a guest. The
// backend cart of a signed-in shopper replaces the local one, falling back to
// storage when it cannot be fetched.
func (c *Cart) SetUser(ctx context.Context, u *models.User) {
	c.mu.Lock()
	c.authenticated = u != nil
	c.orphans = nil
	c.mu.Unlock()

	if u == nil {
		c.loadStorage()
		return
	}
	remote, err := c.api.Cart(ctx)
	if err != nil {
		c.loadStorage()
		return
	}
	items := make([]CartItem, 0, len(remote.Items))
	for _, it := range remote.Items {
		if it.Product == nil {
			continue
		}
		items = append(items, CartItem{Product: *it.Product, Quantity: it.Quantity, CartItemID: it.ID})
	}
	c.items.replace(items, cartKey)
}

// Items returns the visible lines in insertion order.
func (c *Cart) Items() []CartItem {
	return c.items.list()
}

// State returns the sync state of the line holding productID.
func (c *Cart) State(productID string) ItemState {
	_, st, _ := c.items.get(productID)
	return st
}

// TotalItems returns the number of units in the cart.
func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items.list() {
		n += it.Quantity
	}
	return n
}

// TotalPrice returns the value of the cart in FCFA.
func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, it := range c.items.list() {
		total += it.Product.Price * int64(it.Quantity)
	}
	return total
}

// Add puts quantity units of p in the cart, merging with an existing line.
func (c *Cart) Add(ctx context.Context, p models.Product, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}
	merge := func(cur CartItem, exists bool) CartItem {
		if exists {
			cur.Quantity += quantity
			return cur
		}
		return CartItem{Product: p, Quantity: quantity}
	}
	if !c.isAuthenticated() {
		c.items.settle(c.items.put(p.ID, PendingAdd, merge), true, nil)
		return c.persist()
	}

	ch := c.items.put(p.ID, PendingAdd, merge)
	remote, err := c.api.AddToCart(ctx, p.ID, quantity)
	orphaned := c.takeOrphan(p.ID)
	if err != nil {
		c.items.settle(ch, false, nil)
		c.fail(MsgCartAddFailed)
		return err
	}
	settled := c.items.settle(ch, true, func(it *CartItem) {
		if remote != nil {
			it.CartItemID = remote.ID
		}
	})
	if settled || !orphaned || remote == nil || c.State(p.ID) != Absent {
		return nil
	}
	// the line was removed locally before the backend knew its ID
	if err := c.api.RemoveCartItem(ctx, remote.ID); err != nil {
		c.fail(MsgCartRemoveFailed)
		return err
	}
	return nil
}

func (c *Cart) markOrphan(productID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.orphans == nil {
		c.orphans = make(map[string]bool)
	}
	c.orphans[productID] = true
}

func (c *Cart) takeOrphan(productID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	ok := c.orphans[productID]
	delete(c.orphans, productID)
	return ok
}

// Remove deletes the line holding productID.
func (c *Cart) Remove(ctx context.Context, productID string) error {
	ch, ok := c.items.remove(productID)
	if !ok {
		return nil
	}
	itemID := ch.prev.value.CartItemID
	if !c.isAuthenticated() {
		c.items.settle(ch, true, nil)
		return c.persist()
	}
	if itemID == "" {
		if ch.prev.state == PendingAdd {
			c.markOrphan(productID)
		}
		c.items.settle(ch, true, nil)
		return nil
	}

	if err := c.api.RemoveCartItem(ctx, itemID); err != nil {
		c.items.settle(ch, false, nil)
		c.fail(MsgCartRemoveFailed)
		return err
	}
	c.items.settle(ch, true, nil)
	return nil
}

// UpdateQuantity sets the quantity of the line holding productID. A quantity
// below one removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, productID)
	}
	cur, _, ok := c.items.get(productID)
	if !ok {
		return nil
	}
	set := func(it CartItem, _ bool) CartItem {
		it.Quantity = quantity
		return it
	}

	if !c.isAuthenticated() || cur.CartItemID == "" {
		c.items.settle(c.items.put(productID, PendingAdd, set), true, nil)
		return c.persist()
	}

	ch := c.items.put(productID, PendingAdd, set)
	if _, err := c.api.UpdateCartItem(ctx, cur.CartItemID, quantity); err != nil {
		c.items.settle(ch, false, nil)
		c.fail(MsgCartUpdateFailed)
		return err
	}
	c.items.settle(ch, true, nil)
	return nil
}

// Clear empties the cart, restoring every line when the backend refuses.
func (c *Cart) Clear(ctx context.Context) error {
	snap := c.items.reset()
	if !c.isAuthenticated() {
		return c.persist()
	}
	if err := c.api.ClearCart(ctx); err != nil {
		c.items.restore(snap)
		c.fail(MsgCartClearFailed)
		return err
	}
	return nil
}
