package services

import (
	"context"

	"luxvision/models"
)

var (
	errCartProductNotFound = &models.Error{Code: models.ENotFound, Msg: "Produit introuvable"}
	errCartItemNotFound    = &models.Error{Code: models.ENotFound, Msg: "Item introuvable"}
	errStock               = &models.Error{Code: models.EConflict, Msg: "Stock insuffisant"}
)

// ShoppingStore is the storage used by the cart and the wishlist.
type ShoppingStore interface {
	CartStore
	WishlistStore
	ProductStore
}

// CartService manages server-side carts.
type CartService struct {
	store ShoppingStore
}

// NewCartService returns a CartService.
func NewCartService(store ShoppingStore) *CartService {
	return &CartService{store: store}
}

// attachProducts loads the product of every line keyed by productID.
func attachProducts(ctx context.Context, products ProductStore, ids []string) (map[string]*models.Product, error) {
	found, err := products.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Product, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}
	return byID, nil
}

// Get returns the priced cart of userID, newest lines first.
func (s *CartService) Get(ctx context.Context, userID string) (*models.Cart, error) {
	items, err := s.store.ListCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(items))
	for i := range items {
		ids[i] = items[i].ProductID
	}
	byID, err := attachProducts(ctx, s.store, ids)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{Items: items}
	for i := range items {
		items[i].Product = byID[items[i].ProductID]
		if items[i].Product != nil {
			cart.Subtotal += items[i].Product.Price * int64(items[i].Quantity)
		}
	}
	cart.ItemsCount = len(items)
	return cart, nil
}

func (s *CartService) activeProduct(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.store.FindProductByID(ctx, id)
	if models.ErrorCode(err) == models.ENotFound || (err == nil && !p.IsActive) {
		return nil, errCartProductNotFound
	}
	return p, err
}

// Add puts quantity units of a product in the cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	if productID == "" {
		return nil, models.Invalid("services.AddToCart", "ID du produit requis")
	}
	if quantity == 0 {
		quantity = 1
	}
	if quantity < 1 {
		return nil, models.Invalid("services.AddToCart", "La quantité doit être au moins 1")
	}

	p, err := s.activeProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	want := quantity
	existing, err := s.store.FindCartItemByProduct(ctx, userID, productID)
	switch {
	case err == nil:
		want += existing.Quantity
	case models.ErrorCode(err) != models.ENotFound:
		return nil, err
	}
	if p.Stock < want {
		return nil, errStock
	}

	item, err := s.store.AddCartItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, err
	}
	item.Product = p
	return item, nil
}

func (s *CartService) ownedItem(ctx context.Context, userID, itemID string) (*models.CartItem, error) {
	item, err := s.store.FindCartItem(ctx, itemID)
	if models.ErrorCode(err) == models.ENotFound || (err == nil && item.UserID != userID) {
		return nil, errCartItemNotFound
	}
	return item, err
}

// Update sets the quantity of a cart line owned by userID.
func (s *CartService) Update(ctx context.Context, userID, itemID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, models.Invalid("services.UpdateCartItem", "La quantité doit être au moins 1")
	}
	item, err := s.ownedItem(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}

	p, err := s.activeProduct(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Stock < quantity {
		return nil, errStock
	}

	item, err = s.store.SetCartItemQuantity(ctx, itemID, quantity)
	if err != nil {
		return nil, err
	}
	item.Product = p
	return item, nil
}

// Remove deletes a cart line owned by userID.
func (s *CartService) Remove(ctx context.Context, userID, itemID string) error {
	if _, err := s.ownedItem(ctx, userID, itemID); err != nil {
		return err
	}
	return s.store.DeleteCartItem(ctx, itemID)
}

// Clear empties the cart of userID.
func (s *CartService) Clear(ctx context.Context, userID string) error {
	return s.store.ClearCart(ctx, userID)
}
