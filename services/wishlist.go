package services

import (
	"context"

	"luxvision/models"
)

// WishlistService manages wishlists.
type WishlistService struct {
	store ShoppingStore
}

// NewWishlistService returns a WishlistService.
func NewWishlistService(store ShoppingStore) *WishlistService {
	return &WishlistService{store: store}
}

// Get returns the saved products of userID, newest first.
func (s *WishlistService) Get(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	items, err := s.store.ListWishlist(ctx, userID)
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
	for i := range items {
		items[i].Product = byID[items[i].ProductID]
	}
	return items, nil
}

// Add saves a product. Saving it twice returns the existing entry.
func (s *WishlistService) Add(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	if productID == "" {
		return nil, models.Invalid("services.AddToWishlist", "ID du produit requis")
	}
	p, err := s.store.FindProductByID(ctx, productID)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errCartProductNotFound
		}
		return nil, err
	}

	item, err := s.store.AddWishlistItem(ctx, userID, productID)
	if err != nil {
		return nil, err
	}
	item.Product = p
	return item, nil
}

// Remove unsaves a product.
func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	if err := s.store.DeleteWishlistItem(ctx, userID, productID); err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return models.NotFound("services.RemoveFromWishlist", "Produit absent de la liste de souhaits")
		}
		return err
	}
	return nil
}

// Clear empties the wishlist of userID.
func (s *WishlistService) Clear(ctx context.Context, userID string) error {
	return s.store.ClearWishlist(ctx, userID)
}
