package sqlite

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"luxvision/models"
)

func (s *SqlStore) ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	items := []models.CartItem{}
	q := sq.Select("*").From("cart_items").Where(sq.Eq{"user_id": userID}).OrderBy("added_at DESC", "id ASC")
	if err := s.sel(ctx, s.DB, &items, q); err != nil {
		return nil, wrapErr("sqlite.ListCartItems", err)
	}
	return items, nil
}

func (s *SqlStore) FindCartItem(ctx context.Context, id string) (*models.CartItem, error) {
	var item models.CartItem
	if err := s.get(ctx, s.DB, &item, sq.Select("*").From("cart_items").Where(sq.Eq{"id": id})); err != nil {
		return nil, wrapErr("sqlite.FindCartItem", err)
	}
	return &item, nil
}

func (s *SqlStore) FindCartItemByProduct(ctx context.Context, userID, productID string) (*models.CartItem, error) {
	var item models.CartItem
	q := sq.Select("*").From("cart_items").Where(sq.Eq{"user_id": userID, "product_id": productID})
	if err := s.get(ctx, s.DB, &item, q); err != nil {
		return nil, wrapErr("sqlite.FindCartItemByProduct", err)
	}
	return &item, nil
}

const upsertCartItem = `INSERT INTO cart_items (id, user_id, product_id, quantity, added_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`

func (s *SqlStore) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	if _, err := s.DB.ExecContext(ctx, upsertCartItem, newID(), userID, productID, quantity, now()); err != nil {
		return nil, wrapErr("sqlite.AddCartItem", err)
	}
	return s.FindCartItemByProduct(ctx, userID, productID)
}

func (s *SqlStore) SetCartItemQuantity(ctx context.Context, id string, quantity int) (*models.CartItem, error) {
	n, err := s.exec(ctx, s.DB, sq.Update("cart_items").Set("quantity", quantity).Where(sq.Eq{"id": id}))
	if err != nil {
		return nil, wrapErr("sqlite.SetCartItemQuantity", err)
	}
	if n == 0 {
		return nil, wrapErr("sqlite.SetCartItemQuantity", models.ErrNotFound)
	}
	return s.FindCartItem(ctx, id)
}

func (s *SqlStore) DeleteCartItem(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.DB, sq.Delete("cart_items").Where(sq.Eq{"id": id}))
	if err != nil {
		return wrapErr("sqlite.DeleteCartItem", err)
	}
	if n == 0 {
		return wrapErr("sqlite.DeleteCartItem", models.ErrNotFound)
	}
	return nil
}

func (s *SqlStore) DeleteCartItemsByProducts(ctx context.Context, userID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	_, err := s.exec(ctx, s.DB, sq.Delete("cart_items").Where(sq.Eq{"user_id": userID, "product_id": productIDs}))
	return wrapErr("sqlite.DeleteCartItemsByProducts", err)
}

func (s *SqlStore) ClearCart(ctx context.Context, userID string) error {
	_, err := s.exec(ctx, s.DB, sq.Delete("cart_items").Where(sq.Eq{"user_id": userID}))
	return wrapErr("sqlite.ClearCart", err)
}

func (s *SqlStore) ListWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	items := []models.WishlistItem{}
	q := sq.Select("*").From("wishlist_items").Where(sq.Eq{"user_id": userID}).OrderBy("added_at DESC", "id ASC")
	if err := s.sel(ctx, s.DB, &items, q); err != nil {
		return nil, wrapErr("sqlite.ListWishlist", err)
	}
	return items, nil
}

const insertWishlistItem = `INSERT INTO wishlist_items (id, user_id, product_id, added_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, product_id) DO NOTHING`

func (s *SqlStore) AddWishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	if _, err := s.DB.ExecContext(ctx, insertWishlistItem, newID(), userID, productID, now()); err != nil {
		return nil, wrapErr("sqlite.AddWishlistItem", err)
	}

	var item models.WishlistItem
	q := sq.Select("*").From("wishlist_items").Where(sq.Eq{"user_id": userID, "product_id": productID})
	if err := s.get(ctx, s.DB, &item, q); err != nil {
		return nil, wrapErr("sqlite.AddWishlistItem", err)
	}
	return &item, nil
}

func (s *SqlStore) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	n, err := s.exec(ctx, s.DB, sq.Delete("wishlist_items").Where(sq.Eq{"user_id": userID, "product_id": productID}))
	if err != nil {
		return wrapErr("sqlite.DeleteWishlistItem", err)
	}
	if n == 0 {
		return wrapErr("sqlite.DeleteWishlistItem", models.ErrNotFound)
	}
	return nil
}

func (s *SqlStore) ClearWishlist(ctx context.Context, userID string) error {
	_, err := s.exec(ctx, s.DB, sq.Delete("wishlist_items").Where(sq.Eq{"user_id": userID}))
	return wrapErr("sqlite.ClearWishlist", err)
}
