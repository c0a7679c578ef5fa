package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxvision/models"
)

var newestFirst = bson.D{{Key: "added_at", Value: -1}, {Key: "_id", Value: 1}}

func (s *Store) ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	items, err := findAll[models.CartItem](ctx, s.col(colCart), bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	return items, wrapErr("mongodb.ListCartItems", err)
}

func (s *Store) findCartItem(ctx context.Context, op string, filter bson.M) (*models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var item models.CartItem
	if err := s.col(colCart).FindOne(ctx, filter).Decode(&item); err != nil {
		return nil, wrapErr(op, err)
	}
	return &item, nil
}

func (s *Store) FindCartItem(ctx context.Context, id string) (*models.CartItem, error) {
	return s.findCartItem(ctx, "mongodb.FindCartItem", bson.M{"_id": id})
}

func (s *Store) FindCartItemByProduct(ctx context.Context, userID, productID string) (*models.CartItem, error) {
	return s.findCartItem(ctx, "mongodb.FindCartItemByProduct", bson.M{"user_id": userID, "product_id": productID})
}

func (s *Store) AddCartItem(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{
		"$inc":         bson.M{"quantity": quantity},
		"$setOnInsert": bson.M{"_id": newID(), "added_at": now()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var item models.CartItem
	if err := s.col(colCart).FindOneAndUpdate(ctx, filter, update, opts).Decode(&item); err != nil {
		return nil, wrapErr("mongodb.AddCartItem", err)
	}
	return &item, nil
}

func (s *Store) SetCartItemQuantity(ctx context.Context, id string, quantity int) (*models.CartItem, error) {
	if err := s.updateByID(ctx, colCart, id, bson.M{"quantity": quantity}); err != nil {
		return nil, wrapErr("mongodb.SetCartItemQuantity", err)
	}
	return s.FindCartItem(ctx, id)
}

func (s *Store) DeleteCartItem(ctx context.Context, id string) error {
	return wrapErr("mongodb.DeleteCartItem", s.deleteOne(ctx, colCart, bson.M{"_id": id}))
}

func (s *Store) DeleteCartItemsByProducts(ctx context.Context, userID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	_, err := s.col(colCart).DeleteMany(ctx, bson.M{"user_id": userID, "product_id": bson.M{"$in": productIDs}})
	return wrapErr("mongodb.DeleteCartItemsByProducts", err)
}

func (s *Store) ClearCart(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	_, err := s.col(colCart).DeleteMany(ctx, bson.M{"user_id": userID})
	return wrapErr("mongodb.ClearCart", err)
}

func (s *Store) ListWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	items, err := findAll[models.WishlistItem](ctx, s.col(colWishlist), bson.M{"user_id": userID}, options.Find().SetSort(newestFirst))
	return items, wrapErr("mongodb.ListWishlist", err)
}

func (s *Store) AddWishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{"$setOnInsert": bson.M{"_id": newID(), "added_at": now()}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var item models.WishlistItem
	if err := s.col(colWishlist).FindOneAndUpdate(ctx, filter, update, opts).Decode(&item); err != nil {
		return nil, wrapErr("mongodb.AddWishlistItem", err)
	}
	return &item, nil
}

func (s *Store) DeleteWishlistItem(ctx context.Context, userID, productID string) error {
	err := s.deleteOne(ctx, colWishlist, bson.M{"user_id": userID, "product_id": productID})
	return wrapErr("mongodb.DeleteWishlistItem", err)
}

func (s *Store) ClearWishlist(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	_, err := s.col(colWishlist).DeleteMany(ctx, bson.M{"user_id": userID})
	return wrapErr("mongodb.ClearWishlist", err)
}
