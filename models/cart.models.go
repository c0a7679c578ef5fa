package models

import "time"

// CartItem is one product line in a user's server-side cart.
// There is at most one line per (user, product).
type CartItem struct {
	ID        string    `bson:"_id" db:"id" json:"id"`
	UserID    string    `bson:"user_id" db:"user_id" json:"userId"`
	ProductID string    `bson:"product_id" db:"product_id" json:"productId"`
	Quantity  int       `bson:"quantity" db:"quantity" json:"quantity"`
	AddedAt   time.Time `bson:"added_at" db:"added_at" json:"addedAt"`

	Product *Product `bson:"-" db:"-" json:"product,omitempty"`
}

// Cart is the priced view of a user's cart lines.
type Cart struct {
	Items      []CartItem `json:"items"`
	Subtotal   int64      `json:"subtotal"`
	ItemsCount int        `json:"itemsCount"`
}

// WishlistItem marks a product saved by a user.
// There is at most one entry per (user, product).
type WishlistItem struct {
	ID        string    `bson:"_id" db:"id" json:"id"`
	UserID    string    `bson:"user_id" db:"user_id" json:"userId"`
	ProductID string    `bson:"product_id" db:"product_id" json:"productId"`
	AddedAt   time.Time `bson:"added_at" db:"added_at" json:"addedAt"`

	Product *Product `bson:"-" db:"-" json:"product,omitempty"`
}
