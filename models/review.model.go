package models

import "time"

// Review is a rating left by a user on a product.
// There is at most one review per (product, user).
type Review struct {
	ID        string    `bson:"_id" db:"id" json:"id"`
	ProductID string    `bson:"product_id" db:"product_id" json:"productId"`
	UserID    string    `bson:"user_id" db:"user_id" json:"userId"`
	Rating    int       `bson:"rating" db:"rating" json:"rating"`
	Title     string    `bson:"title" db:"title" json:"title,omitempty"`
	Comment   string    `bson:"comment" db:"comment" json:"comment"`
	Verified  bool      `bson:"verified" db:"verified" json:"verified"`
	CreatedAt time.Time `bson:"created_at" db:"created_at" json:"createdAt"`

	User *UserSummary `bson:"-" db:"-" json:"user,omitempty"`
}

// ReviewInput is the request creating a review.
type ReviewInput struct {
	ProductID string `json:"productId"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}
