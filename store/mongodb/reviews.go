package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxvision/models"
)

func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	if r.ID == "" {
		r.ID = newID()
	}
	r.CreatedAt = now()

	if _, err := s.col(colReviews).InsertOne(ctx, r); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return wrapErr("mongodb.CreateReview", &models.Error{
				Code: models.EConflict,
				Msg:  "Vous avez déjà laissé un avis pour ce produit",
				Err:  err,
			})
		}
		return wrapErr("mongodb.CreateReview", err)
	}
	return nil
}

func (s *Store) findReview(ctx context.Context, op string, filter bson.M) (*models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var r models.Review
	if err := s.col(colReviews).FindOne(ctx, filter).Decode(&r); err != nil {
		return nil, wrapErr(op, err)
	}
	return &r, nil
}

func (s *Store) FindReviewByID(ctx context.Context, id string) (*models.Review, error) {
	return s.findReview(ctx, "mongodb.FindReviewByID", bson.M{"_id": id})
}

func (s *Store) FindUserReview(ctx context.Context, productID, userID string) (*models.Review, error) {
	return s.findReview(ctx, "mongodb.FindUserReview", bson.M{"product_id": productID, "user_id": userID})
}

func (s *Store) ListReviewsByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	reviews, err := findAll[models.Review](ctx, s.col(colReviews), bson.M{"product_id": productID}, opts)
	return reviews, wrapErr("mongodb.ListReviewsByProduct", err)
}

func (s *Store) DeleteReview(ctx context.Context, id string) error {
	return wrapErr("mongodb.DeleteReview", s.deleteOne(ctx, colReviews, bson.M{"_id": id}))
}
