package sqlite

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"luxvision/models"
)

var errDuplicateReview = &models.Error{
	Code: models.EConflict,
	Msg:  "Vous avez déjà laissé un avis pour ce produit",
}

func (s *SqlStore) CreateReview(ctx context.Context, r *models.Review) error {
	if r.ID == "" {
		r.ID = newID()
	}
	r.CreatedAt = now()

	q := sq.Insert("reviews").
		Columns("id", "product_id", "user_id", "rating", "title", "comment", "verified", "created_at").
		Values(r.ID, r.ProductID, r.UserID, r.Rating, r.Title, r.Comment, r.Verified, r.CreatedAt)
	if _, err := s.exec(ctx, s.DB, q); err != nil {
		if isUniqueViolation(err) {
			return wrapErr("sqlite.CreateReview", &models.Error{Code: errDuplicateReview.Code, Msg: errDuplicateReview.Msg, Err: err})
		}
		return wrapErr("sqlite.CreateReview", err)
	}
	return nil
}

func (s *SqlStore) FindReviewByID(ctx context.Context, id string) (*models.Review, error) {
	var r models.Review
	if err := s.get(ctx, s.DB, &r, sq.Select("*").From("reviews").Where(sq.Eq{"id": id})); err != nil {
		return nil, wrapErr("sqlite.FindReviewByID", err)
	}
	return &r, nil
}

func (s *SqlStore) FindUserReview(ctx context.Context, productID, userID string) (*models.Review, error) {
	var r models.Review
	q := sq.Select("*").From("reviews").Where(sq.Eq{"product_id": productID, "user_id": userID})
	if err := s.get(ctx, s.DB, &r, q); err != nil {
		return nil, wrapErr("sqlite.FindUserReview", err)
	}
	return &r, nil
}

func (s *SqlStore) ListReviewsByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	reviews := []models.Review{}
	q := sq.Select("*").From("reviews").Where(sq.Eq{"product_id": productID}).OrderBy("created_at DESC", "id ASC")
	if err := s.sel(ctx, s.DB, &reviews, q); err != nil {
		return nil, wrapErr("sqlite.ListReviewsByProduct", err)
	}
	return reviews, nil
}

func (s *SqlStore) DeleteReview(ctx context.Context, id string) error {
	n, err := s.exec(ctx, s.DB, sq.Delete("reviews").Where(sq.Eq{"id": id}))
	if err != nil {
		return wrapErr("sqlite.DeleteReview", err)
	}
	if n == 0 {
		return wrapErr("sqlite.DeleteReview", models.ErrNotFound)
	}
	return nil
}
