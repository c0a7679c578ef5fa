package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"luxvision/models"
)

var errDuplicateReview = &models.Error{Code: models.EConflict, Msg: "Vous avez déjà laissé un avis pour ce produit"}

// ReviewsStore is the storage used by ReviewService.
type ReviewsStore interface {
	ReviewStore
	ProductStore
	UserStore
	HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error)
}

// ReviewService manages product reviews.
type ReviewService struct {
	store    ReviewsStore
	products *ProductService
	log      *zap.Logger
}

// NewReviewService returns a ReviewService. products is used to refresh the
// cached ratings and may be nil.
func NewReviewService(store ReviewsStore, products *ProductService, log *zap.Logger) *ReviewService {
	return &ReviewService{store: store, products: products, log: log}
}

// attachAuthors sets the public author summary of each review.
func attachAuthors(ctx context.Context, users UserStore, reviews []models.Review) error {
	seen := make(map[string]*models.UserSummary)
	for i := range reviews {
		id := reviews[i].UserID
		if sum, ok := seen[id]; ok {
			reviews[i].User = sum
			continue
		}
		u, err := users.FindUserByID(ctx, id)
		if models.ErrorCode(err) == models.ENotFound {
			seen[id] = nil
			continue
		}
		if err != nil {
			return err
		}
		sum := &models.UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName}
		seen[id] = sum
		reviews[i].User = sum
	}
	return nil
}

// Create records the review of userID. It is marked verified when the user
// received the product in a delivered order.
func (s *ReviewService) Create(ctx context.Context, userID string, in models.ReviewInput) (*models.Review, error) {
	const op = "services.CreateReview"

	if in.ProductID == "" || strings.TrimSpace(in.Comment) == "" {
		return nil, models.Invalid(op, "Données manquantes")
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, models.Invalid(op, "Note invalide (1-5)")
	}

	p, err := s.store.FindProductByID(ctx, in.ProductID)
	if err != nil || !p.IsActive {
		if err == nil || models.ErrorCode(err) == models.ENotFound {
			return nil, errProductNotFound
		}
		return nil, err
	}

	if _, err := s.store.FindUserReview(ctx, in.ProductID, userID); err == nil {
		return nil, errDuplicateReview
	} else if models.ErrorCode(err) != models.ENotFound {
		return nil, err
	}

	verified, err := s.store.HasDeliveredProduct(ctx, userID, in.ProductID)
	if err != nil {
		return nil, err
	}

	r := &models.Review{
		ProductID: in.ProductID,
		UserID:    userID,
		Rating:    in.Rating,
		Title:     strings.TrimSpace(in.Title),
		Comment:   strings.TrimSpace(in.Comment),
		Verified:  verified,
	}
	if err := s.store.CreateReview(ctx, r); err != nil {
		if models.ErrorCode(err) == models.EConflict {
			return nil, errDuplicateReview
		}
		return nil, err
	}

	one := []models.Review{*r}
	if err := attachAuthors(ctx, s.store, one); err != nil {
		return nil, err
	}
	if s.products != nil {
		s.products.Invalidate()
	}
	s.log.Debug("Review created", zap.String("product_id", r.ProductID), zap.Bool("verified", verified))
	return &one[0], nil
}

// ListByProduct returns the reviews of a product, newest first.
func (s *ReviewService) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	reviews, err := s.store.ListReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := attachAuthors(ctx, s.store, reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Delete removes a review written by userID.
func (s *ReviewService) Delete(ctx context.Context, userID, reviewID string) error {
	r, err := s.store.FindReviewByID(ctx, reviewID)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return models.NotFound("services.DeleteReview", "Avis introuvable")
		}
		return err
	}
	if r.UserID != userID {
		return &models.Error{Code: models.EForbidden, Op: "services.DeleteReview", Msg: "Non autorisé"}
	}
	if err := s.store.DeleteReview(ctx, reviewID); err != nil {
		return err
	}
	if s.products != nil {
		s.products.Invalidate()
	}
	return nil
}
