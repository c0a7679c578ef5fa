package controllers

import (
	"net/http"

	"luxvision/models"
	"luxvision/services"
)

// ReviewController handles product reviews
type ReviewController struct {
	reviews *services.ReviewService
	errors  *ErrorHandler
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviews *services.ReviewService, errors *ErrorHandler) *ReviewController {
	return &ReviewController{reviews: reviews, errors: errors}
}

// CreateReview records the review of the authenticated user
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		rc.errors.HandleHTTPError(w, r, err)
		return
	}
	var in models.ReviewInput
	if err := decode(r, &in); err != nil {
		rc.errors.HandleHTTPError(w, r, err)
		return
	}
	review, err := rc.reviews.Create(r.Context(), u.ID, in)
	if err != nil {
		rc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Avis ajouté avec succès", map[string]*models.Review{"review": review})
}

// GetProductReviews lists the reviews of a product
func (rc *ReviewController) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := rc.reviews.ListByProduct(r.Context(), pathVar(r, "productId"))
	if err != nil {
		rc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.Review{"reviews": reviews})
}

// DeleteReview removes a review of the authenticated user
func (rc *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		rc.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := rc.reviews.Delete(r.Context(), u.ID, pathVar(r, "id")); err != nil {
		rc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Avis supprimé avec succès", nil)
}
