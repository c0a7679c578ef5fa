package controllers

import (
	"net/http"

	"luxvision/models"
	"luxvision/services"
)

// WishlistController handles saved products
type WishlistController struct {
	wishlist *services.WishlistService
	errors   *ErrorHandler
}

// NewWishlistController creates a new WishlistController
func NewWishlistController(wishlist *services.WishlistService, errors *ErrorHandler) *WishlistController {
	return &WishlistController{wishlist: wishlist, errors: errors}
}

func (wc *WishlistController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	items, err := wc.wishlist.Get(r.Context(), u.ID)
	if err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.WishlistItem{"wishlist": items})
}

func (wc *WishlistController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	var body struct {
		ProductID string `json:"productId"`
	}
	if err := decode(r, &body); err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	if body.ProductID == "" {
		wc.errors.HandleHTTPError(w, r, models.Invalid("controllers.AddToWishlist", "ProductId requis"))
		return
	}
	item, err := wc.wishlist.Add(r.Context(), u.ID, body.ProductID)
	if err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Produit ajouté à la liste de souhaits", map[string]*models.WishlistItem{"item": item})
}

func (wc *WishlistController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := wc.wishlist.Remove(r.Context(), u.ID, pathVar(r, "productId")); err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Produit retiré de la liste de souhaits", nil)
}

func (wc *WishlistController) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := wc.wishlist.Clear(r.Context(), u.ID); err != nil {
		wc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Liste de souhaits vidée", nil)
}
