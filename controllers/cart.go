package controllers

import (
	"net/http"

	"luxvision/models"
	"luxvision/services"
)

var errBadQuantity = &models.Error{Code: models.EInvalid, Msg: "Quantité invalide"}

// CartController handles cart-related requests
type CartController struct {
	cart   *services.CartService
	errors *ErrorHandler
}

// NewCartController creates a new CartController
func NewCartController(cart *services.CartService, errors *ErrorHandler) *CartController {
	return &CartController{cart: cart, errors: errors}
}

// GetCart returns the priced cart of the user
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	cart, err := cc.cart.Get(r.Context(), u.ID)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", cart)
}

// AddToCart adds a product to the cart, merging quantities of an existing line
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	var body struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if err := decode(r, &body); err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	if body.ProductID == "" {
		cc.errors.HandleHTTPError(w, r, models.Invalid("controllers.AddToCart", "ProductId requis"))
		return
	}
	item, err := cc.cart.Add(r.Context(), u.ID, body.ProductID, body.Quantity)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Produit ajouté au panier", map[string]*models.CartItem{"item": item})
}

// UpdateCartItem sets the quantity of a cart line
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	var body struct {
		Quantity int `json:"quantity"`
	}
	if err := decode(r, &body); err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	if body.Quantity < 1 {
		cc.errors.HandleHTTPError(w, r, errBadQuantity)
		return
	}
	item, err := cc.cart.Update(r.Context(), u.ID, pathVar(r, "id"), body.Quantity)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Panier mis à jour", map[string]*models.CartItem{"item": item})
}

// RemoveFromCart deletes a cart line
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := cc.cart.Remove(r.Context(), u.ID, pathVar(r, "id")); err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Produit retiré du panier", nil)
}

// ClearCart empties the cart
func (cc *CartController) ClearCart(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := cc.cart.Clear(r.Context(), u.ID); err != nil {
		cc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Panier vidé", nil)
}
