package controllers

import (
	"net/http"

	"luxvision/models"
	"luxvision/services"
)

// OrderController handles order-related requests
type OrderController struct {
	orders *services.OrderService
	errors *ErrorHandler
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.OrderService, errors *ErrorHandler) *OrderController {
	return &OrderController{orders: orders, errors: errors}
}

// CreateOrder places an order for the authenticated user
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	var in models.CreateOrderInput
	if err := decode(r, &in); err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	in.UserID = u.ID

	order, err := oc.orders.Create(r.Context(), in)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Commande créée avec succès", map[string]*models.Order{"order": order})
}

// GetOrders lists the orders of the authenticated user
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	orders, err := oc.orders.ListMine(r.Context(), u.ID)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.Order{"orders": orders})
}

// GetOrder returns one order of the authenticated user
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	order, err := oc.orders.Get(r.Context(), pathVar(r, "id"), u.ID)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]*models.Order{"order": order})
}

// CancelOrder cancels an order of the authenticated user and restores its stock
func (oc *OrderController) CancelOrder(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	order, err := oc.orders.Cancel(r.Context(), pathVar(r, "id"), u.ID)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Commande annulée avec succès", map[string]*models.Order{"order": order})
}

// GetAllOrders lists every order (admin only)
func (oc *OrderController) GetAllOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := oc.orders.ListAll(r.Context(), models.OrderFilter{
		Status:        models.OrderStatus(q.Get("status")),
		PaymentStatus: models.PaymentStatus(q.Get("paymentStatus")),
		Page:          queryInt(r, "page", 1),
		Limit:         queryInt(r, "limit", services.DefaultOrdersLimit),
	})
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", page)
}

// GetOrderAdmin returns any order with its customer (admin only)
func (oc *OrderController) GetOrderAdmin(w http.ResponseWriter, r *http.Request) {
	order, err := oc.orders.GetAdmin(r.Context(), pathVar(r, "id"))
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]*models.Order{"order": order})
}

// UpdateOrderStatus moves an order to a new status (admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var upd models.StatusUpdate
	if err := decode(r, &upd); err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	order, err := oc.orders.UpdateStatus(r.Context(), pathVar(r, "id"), upd)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Statut de commande mis à jour", map[string]*models.Order{"order": order})
}

// UpdateOrderPaymentStatus records the payment outcome of an order (admin only)
func (oc *OrderController) UpdateOrderPaymentStatus(w http.ResponseWriter, r *http.Request) {
	var upd models.PaymentUpdate
	if err := decode(r, &upd); err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	order, err := oc.orders.UpdatePayment(r.Context(), pathVar(r, "id"), upd)
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Statut de paiement mis à jour", map[string]*models.Order{"order": order})
}

// GetOrderStats returns the dashboard summary (admin only)
func (oc *OrderController) GetOrderStats(w http.ResponseWriter, r *http.Request) {
	stats, err := oc.orders.Stats(r.Context())
	if err != nil {
		oc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", stats)
}
