package sqlite

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"luxvision/models"
)

var closedStatuses = []string{
	string(models.OrderShipped),
	string(models.OrderDelivered),
	string(models.OrderCancelled),
}

func (s *SqlStore) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	t := now()
	o.CreatedAt, o.UpdatedAt = t, t

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		// the conditional decrement is the authoritative stock check
		for _, it := range o.Items {
			n, err := s.exec(ctx, tx, sq.Update("products").
				Set("stock", sq.Expr("stock - ?", it.Quantity)).
				Set("updated_at", t).
				Where(sq.Eq{"id": it.ProductID, "is_active": true}).
				Where(sq.GtOrEq{"stock": it.Quantity}))
			if err != nil {
				return err
			}
			if n == 0 {
				return models.ErrInsufficientStock
			}
		}

		q := sq.Insert("orders").
			Columns("id", "order_number", "user_id", "status", "payment_status", "payment_method",
				"subtotal", "tax", "shipping_cost", "total_amount", "shipping_address", "customer_note",
				"admin_note", "transaction_id", "created_at", "updated_at").
			Values(o.ID, o.OrderNumber, o.UserID, o.Status, o.PaymentStatus, o.PaymentMethod,
				o.Subtotal, o.Tax, o.ShippingCost, o.TotalAmount, o.ShippingAddress, o.CustomerNote,
				o.AdminNote, o.TransactionID, o.CreatedAt, o.UpdatedAt)
		if _, err := s.exec(ctx, tx, q); err != nil {
			if uniqueIndexViolated(err, "orders.order_number") {
				return &models.Error{Code: models.EConflict, Msg: models.ErrDuplicateOrderNumber.Msg, Err: models.ErrDuplicateOrderNumber}
			}
			return err
		}

		for i := range o.Items {
			it := &o.Items[i]
			if it.ID == "" {
				it.ID = newID()
			}
			it.OrderID = o.ID
			q := sq.Insert("order_items").
				Columns("id", "order_id", "product_id", "product_name", "product_image", "price", "quantity", "subtotal").
				Values(it.ID, it.OrderID, it.ProductID, it.ProductName, it.ProductImage, it.Price, it.Quantity, it.Subtotal)
			if _, err := s.exec(ctx, tx, q); err != nil {
				return err
			}
		}
		return nil
	})
	return wrapErr("sqlite.CreateOrder", err)
}

func (s *SqlStore) attachItems(ctx context.Context, q sqlx.QueryerContext, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
	}

	var items []models.OrderItem
	if err := s.sel(ctx, q, &items, sq.Select("*").From("order_items").Where(sq.Eq{"order_id": ids}).OrderBy("rowid")); err != nil {
		return err
	}

	byOrder := make(map[string][]models.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return nil
}

func (s *SqlStore) findOrder(ctx context.Context, q sqlx.QueryerContext, id string) (*models.Order, error) {
	var o models.Order
	if err := s.get(ctx, q, &o, sq.Select("*").From("orders").Where(sq.Eq{"id": id})); err != nil {
		return nil, err
	}
	orders := []models.Order{o}
	if err := s.attachItems(ctx, q, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

func (s *SqlStore) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.findOrder(ctx, s.DB, id)
	if err != nil {
		return nil, wrapErr("sqlite.FindOrder", err)
	}
	return o, nil
}

func (s *SqlStore) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders := []models.Order{}
	q := sq.Select("*").From("orders").Where(sq.Eq{"user_id": userID}).OrderBy("created_at DESC", "id ASC")
	if err := s.sel(ctx, s.DB, &orders, q); err != nil {
		return nil, wrapErr("sqlite.ListOrdersByUser", err)
	}
	if err := s.attachItems(ctx, s.DB, orders); err != nil {
		return nil, wrapErr("sqlite.ListOrdersByUser", err)
	}
	return orders, nil
}

func (s *SqlStore) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	conds := sq.And{}
	if f.Status != "" {
		conds = append(conds, sq.Eq{"status": f.Status})
	}
	if f.PaymentStatus != "" {
		conds = append(conds, sq.Eq{"payment_status": f.PaymentStatus})
	}

	var total int
	if err := s.get(ctx, s.DB, &total, sq.Select("COUNT(*)").From("orders").Where(conds)); err != nil {
		return nil, 0, wrapErr("sqlite.ListOrders", err)
	}

	q := sq.Select("*").From("orders").Where(conds).OrderBy("created_at DESC", "id ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset()))
	}
	orders := []models.Order{}
	if err := s.sel(ctx, s.DB, &orders, q); err != nil {
		return nil, 0, wrapErr("sqlite.ListOrders", err)
	}
	if err := s.attachItems(ctx, s.DB, orders); err != nil {
		return nil, 0, wrapErr("sqlite.ListOrders", err)
	}
	return orders, total, nil
}

func (s *SqlStore) CancelOrder(ctx context.Context, id string, adminNote *string) (*models.Order, error) {
	var out *models.Order
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		t := now()
		q := sq.Update("orders").
			Set("status", models.OrderCancelled).
			Set("cancelled_at", t).
			Set("updated_at", t).
			Where(sq.Eq{"id": id}).
			Where(sq.NotEq{"status": closedStatuses})
		if adminNote != nil {
			q = q.Set("admin_note", *adminNote)
		}

		// only the transaction that flips the status restores stock
		n, err := s.exec(ctx, tx, q)
		if err != nil {
			return err
		}
		if n == 0 {
			var exists int
			if err := s.get(ctx, tx, &exists, sq.Select("COUNT(*)").From("orders").Where(sq.Eq{"id": id})); err != nil {
				return err
			}
			if exists == 0 {
				return models.ErrNotFound
			}
			return models.ErrNotCancellable
		}

		var items []models.OrderItem
		if err := s.sel(ctx, tx, &items, sq.Select("*").From("order_items").Where(sq.Eq{"order_id": id})); err != nil {
			return err
		}
		for _, it := range items {
			if _, err := s.exec(ctx, tx, sq.Update("products").
				Set("stock", sq.Expr("stock + ?", it.Quantity)).
				Set("updated_at", t).
				Where(sq.Eq{"id": it.ProductID})); err != nil {
				return err
			}
		}

		out, err = s.findOrder(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, wrapErr("sqlite.CancelOrder", err)
	}
	return out, nil
}

func (s *SqlStore) UpdateOrderStatus(ctx context.Context, id string, upd models.StatusUpdate) (*models.Order, error) {
	t := now()
	// a cancelled order already gave its stock back and stays closed
	q := sq.Update("orders").Set("status", upd.Status).Set("updated_at", t).
		Where(sq.Eq{"id": id}).
		Where(sq.NotEq{"status": models.OrderCancelled})
	switch upd.Status {
	case models.OrderShipped:
		q = q.Set("shipped_at", t)
	case models.OrderDelivered:
		q = q.Set("delivered_at", t)
	}
	if upd.AdminNote != nil {
		q = q.Set("admin_note", *upd.AdminNote)
	}

	n, err := s.exec(ctx, s.DB, q)
	if err != nil {
		return nil, wrapErr("sqlite.UpdateOrderStatus", err)
	}
	if n == 0 {
		if _, err := s.FindOrder(ctx, id); err != nil {
			return nil, err
		}
		return nil, wrapErr("sqlite.UpdateOrderStatus", models.ErrAlreadyCancelled)
	}
	return s.FindOrder(ctx, id)
}

func (s *SqlStore) UpdateOrderPayment(ctx context.Context, id string, upd models.PaymentUpdate) (*models.Order, error) {
	t := now()
	q := sq.Update("orders").Set("payment_status", upd.PaymentStatus).Set("updated_at", t).Where(sq.Eq{"id": id})
	if upd.TransactionID != nil {
		q = q.Set("transaction_id", *upd.TransactionID)
	}
	if upd.PaymentStatus == models.PaymentPaid {
		q = q.Set("paid_at", t)
	}

	n, err := s.exec(ctx, s.DB, q)
	if err != nil {
		return nil, wrapErr("sqlite.UpdateOrderPayment", err)
	}
	if n == 0 {
		return nil, wrapErr("sqlite.UpdateOrderPayment", models.ErrNotFound)
	}
	return s.FindOrder(ctx, id)
}

func (s *SqlStore) OrderStats(ctx context.Context, recent int) (*models.OrderStats, error) {
	stats := &models.OrderStats{}
	counts := []struct {
		dest *int
		cond sq.Sqlizer
	}{
		{&stats.TotalOrders, sq.And{}},
		{&stats.PendingOrders, sq.Eq{"status": []string{
			string(models.OrderPending), string(models.OrderConfirmed), string(models.OrderProcessing),
		}}},
		{&stats.CompletedOrders, sq.Eq{"status": models.OrderDelivered}},
	}
	for _, c := range counts {
		if err := s.get(ctx, s.DB, c.dest, sq.Select("COUNT(*)").From("orders").Where(c.cond)); err != nil {
			return nil, wrapErr("sqlite.OrderStats", err)
		}
	}

	q := sq.Select("COALESCE(SUM(total_amount), 0)").From("orders").Where(sq.Eq{"payment_status": models.PaymentPaid})
	if err := s.get(ctx, s.DB, &stats.TotalRevenue, q); err != nil {
		return nil, wrapErr("sqlite.OrderStats", err)
	}

	stats.RecentOrders = []models.Order{}
	rq := sq.Select("*").From("orders").OrderBy("created_at DESC", "id ASC").Limit(uint64(recent))
	if err := s.sel(ctx, s.DB, &stats.RecentOrders, rq); err != nil {
		return nil, wrapErr("sqlite.OrderStats", err)
	}
	if err := s.attachItems(ctx, s.DB, stats.RecentOrders); err != nil {
		return nil, wrapErr("sqlite.OrderStats", err)
	}
	return stats, nil
}

func (s *SqlStore) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	q := sq.Select("COUNT(*)").
		From("order_items oi").
		Join("orders o ON o.id = oi.order_id").
		Where(sq.Eq{"o.user_id": userID, "o.status": models.OrderDelivered, "oi.product_id": productID})
	if err := s.get(ctx, s.DB, &n, q); err != nil {
		return false, wrapErr("sqlite.HasDeliveredProduct", err)
	}
	return n > 0, nil
}
