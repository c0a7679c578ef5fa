package mongodb

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxvision/models"
)

var closedStatuses = bson.A{models.OrderShipped, models.OrderDelivered, models.OrderCancelled}

func (s *Store) CreateOrder(ctx context.Context, o *models.Order) error {
	if o.ID == "" {
		o.ID = newID()
	}
	t := now()
	o.CreatedAt, o.UpdatedAt = t, t
	for i := range o.Items {
		if o.Items[i].ID == "" {
			o.Items[i].ID = newID()
		}
		o.Items[i].OrderID = o.ID
	}

	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		for _, it := range o.Items {
			res, err := s.col(colProducts).UpdateOne(sc,
				bson.M{"_id": it.ProductID, "is_active": true, "stock": bson.M{"$gte": it.Quantity}},
				bson.M{"$inc": bson.M{"stock": -it.Quantity}, "$set": bson.M{"updated_at": t}})
			if err != nil {
				return err
			}
			if res.MatchedCount == 0 {
				return models.ErrInsufficientStock
			}
		}

		if _, err := s.col(colOrders).InsertOne(sc, o); err != nil {
			if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), "order_number") {
				return &models.Error{Code: models.EConflict, Msg: models.ErrDuplicateOrderNumber.Msg, Err: models.ErrDuplicateOrderNumber}
			}
			return err
		}
		return nil
	})
	return wrapErr("mongodb.CreateOrder", err)
}

func withOrderIDs(orders []models.Order) []models.Order {
	for i := range orders {
		for j := range orders[i].Items {
			orders[i].Items[j].OrderID = orders[i].ID
		}
		if orders[i].Items == nil {
			orders[i].Items = []models.OrderItem{}
		}
	}
	return orders
}

func (s *Store) FindOrder(ctx context.Context, id string) (*models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var o models.Order
	if err := s.col(colOrders).FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, wrapErr("mongodb.FindOrder", err)
	}
	return &withOrderIDs([]models.Order{o})[0], nil
}

var newestOrdersFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}

func (s *Store) ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	orders, err := findAll[models.Order](ctx, s.col(colOrders), bson.M{"user_id": userID}, options.Find().SetSort(newestOrdersFirst))
	if err != nil {
		return nil, wrapErr("mongodb.ListOrdersByUser", err)
	}
	return withOrderIDs(orders), nil
}

// orderFilter builds the admin listing query for f.
func orderFilter(f models.OrderFilter) bson.M {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.PaymentStatus != "" {
		filter["payment_status"] = f.PaymentStatus
	}
	return filter
}

func (s *Store) ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	filter := orderFilter(f)
	total, err := s.col(colOrders).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr("mongodb.ListOrders", err)
	}

	opts := options.Find().SetSort(newestOrdersFirst)
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit)).SetSkip(int64(f.Offset()))
	}
	orders, err := findAll[models.Order](ctx, s.col(colOrders), filter, opts)
	if err != nil {
		return nil, 0, wrapErr("mongodb.ListOrders", err)
	}
	return withOrderIDs(orders), int(total), nil
}

func (s *Store) CancelOrder(ctx context.Context, id string, adminNote *string) (*models.Order, error) {
	var out models.Order
	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		t := now()
		set := bson.M{"status": models.OrderCancelled, "cancelled_at": t, "updated_at": t}
		setIf(set, "admin_note", adminNote)

		// only the transaction that flips the status restores stock
		opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
		err := s.col(colOrders).FindOneAndUpdate(sc,
			bson.M{"_id": id, "status": bson.M{"$nin": closedStatuses}},
			bson.M{"$set": set}, opts).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			n, cerr := s.col(colOrders).CountDocuments(sc, bson.M{"_id": id})
			if cerr != nil {
				return cerr
			}
			if n == 0 {
				return models.ErrNotFound
			}
			return models.ErrNotCancellable
		}
		if err != nil {
			return err
		}

		for _, it := range out.Items {
			if _, err := s.col(colProducts).UpdateOne(sc,
				bson.M{"_id": it.ProductID},
				bson.M{"$inc": bson.M{"stock": it.Quantity}, "$set": bson.M{"updated_at": t}}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, wrapErr("mongodb.CancelOrder", err)
	}
	return &withOrderIDs([]models.Order{out})[0], nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, upd models.StatusUpdate) (*models.Order, error) {
	t := now()
	set := bson.M{"status": upd.Status, "updated_at": t}
	switch upd.Status {
	case models.OrderShipped:
		set["shipped_at"] = t
	case models.OrderDelivered:
		set["delivered_at"] = t
	}
	setIf(set, "admin_note", upd.AdminNote)

	// a cancelled order already gave its stock back and stays closed
	uctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()
	res, err := s.col(colOrders).UpdateOne(uctx,
		bson.M{"_id": id, "status": bson.M{"$ne": models.OrderCancelled}},
		bson.M{"$set": set})
	if err != nil {
		return nil, wrapErr("mongodb.UpdateOrderStatus", err)
	}
	if res.MatchedCount == 0 {
		if _, err := s.FindOrder(ctx, id); err != nil {
			return nil, err
		}
		return nil, wrapErr("mongodb.UpdateOrderStatus", models.ErrAlreadyCancelled)
	}
	return s.FindOrder(ctx, id)
}

func (s *Store) UpdateOrderPayment(ctx context.Context, id string, upd models.PaymentUpdate) (*models.Order, error) {
	t := now()
	set := bson.M{"payment_status": upd.PaymentStatus, "updated_at": t}
	setIf(set, "transaction_id", upd.TransactionID)
	if upd.PaymentStatus == models.PaymentPaid {
		set["paid_at"] = t
	}

	if err := s.updateByID(ctx, colOrders, id, set); err != nil {
		return nil, wrapErr("mongodb.UpdateOrderPayment", err)
	}
	return s.FindOrder(ctx, id)
}

func (s *Store) OrderStats(ctx context.Context, recent int) (*models.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	orders := s.col(colOrders)
	stats := &models.OrderStats{}

	counts := []struct {
		dest   *int
		filter bson.M
	}{
		{&stats.TotalOrders, bson.M{}},
		{&stats.PendingOrders, bson.M{"status": bson.M{"$in": bson.A{models.OrderPending, models.OrderConfirmed, models.OrderProcessing}}}},
		{&stats.CompletedOrders, bson.M{"status": models.OrderDelivered}},
	}
	for _, c := range counts {
		n, err := orders.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, wrapErr("mongodb.OrderStats", err)
		}
		*c.dest = int(n)
	}

	cur, err := orders.Aggregate(ctx, bson.A{
		bson.M{"$match": bson.M{"payment_status": models.PaymentPaid}},
		bson.M{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$total_amount"}}},
	})
	if err != nil {
		return nil, wrapErr("mongodb.OrderStats", err)
	}
	var revenue []struct {
		Total int64 `bson:"total"`
	}
	if err := cur.All(ctx, &revenue); err != nil {
		return nil, wrapErr("mongodb.OrderStats", err)
	}
	if len(revenue) > 0 {
		stats.TotalRevenue = revenue[0].Total
	}

	recentOrders, err := findAll[models.Order](ctx, orders, bson.M{}, options.Find().SetSort(newestOrdersFirst).SetLimit(int64(recent)))
	if err != nil {
		return nil, wrapErr("mongodb.OrderStats", err)
	}
	stats.RecentOrders = withOrderIDs(recentOrders)
	return stats, nil
}

func (s *Store) HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	n, err := s.col(colOrders).CountDocuments(ctx, bson.M{
		"user_id":          userID,
		"status":           models.OrderDelivered,
		"items.product_id": productID,
	})
	if err != nil {
		return false, wrapErr("mongodb.HasDeliveredProduct", err)
	}
	return n > 0, nil
}
