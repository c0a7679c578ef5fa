package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"luxvision/models"
	"luxvision/utils"
)

// Order defaults.
const (
	DefaultShippingCost = 5000
	DefaultOrdersLimit  = 20
	RecentOrdersCount   = 10

	orderNumberAttempts = 5
	mailTimeout         = 30 * time.Second
)

var (
	errOrderNotFound  = &models.Error{Code: models.ENotFound, Msg: "Commande non trouvée"}
	errNotOrderOwner  = &models.Error{Code: models.EForbidden, Msg: "Non autorisé"}
	errAlreadyClosed  = &models.Error{Code: models.EInvalid, Msg: "Cette commande est déjà annulée"}
	errMissingProduct = &models.Error{Code: models.ENotFound, Msg: "Un ou plusieurs produits sont introuvables"}
)

// OrdersStore is the storage used by OrderService.
type OrdersStore interface {
	OrderStore
	ProductStore
	CartStore
	UserStore
}

// OrderService places and manages orders.
type OrderService struct {
	store    OrdersStore
	products *ProductService
	emails   *utils.EmailService
	feed     *Feed
	shipping int64
	log      *zap.Logger

	now  func() time.Time
	rand func(n int) int

	wg sync.WaitGroup
}

// OrderServiceConfig wires the collaborators of an OrderService. Products,
// Emails and Feed are optional.
type OrderServiceConfig struct {
	Store        OrdersStore
	Products     *ProductService
	Emails       *utils.EmailService
	Feed         *Feed
	ShippingCost int64
	Logger       *zap.Logger
}

// NewOrderService returns an OrderService.
func NewOrderService(c OrderServiceConfig) *OrderService {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var mu sync.Mutex
	return &OrderService{
		store:    c.Store,
		products: c.Products,
		emails:   c.Emails,
		feed:     c.Feed,
		shipping: c.ShippingCost,
		log:      c.Logger,
		now:      time.Now,
		rand: func(n int) int {
			mu.Lock()
			defer mu.Unlock()
			return rnd.Intn(n)
		},
	}
}

// Wait blocks until pending notifications are sent.
func (s *OrderService) Wait() {
	s.wg.Wait()
}

// orderNumber formats LUX- followed by the last 8 digits of the millisecond
// clock and a 3 digit random suffix.
func (s *OrderService) orderNumber() string {
	ms := strconv.FormatInt(s.now().UnixMilli(), 10)
	if len(ms) > 8 {
		ms = ms[len(ms)-8:]
	}
	return fmt.Sprintf("LUX-%s%03d", ms, s.rand(1000))
}

// mergeLines sums the quantities of repeated products, keeping first-seen order.
func mergeLines(lines []models.OrderLine) []models.OrderLine {
	merged := make([]models.OrderLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			merged[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(merged)
		merged = append(merged, l)
	}
	return merged
}

func validateOrderInput(in models.CreateOrderInput) error {
	const op = "services.CreateOrder"

	if len(in.Items) == 0 {
		return models.Invalid(op, "Articles de commande requis")
	}
	for _, l := range in.Items {
		if l.ProductID == "" {
			return models.Invalid(op, "ID du produit requis")
		}
		if l.Quantity < 1 {
			return models.Invalid(op, "La quantité doit être au moins 1")
		}
	}
	if in.ShippingAddress.Missing() != "" {
		return models.Invalid(op, "Adresse de livraison requise")
	}
	if in.PaymentMethod == "" {
		return models.Invalid(op, "Méthode de paiement requise")
	}
	if !in.PaymentMethod.Valid() {
		return models.Invalid(op, "Méthode de paiement invalide")
	}
	return nil
}

// Create places an order. Stock is reserved atomically with the insert:
// either every line is decremented and the order exists, or nothing changed.
func (s *OrderService) Create(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	const op = "services.CreateOrder"

	if err := validateOrderInput(in); err != nil {
		return nil, err
	}
	lines := mergeLines(in.Items)

	ids := make([]string, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}
	found, err := s.store.FindProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*models.Product, len(found))
	for i := range found {
		if found[i].IsActive {
			byID[found[i].ID] = &found[i]
		}
	}
	if len(byID) != len(lines) {
		return nil, errMissingProduct
	}

	o := &models.Order{
		UserID:          in.UserID,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   in.PaymentMethod,
		ShippingCost:    s.shipping,
		ShippingAddress: in.ShippingAddress,
		CustomerNote:    in.CustomerNote,
	}
	if o.ShippingAddress.Country == "" {
		o.ShippingAddress.Country = "Congo"
	}
	for _, l := range lines {
		p := byID[l.ProductID]
		// checked again by the conditional decrement in the store
		if p.Stock < l.Quantity {
			return nil, &models.Error{
				Code: models.EConflict,
				Op:   op,
				Msg:  fmt.Sprintf("Stock insuffisant pour %s. Disponible: %d, demandé: %d", p.Name, p.Stock, l.Quantity),
			}
		}
		sub := p.Price * int64(l.Quantity)
		o.Items = append(o.Items, models.OrderItem{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.FirstImage(),
			Price:        p.Price,
			Quantity:     l.Quantity,
			Subtotal:     sub,
		})
		o.Subtotal += sub
	}
	o.TotalAmount = o.Subtotal + o.Tax + o.ShippingCost

	for attempt := 1; ; attempt++ {
		o.ID = ""
		o.OrderNumber = s.orderNumber()
		err = s.store.CreateOrder(ctx, o)
		if !errors.Is(err, models.ErrDuplicateOrderNumber) || attempt == orderNumberAttempts {
			break
		}
		s.log.Warn("Order number collision, retrying", zap.String("order_number", o.OrderNumber), zap.Int("attempt", attempt))
	}
	if err != nil {
		return nil, err
	}

	s.log.Info("Order created",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total", o.TotalAmount))

	if err := s.store.DeleteCartItemsByProducts(ctx, o.UserID, ids); err != nil {
		s.log.Error("Failed to clear purchased cart lines", zap.String("order_id", o.ID), zap.Error(err))
	}
	s.afterChange(EventOrderCreated, o, true)
	return o, nil
}

// afterChange refreshes the catalog cache when stock moved, publishes the
// event and mails the customer in the background.
func (s *OrderService) afterChange(event string, o *models.Order, stockMoved bool) {
	if stockMoved && s.products != nil {
		s.products.Invalidate()
	}
	s.feed.Publish(OrderEvent{Type: event, Order: o})

	if s.emails == nil {
		return
	}
	snapshot := *o
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		u, err := s.store.FindUserByID(ctx, snapshot.UserID)
		if err != nil {
			s.log.Error("Failed to load order recipient", zap.String("order_id", snapshot.ID), zap.Error(err))
			return
		}
		switch event {
		case EventOrderCreated:
			err = s.emails.SendOrderConfirmationEmail(ctx, u.Email, &snapshot)
		case EventOrderPayment:
			err = s.emails.SendPaymentStatusEmail(ctx, u.Email, &snapshot)
		default:
			err = s.emails.SendOrderStatusEmail(ctx, u.Email, &snapshot)
		}
		if err != nil {
			s.log.Error("Failed to send order email", zap.String("order_id", snapshot.ID), zap.String("event", event), zap.Error(err))
		}
	}()
}

// ListMine returns the orders of userID, newest first.
func (s *OrderService) ListMine(ctx context.Context, userID string) ([]models.Order, error) {
	return s.store.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) find(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.store.FindOrder(ctx, id)
	if models.ErrorCode(err) == models.ENotFound {
		return nil, errOrderNotFound
	}
	return o, err
}

// Get returns an order of userID. Orders of other users are reported as not found.
func (s *OrderService) Get(ctx context.Context, id, userID string) (*models.Order, error) {
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, errOrderNotFound
	}
	return o, nil
}

// Cancel cancels an order of userID and restores its stock.
func (s *OrderService) Cancel(ctx context.Context, id, userID string) (*models.Order, error) {
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, errNotOrderOwner
	}
	return s.cancel(ctx, o, nil)
}

func (s *OrderService) cancel(ctx context.Context, o *models.Order, adminNote *string) (*models.Order, error) {
	if o.Status == models.OrderCancelled {
		return nil, errAlreadyClosed
	}
	if !o.Status.Cancellable() {
		return nil, models.ErrNotCancellable
	}

	out, err := s.store.CancelOrder(ctx, o.ID, adminNote)
	if err != nil {
		if errors.Is(err, models.ErrNotCancellable) {
			// lost a race against a concurrent transition
			return nil, models.ErrNotCancellable
		}
		return nil, err
	}
	s.log.Info("Order cancelled", zap.String("order_id", out.ID), zap.String("order_number", out.OrderNumber))
	s.afterChange(EventOrderCancelled, out, true)
	return out, nil
}

// attachCustomers sets the customer summary of each order.
func (s *OrderService) attachCustomers(ctx context.Context, orders []models.Order) error {
	seen := make(map[string]*models.UserSummary)
	for i := range orders {
		id := orders[i].UserID
		sum, ok := seen[id]
		if !ok {
			u, err := s.store.FindUserByID(ctx, id)
			switch {
			case err == nil:
				sum = &models.UserSummary{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, Phone: u.Phone}
			case models.ErrorCode(err) != models.ENotFound:
				return err
			}
			seen[id] = sum
		}
		orders[i].User = sum
	}
	return nil
}

// ListAll returns a page of every order for the back-office.
func (s *OrderService) ListAll(ctx context.Context, f models.OrderFilter) (*models.OrderPage, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, models.Invalid("services.ListOrders", "Statut invalide")
	}
	if f.PaymentStatus != "" && !f.PaymentStatus.Valid() {
		return nil, models.Invalid("services.ListOrders", "Statut de paiement invalide")
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultOrdersLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}

	orders, total, err := s.store.ListOrders(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.attachCustomers(ctx, orders); err != nil {
		return nil, err
	}
	return &models.OrderPage{Orders: orders, Pagination: models.NewPagination(f.Page, f.Limit, total)}, nil
}

// GetAdmin returns any order with its customer.
func (s *OrderService) GetAdmin(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []models.Order{*o}
	if err := s.attachCustomers(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// UpdateStatus moves an order to a new fulfilment state. Cancelling goes
// through the same stock-restoring path as a customer cancellation.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, upd models.StatusUpdate) (*models.Order, error) {
	const op = "services.UpdateOrderStatus"

	if upd.Status == "" {
		return nil, models.Invalid(op, "Statut requis")
	}
	if !upd.Status.Valid() {
		return nil, models.Invalid(op, "Statut invalide")
	}

	if upd.Status == models.OrderCancelled {
		o, err := s.find(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.cancel(ctx, o, upd.AdminNote)
	}

	o, err := s.store.UpdateOrderStatus(ctx, id, upd)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errOrderNotFound
		}
		return nil, err
	}
	s.log.Info("Order status updated", zap.String("order_id", o.ID), zap.String("status", string(o.Status)))
	s.afterChange(EventOrderStatus, o, false)
	return o, nil
}

// UpdatePayment records the payment outcome of an order.
func (s *OrderService) UpdatePayment(ctx context.Context, id string, upd models.PaymentUpdate) (*models.Order, error) {
	const op = "services.UpdatePaymentStatus"

	if upd.PaymentStatus == "" {
		return nil, models.Invalid(op, "Statut de paiement requis")
	}
	if !upd.PaymentStatus.Valid() {
		return nil, models.Invalid(op, "Statut de paiement invalide")
	}

	o, err := s.store.UpdateOrderPayment(ctx, id, upd)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errOrderNotFound
		}
		return nil, err
	}
	s.log.Info("Order payment updated", zap.String("order_id", o.ID), zap.String("payment_status", string(o.PaymentStatus)))
	s.afterChange(EventOrderPayment, o, false)
	return o, nil
}

// Stats returns the dashboard summary.
func (s *OrderService) Stats(ctx context.Context) (*models.OrderStats, error) {
	stats, err := s.store.OrderStats(ctx, RecentOrdersCount)
	if err != nil {
		return nil, err
	}
	if err := s.attachCustomers(ctx, stats.RecentOrders); err != nil {
		return nil, err
	}
	return stats, nil
}
