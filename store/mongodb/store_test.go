package mongodb

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"luxvision/models"
)

// newTestStore connects to the replica set named by MONGO_URI and returns a
// store on a fresh database dropped at cleanup. Transactions need a replica
// set, so the tests are skipped without one.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}

	ctx := context.Background()
	name := "luxvision_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	s, err := Connect(ctx, uri, name, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.db.Drop(context.Background())
		_ = s.Close()
	})
	require.NoError(t, s.EnsureIndexes(ctx))
	return s
}

func seedUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", FirstName: "Jean", LastName: "Dupont", Role: models.RoleCustomer}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func seedProduct(t *testing.T, s *Store, slug string, stock int) *models.Product {
	t.Helper()
	ctx := context.Background()
	cat, err := s.FindCategoryBySlug(ctx, "optical")
	if err != nil {
		cat = &models.Category{Name: "Optical", Slug: "optical"}
		require.NoError(t, s.CreateCategory(ctx, cat))
	}
	p := &models.Product{
		Name: slug, Slug: slug, Brand: "LuxVision", Price: 95000, CategoryID: cat.ID,
		Gender: models.GenderUnisex, Stock: stock, IsActive: true,
	}
	require.NoError(t, s.CreateProduct(ctx, p))
	return p
}

func newOrder(u *models.User, number string, p *models.Product, qty int) *models.Order {
	subtotal := p.Price * int64(qty)
	return &models.Order{
		OrderNumber:     number,
		UserID:          u.ID,
		Status:          models.OrderPending,
		PaymentStatus:   models.PaymentPending,
		PaymentMethod:   models.PaymentCashOnDelivery,
		Subtotal:        subtotal,
		ShippingCost:    5000,
		TotalAmount:     subtotal + 5000,
		ShippingAddress: models.ShippingAddress{FirstName: "Jean", LastName: "Dupont", Phone: "06", Address: "1 rue", City: "Pointe-Noire", Country: "Congo"},
		Items: []models.OrderItem{
			{ProductID: p.ID, ProductName: p.Name, Price: p.Price, Quantity: qty, Subtotal: subtotal},
		},
	}
}

func stockOf(t *testing.T, s *Store, id string) int {
	t.Helper()
	p, err := s.FindProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func TestCreateAndCancelOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "buyer@example.com")
	p := seedProduct(t, s, "classic-round", 12)

	o := newOrder(u, "LUX-1", p, 2)
	require.NoError(t, s.CreateOrder(ctx, o))
	require.Equal(t, 10, stockOf(t, s, p.ID))

	err := s.CreateOrder(ctx, newOrder(u, "LUX-2", p, 20))
	require.ErrorIs(t, err, models.ErrInsufficientStock)
	require.Equal(t, 10, stockOf(t, s, p.ID))
	_, total, err := s.ListOrders(ctx, models.OrderFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	err = s.CreateOrder(ctx, newOrder(u, "LUX-1", p, 1))
	require.ErrorIs(t, err, models.ErrDuplicateOrderNumber)
	require.Equal(t, 10, stockOf(t, s, p.ID))

	cancelled, err := s.CancelOrder(ctx, o.ID, nil)
	require.NoError(t, err)
	require.Equal(t, models.OrderCancelled, cancelled.Status)
	require.Equal(t, 12, stockOf(t, s, p.ID))

	_, err = s.CancelOrder(ctx, o.ID, nil)
	require.ErrorIs(t, err, models.ErrNotCancellable)
	_, err = s.UpdateOrderStatus(ctx, o.ID, models.StatusUpdate{Status: models.OrderPending})
	require.ErrorIs(t, err, models.ErrAlreadyCancelled)
	require.Equal(t, 12, stockOf(t, s, p.ID))

	_, err = s.CancelOrder(ctx, "missing", nil)
	require.Equal(t, models.ENotFound, models.ErrorCode(err))
}

func TestSetDefaultAddress(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u := seedUser(t, s, "client@example.com")

	home := &models.Address{UserID: u.ID, FirstName: "Jean", LastName: "Dupont", Phone: "06", Address: "1 rue", City: "Pointe-Noire", Country: "Congo", IsDefault: true}
	office := &models.Address{UserID: u.ID, FirstName: "Jean", LastName: "Dupont", Phone: "06", Address: "2 avenue", City: "Brazzaville", Country: "Congo", IsDefault: true}
	require.NoError(t, s.CreateAddress(ctx, home))
	require.NoError(t, s.CreateAddress(ctx, office))

	defaults := func() []string {
		list, err := s.ListAddresses(ctx, u.ID)
		require.NoError(t, err)
		var ids []string
		for _, a := range list {
			if a.IsDefault {
				ids = append(ids, a.ID)
			}
		}
		return ids
	}
	require.Equal(t, []string{office.ID}, defaults())

	got, err := s.SetDefaultAddress(ctx, u.ID, home.ID)
	require.NoError(t, err)
	require.True(t, got.IsDefault)
	require.Equal(t, []string{home.ID}, defaults())

	_, err = s.SetDefaultAddress(ctx, "someone-else", office.ID)
	require.Equal(t, models.ENotFound, models.ErrorCode(err))
	require.Equal(t, []string{home.ID}, defaults())
}
