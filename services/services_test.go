package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"luxvision/models"
	"luxvision/store/sqlite"
)

type fixture struct {
	store      *sqlite.SqlStore
	optical    *models.Category
	sunglasses *models.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{store: sqlite.NewTestStore(t)}
	f.optical = &models.Category{Name: "Lunettes de vue", Slug: "optical"}
	require.NoError(t, f.store.CreateCategory(ctx, f.optical))
	f.sunglasses = &models.Category{Name: "Lunettes de soleil", Slug: "sunglasses"}
	require.NoError(t, f.store.CreateCategory(ctx, f.sunglasses))
	return f
}

func (f *fixture) product(t *testing.T, slug string, price int64, stock int, opts ...func(*models.Product)) *models.Product {
	t.Helper()
	p := &models.Product{
		Name:       slug,
		Slug:       slug,
		Brand:      "LuxVision",
		Price:      price,
		CategoryID: f.optical.ID,
		Gender:     models.GenderUnisex,
		Stock:      stock,
		Images:     models.StringList{"/img/" + slug + ".jpg"},
		IsActive:   true,
	}
	for _, o := range opts {
		o(p)
	}
	require.NoError(t, f.store.CreateProduct(context.Background(), p))
	return p
}

func (f *fixture) user(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Password: "x", FirstName: "Jean", LastName: "Dupont", Role: models.RoleCustomer}
	require.NoError(t, f.store.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) stock(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.FindProductByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

var testAddress = models.ShippingAddress{
	FirstName: "Jean",
	LastName:  "Dupont",
	Phone:     "+242 06 000 00 00",
	Address:   "12 avenue de l'Indépendance",
	City:      "Pointe-Noire",
	State:     "Kouilou",
	ZipCode:   "00242",
	Country:   "Congo",
}

func requireCode(t *testing.T, code string, err error) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, models.ErrorCode(err), "error: %v", err)
}
