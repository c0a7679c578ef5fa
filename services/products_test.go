package services

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap/zaptest"

	"luxvision/models"
)

func newProducts(t *testing.T, f *fixture) *ProductService {
	cache := NewCache(time.Minute, 0)
	t.Cleanup(cache.Close)
	return NewProductService(f.store, cache, zaptest.NewLogger(t))
}

func TestListProducts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	s := newProducts(t, f)

	f.product(t, "classic-round", 95000, 12)
	f.product(t, "cat-eye-elegance", 105000, 15, func(p *models.Product) { p.Gender = models.GenderWomen })
	f.product(t, "aviator-pro", 125000, 8, func(p *models.Product) { p.CategoryID = f.sunglasses.ID; p.IsFeatured = true })
	f.product(t, "hidden", 1000, 1, func(p *models.Product) { p.IsActive = false })

	page, err := s.List(ctx, models.ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, page.Products, 3)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 12, Total: 3, TotalPages: 1}, page.Pagination)

	page, err = s.List(ctx, models.ProductFilter{CategorySlug: "sunglasses"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "aviator-pro", page.Products[0].Slug)
	require.NotNil(t, page.Products[0].Category)
	assert.Equal(t, "sunglasses", page.Products[0].Category.Slug)

	page, err = s.List(ctx, models.ProductFilter{CategorySlug: "unknown"})
	require.NoError(t, err)
	assert.Empty(t, page.Products)

	page, err = s.List(ctx, models.ProductFilter{SortBy: models.SortByPrice, SortOrder: "asc", Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "aviator-pro", page.Products[0].Slug)
	assert.Equal(t, 2, page.Pagination.TotalPages)

	page, err = s.List(ctx, models.ProductFilter{Search: "CAT-EYE"})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)

	featured, err := s.Featured(ctx, 0)
	require.NoError(t, err)
	require.Len(t, featured, 1)
	assert.Equal(t, "aviator-pro", featured[0].Slug)

	_, err = s.List(ctx, models.ProductFilter{Gender: "ALIENS"})
	requireCode(t, models.EInvalid, err)
}

func TestProductDetailRatingAndReviews(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	s := newProducts(t, f)

	p := f.product(t, "classic-round", 95000, 12)
	for i, rating := range []int{5, 4, 4} {
		u := f.user(t, string(rune('a'+i))+"@example.com")
		require.NoError(t, f.store.CreateReview(ctx, &models.Review{ProductID: p.ID, UserID: u.ID, Rating: rating, Comment: "Bien"}))
	}

	got, err := s.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.3, got.Rating)
	assert.Equal(t, 3, got.ReviewsCount)
	require.Len(t, got.Reviews, 3)
	require.NotNil(t, got.Reviews[0].User)
	assert.Equal(t, "Jean", got.Reviews[0].User.FirstName)
	assert.Empty(t, got.Reviews[0].User.Email)

	bySlug, err := s.BySlug(ctx, "classic-round")
	require.NoError(t, err)
	assert.Equal(t, p.ID, bySlug.ID)

	_, err = s.ByID(ctx, "missing")
	requireCode(t, models.ENotFound, err)
	assert.Equal(t, "Produit non trouvé", models.ErrorMessage(err))
}

func TestSimilarProducts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	s := newProducts(t, f)

	base := f.product(t, "classic-round", 95000, 12, func(p *models.Product) { p.Gender = models.GenderMen })
	f.product(t, "same-category", 1, 1, func(p *models.Product) { p.Gender = models.GenderWomen })
	f.product(t, "same-gender", 1, 1, func(p *models.Product) { p.CategoryID = f.sunglasses.ID; p.Gender = models.GenderMen })
	f.product(t, "unrelated", 1, 1, func(p *models.Product) { p.CategoryID = f.sunglasses.ID; p.Gender = models.GenderKids })

	similar, err := s.Similar(ctx, base.ID, 0)
	require.NoError(t, err)
	slugs := []string{}
	for _, p := range similar {
		slugs = append(slugs, p.Slug)
	}
	assert.ElementsMatch(t, []string{"same-category", "same-gender"}, slugs)

	similar, err = s.Similar(ctx, "missing", 4)
	require.NoError(t, err)
	assert.Empty(t, similar)
}

func TestProductAdmin(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	s := newProducts(t, f)

	_, err := s.Create(ctx, &models.Product{Name: "X", Slug: "x", Price: -1, CategoryID: f.optical.ID})
	requireCode(t, models.EInvalid, err)
	_, err = s.Create(ctx, &models.Product{Name: "X", Slug: "x", Price: 1, CategoryID: "missing"})
	requireCode(t, models.EInvalid, err)

	p, err := s.Create(ctx, &models.Product{Name: "Urban Square", Slug: "urban-square", Price: 85000, Stock: 20, CategoryID: f.optical.ID})
	require.NoError(t, err)
	assert.True(t, p.IsActive)
	assert.Equal(t, models.GenderUnisex, p.Gender)

	_, err = s.Create(ctx, &models.Product{Name: "Other", Slug: "urban-square", Price: 1, CategoryID: f.optical.ID})
	requireCode(t, models.EConflict, err)

	// warm the cache, then check writes invalidate it
	_, err = s.ByID(ctx, p.ID)
	require.NoError(t, err)
	price := int64(80000)
	_, err = s.Update(ctx, p.ID, models.ProductUpdate{Price: &price})
	require.NoError(t, err)
	got, err := s.ByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, price, got.Price)

	require.NoError(t, s.Delete(ctx, p.ID))
	_, err = s.ByID(ctx, p.ID)
	requireCode(t, models.ENotFound, err)

	err = s.Delete(ctx, "missing")
	requireCode(t, models.ENotFound, err)
}

func TestExportProducts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)
	s := newProducts(t, f)

	f.product(t, "classic-round", 95000, 12)
	f.product(t, "hidden", 1000, 1, func(p *models.Product) { p.IsActive = false })

	var buf bytes.Buffer
	require.NoError(t, s.Export(ctx, &buf))

	book, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, book.Sheets, 1)
	rows := book.Sheets[0].Rows
	require.Len(t, rows, 3)
	assert.Equal(t, "Nom", rows[0].Cells[1].String())
	assert.Equal(t, "classic-round", rows[1].Cells[1].String())
	assert.Equal(t, "Lunettes de vue", rows[1].Cells[5].String())
}
