package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx"
	"go.uber.org/zap"

	"luxvision/models"
)

// Catalog defaults.
const (
	DefaultPageLimit    = 12
	MaxPageLimit        = 100
	DefaultFeaturedSize = 8
	DefaultSimilarSize  = 4
)

const productCachePrefix = "products:"

var errProductNotFound = &models.Error{Code: models.ENotFound, Msg: "Produit non trouvé"}

// CatalogStore is the storage used by the catalog.
type CatalogStore interface {
	ProductStore
	CategoryStore
	ReviewStore
	UserStore
}

// ProductService serves the catalog and its back-office.
type ProductService struct {
	store CatalogStore
	cache *Cache
	log   *zap.Logger
}

// NewProductService returns a ProductService. cache may be nil.
func NewProductService(store CatalogStore, cache *Cache, log *zap.Logger) *ProductService {
	return &ProductService{store: store, cache: cache, log: log}
}

// Invalidate drops every cached catalog read. It is called whenever stock,
// prices or visibility change.
func (s *ProductService) Invalidate() {
	s.cache.DeleteByPrefix(productCachePrefix)
}

func listKey(f models.ProductFilter) string {
	var b strings.Builder
	b.WriteString(productCachePrefix + "list:")
	fmt.Fprintf(&b, "c=%s|g=%s|q=%s|p=%d|l=%d|s=%s|o=%s", f.CategorySlug, f.Gender, strings.ToLower(f.Search), f.Page, f.Limit, f.SortBy, f.SortOrder)
	if f.MinPrice != nil {
		fmt.Fprintf(&b, "|min=%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		fmt.Fprintf(&b, "|max=%d", *f.MaxPrice)
	}
	if f.IsFeatured != nil {
		fmt.Fprintf(&b, "|f=%t", *f.IsFeatured)
	}
	return b.String()
}

func normalizeFilter(f models.ProductFilter) models.ProductFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	switch f.SortBy {
	case models.SortByCreatedAt, models.SortByPrice, models.SortByName:
	default:
		f.SortBy = models.SortByCreatedAt
	}
	if f.SortOrder != "asc" {
		f.SortOrder = "desc"
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// List returns a page of active products.
func (s *ProductService) List(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	if f.Gender != "" && !f.Gender.Valid() {
		return nil, models.Invalid("services.ListProducts", "Genre invalide")
	}
	f = normalizeFilter(f)

	key := listKey(f)
	if v, ok := s.cache.Get(key); ok {
		page := v.(models.ProductPage)
		return &page, nil
	}

	if f.CategorySlug != "" {
		cat, err := s.store.FindCategoryBySlug(ctx, f.CategorySlug)
		if models.ErrorCode(err) == models.ENotFound {
			return &models.ProductPage{Products: []models.Product{}, Pagination: models.NewPagination(f.Page, f.Limit, 0)}, nil
		}
		if err != nil {
			return nil, err
		}
		f.CategoryID = cat.ID
	}

	products, total, err := s.store.ListProducts(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, products); err != nil {
		return nil, err
	}

	page := models.ProductPage{Products: products, Pagination: models.NewPagination(f.Page, f.Limit, total)}
	s.cache.Set(key, page)
	return &page, nil
}

// Featured returns the newest featured products.
func (s *ProductService) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit < 1 {
		limit = DefaultFeaturedSize
	}
	featured := true
	page, err := s.List(ctx, models.ProductFilter{IsFeatured: &featured, Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Products, nil
}

// ByID returns an active product with its reviews.
func (s *ProductService) ByID(ctx context.Context, id string) (*models.Product, error) {
	return s.detail(ctx, productCachePrefix+"id:"+id, func() (*models.Product, error) {
		return s.store.FindProductByID(ctx, id)
	})
}

// BySlug returns an active product with its reviews.
func (s *ProductService) BySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.detail(ctx, productCachePrefix+"slug:"+slug, func() (*models.Product, error) {
		return s.store.FindProductBySlug(ctx, slug)
	})
}

func (s *ProductService) detail(ctx context.Context, key string, find func() (*models.Product, error)) (*models.Product, error) {
	if v, ok := s.cache.Get(key); ok {
		p := v.(models.Product)
		return &p, nil
	}

	p, err := find()
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errProductNotFound
		}
		return nil, err
	}
	if !p.IsActive {
		return nil, errProductNotFound
	}

	one := []models.Product{*p}
	if err := s.decorate(ctx, one); err != nil {
		return nil, err
	}
	*p = one[0]

	reviews, err := s.store.ListReviewsByProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := attachAuthors(ctx, s.store, reviews); err != nil {
		return nil, err
	}
	p.Reviews = reviews

	s.cache.Set(key, *p)
	return p, nil
}

// Similar returns active products sharing the category or gender of id.
// An unknown id yields an empty list.
func (s *ProductService) Similar(ctx context.Context, id string, limit int) ([]models.Product, error) {
	if limit < 1 {
		limit = DefaultSimilarSize
	}
	p, err := s.store.FindProductByID(ctx, id)
	if models.ErrorCode(err) == models.ENotFound {
		return []models.Product{}, nil
	}
	if err != nil {
		return nil, err
	}

	products, err := s.store.SimilarProducts(ctx, p, limit)
	if err != nil {
		return nil, err
	}
	if err := s.decorate(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// Categories lists the catalog categories.
func (s *ProductService) Categories(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// decorate attaches categories and rating aggregates in place.
func (s *ProductService) decorate(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]string, len(products))
	for i := range products {
		ids[i] = products[i].ID
	}
	ratings, err := s.store.ProductRatings(ctx, ids)
	if err != nil {
		return err
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]*models.Category, len(cats))
	for i := range cats {
		byID[cats[i].ID] = &cats[i]
	}

	for i := range products {
		r := ratings[products[i].ID]
		products[i].Rating = math.Round(r.Average*10) / 10
		products[i].ReviewsCount = r.Count
		products[i].Category = byID[products[i].CategoryID]
	}
	return nil
}

func (s *ProductService) validateCategory(ctx context.Context, op, id string) error {
	if _, err := s.store.FindCategoryByID(ctx, id); err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return models.Invalid(op, "Catégorie introuvable")
		}
		return err
	}
	return nil
}

// Create adds a product to the catalog.
func (s *ProductService) Create(ctx context.Context, p *models.Product) (*models.Product, error) {
	const op = "services.CreateProduct"

	switch {
	case strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Slug) == "":
		return nil, models.Invalid(op, "Le nom et le slug sont requis")
	case p.Price < 0:
		return nil, models.Invalid(op, "Le prix doit être positif")
	case p.Stock < 0:
		return nil, models.Invalid(op, "Le stock doit être positif")
	case p.Gender == "":
		p.Gender = models.GenderUnisex
	case !p.Gender.Valid():
		return nil, models.Invalid(op, "Genre invalide")
	}
	if err := s.validateCategory(ctx, op, p.CategoryID); err != nil {
		return nil, err
	}

	p.IsActive = true
	if err := s.store.CreateProduct(ctx, p); err != nil {
		if models.ErrorCode(err) == models.EConflict {
			return nil, &models.Error{Code: models.EConflict, Op: op, Msg: "Un produit existe déjà avec ce slug"}
		}
		return nil, err
	}
	s.Invalidate()
	s.log.Info("Product created", zap.String("product_id", p.ID), zap.String("slug", p.Slug))
	return p, nil
}

// Update applies a partial change to a product, active or not.
func (s *ProductService) Update(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	const op = "services.UpdateProduct"

	switch {
	case upd.Name != nil && strings.TrimSpace(*upd.Name) == "":
		return nil, models.Invalid(op, "Le nom est requis")
	case upd.Slug != nil && strings.TrimSpace(*upd.Slug) == "":
		return nil, models.Invalid(op, "Le slug est requis")
	case upd.Price != nil && *upd.Price < 0:
		return nil, models.Invalid(op, "Le prix doit être positif")
	case upd.Stock != nil && *upd.Stock < 0:
		return nil, models.Invalid(op, "Le stock doit être positif")
	case upd.Gender != nil && !upd.Gender.Valid():
		return nil, models.Invalid(op, "Genre invalide")
	}
	if upd.CategoryID != nil {
		if err := s.validateCategory(ctx, op, *upd.CategoryID); err != nil {
			return nil, err
		}
	}

	p, err := s.store.UpdateProduct(ctx, id, upd)
	if err != nil {
		switch models.ErrorCode(err) {
		case models.ENotFound:
			return nil, errProductNotFound
		case models.EConflict:
			return nil, &models.Error{Code: models.EConflict, Op: op, Msg: "Un produit existe déjà avec ce slug"}
		}
		return nil, err
	}
	s.Invalidate()
	return p, nil
}

// Delete hides a product from the catalog. Orders keep their snapshot.
func (s *ProductService) Delete(ctx context.Context, id string) error {
	inactive := false
	if _, err := s.Update(ctx, id, models.ProductUpdate{IsActive: &inactive}); err != nil {
		return err
	}
	s.log.Info("Product deactivated", zap.String("product_id", id))
	return nil
}

var exportHeaders = []string{
	"ID", "Nom", "Slug", "Marque", "Prix", "Catégorie", "Genre", "Forme", "Matériau",
	"Couleur", "Stock", "Actif", "En vedette", "Images", "Créé le", "Mis à jour le",
}

// Export writes every product, active or not, to w as an xlsx workbook.
func (s *ProductService) Export(ctx context.Context, w io.Writer) error {
	products, err := s.store.AllProducts(ctx)
	if err != nil {
		return err
	}
	cats, err := s.store.ListCategories(ctx)
	if err != nil {
		return err
	}
	catNames := make(map[string]string, len(cats))
	for _, c := range cats {
		catNames[c.ID] = c.Name
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Produits")
	if err != nil {
		return models.Internal("services.ExportProducts", err)
	}

	headerRow := sheet.AddRow()
	for _, h := range exportHeaders {
		headerRow.AddCell().SetValue(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Slug)
		row.AddCell().SetValue(p.Brand)
		row.AddCell().SetValue(p.Price)
		row.AddCell().SetValue(catNames[p.CategoryID])
		row.AddCell().SetValue(string(p.Gender))
		row.AddCell().SetValue(p.FrameShape)
		row.AddCell().SetValue(p.Material)
		row.AddCell().SetValue(p.Color)
		row.AddCell().SetValue(p.Stock)
		row.AddCell().SetValue(strconv.FormatBool(p.IsActive))
		row.AddCell().SetValue(strconv.FormatBool(p.IsFeatured))
		row.AddCell().SetValue(strings.Join(p.Images, ","))
		row.AddCell().SetValue(p.CreatedAt.Format("2006-01-02 15:04:05"))
		row.AddCell().SetValue(p.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if err := file.Write(w); err != nil {
		return models.Internal("services.ExportProducts", err)
	}
	return nil
}
