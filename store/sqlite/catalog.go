package sqlite

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"luxvision/models"
)

func (s *SqlStore) CreateCategory(ctx context.Context, c *models.Category) error {
	if c.ID == "" {
		c.ID = newID()
	}
	t := now()
	c.CreatedAt, c.UpdatedAt = t, t

	q := sq.Insert("categories").
		Columns("id", "name", "slug", "description", "image", "created_at", "updated_at").
		Values(c.ID, c.Name, c.Slug, c.Description, c.Image, c.CreatedAt, c.UpdatedAt)
	_, err := s.exec(ctx, s.DB, q)
	return wrapErr("sqlite.CreateCategory", err)
}

func (s *SqlStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	cats := []models.Category{}
	if err := s.sel(ctx, s.DB, &cats, sq.Select("*").From("categories").OrderBy("name ASC")); err != nil {
		return nil, wrapErr("sqlite.ListCategories", err)
	}
	return cats, nil
}

func (s *SqlStore) FindCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	var c models.Category
	if err := s.get(ctx, s.DB, &c, sq.Select("*").From("categories").Where(sq.Eq{"id": id})); err != nil {
		return nil, wrapErr("sqlite.FindCategoryByID", err)
	}
	return &c, nil
}

func (s *SqlStore) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var c models.Category
	if err := s.get(ctx, s.DB, &c, sq.Select("*").From("categories").Where(sq.Eq{"slug": slug})); err != nil {
		return nil, wrapErr("sqlite.FindCategoryBySlug", err)
	}
	return &c, nil
}

func (s *SqlStore) CreateProduct(ctx context.Context, p *models.Product) error {
	if p.ID == "" {
		p.ID = newID()
	}
	t := now()
	p.CreatedAt, p.UpdatedAt = t, t
	if p.Features == nil {
		p.Features = models.StringList{}
	}
	if p.Images == nil {
		p.Images = models.StringList{}
	}

	q := sq.Insert("products").
		Columns("id", "name", "slug", "brand", "price", "description", "category_id", "gender",
			"frame_shape", "material", "color", "stock", "features", "images", "is_active", "is_featured",
			"created_at", "updated_at").
		Values(p.ID, p.Name, p.Slug, p.Brand, p.Price, p.Description, p.CategoryID, p.Gender,
			p.FrameShape, p.Material, p.Color, p.Stock, p.Features, p.Images, p.IsActive, p.IsFeatured,
			p.CreatedAt, p.UpdatedAt)
	_, err := s.exec(ctx, s.DB, q)
	return wrapErr("sqlite.CreateProduct", err)
}

func (s *SqlStore) UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	q := sq.Update("products").Set("updated_at", now()).Where(sq.Eq{"id": id})
	if upd.Name != nil {
		q = q.Set("name", *upd.Name)
	}
	if upd.Slug != nil {
		q = q.Set("slug", *upd.Slug)
	}
	if upd.Brand != nil {
		q = q.Set("brand", *upd.Brand)
	}
	if upd.Price != nil {
		q = q.Set("price", *upd.Price)
	}
	if upd.Description != nil {
		q = q.Set("description", *upd.Description)
	}
	if upd.CategoryID != nil {
		q = q.Set("category_id", *upd.CategoryID)
	}
	if upd.Gender != nil {
		q = q.Set("gender", *upd.Gender)
	}
	if upd.FrameShape != nil {
		q = q.Set("frame_shape", *upd.FrameShape)
	}
	if upd.Material != nil {
		q = q.Set("material", *upd.Material)
	}
	if upd.Color != nil {
		q = q.Set("color", *upd.Color)
	}
	if upd.Stock != nil {
		q = q.Set("stock", *upd.Stock)
	}
	if upd.Features != nil {
		q = q.Set("features", models.StringList(*upd.Features))
	}
	if upd.Images != nil {
		q = q.Set("images", models.StringList(*upd.Images))
	}
	if upd.IsActive != nil {
		q = q.Set("is_active", *upd.IsActive)
	}
	if upd.IsFeatured != nil {
		q = q.Set("is_featured", *upd.IsFeatured)
	}

	n, err := s.exec(ctx, s.DB, q)
	if err != nil {
		return nil, wrapErr("sqlite.UpdateProduct", err)
	}
	if n == 0 {
		return nil, wrapErr("sqlite.UpdateProduct", models.ErrNotFound)
	}
	return s.FindProductByID(ctx, id)
}

func (s *SqlStore) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := s.get(ctx, s.DB, &p, sq.Select("*").From("products").Where(sq.Eq{"id": id})); err != nil {
		return nil, wrapErr("sqlite.FindProductByID", err)
	}
	return &p, nil
}

func (s *SqlStore) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var p models.Product
	q := sq.Select("*").From("products").Where(sq.Eq{"slug": slug, "is_active": true})
	if err := s.get(ctx, s.DB, &p, q); err != nil {
		return nil, wrapErr("sqlite.FindProductBySlug", err)
	}
	return &p, nil
}

func (s *SqlStore) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	products := []models.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	if err := s.sel(ctx, s.DB, &products, sq.Select("*").From("products").Where(sq.Eq{"id": ids})); err != nil {
		return nil, wrapErr("sqlite.FindProductsByIDs", err)
	}
	return products, nil
}

func productConditions(f models.ProductFilter) sq.And {
	conds := sq.And{sq.Eq{"is_active": true}}
	if f.CategoryID != "" {
		conds = append(conds, sq.Eq{"category_id": f.CategoryID})
	}
	if f.Gender != "" {
		conds = append(conds, sq.Eq{"gender": f.Gender})
	}
	if f.MinPrice != nil {
		conds = append(conds, sq.GtOrEq{"price": *f.MinPrice})
	}
	if f.MaxPrice != nil {
		conds = append(conds, sq.LtOrEq{"price": *f.MaxPrice})
	}
	if f.IsFeatured != nil {
		conds = append(conds, sq.Eq{"is_featured": *f.IsFeatured})
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		pat := "%" + strings.ToLower(search) + "%"
		conds = append(conds, sq.Or{
			sq.Expr("LOWER(name) LIKE ?", pat),
			sq.Expr("LOWER(brand) LIKE ?", pat),
			sq.Expr("LOWER(description) LIKE ?", pat),
		})
	}
	return conds
}

func productOrder(f models.ProductFilter) string {
	col := "created_at"
	switch f.SortBy {
	case models.SortByPrice:
		col = "price"
	case models.SortByName:
		col = "name"
	}
	if f.Descending() {
		return col + " DESC"
	}
	return col + " ASC"
}

func (s *SqlStore) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	conds := productConditions(f)

	var total int
	if err := s.get(ctx, s.DB, &total, sq.Select("COUNT(*)").From("products").Where(conds)); err != nil {
		return nil, 0, wrapErr("sqlite.ListProducts", err)
	}

	q := sq.Select("*").From("products").Where(conds).OrderBy(productOrder(f), "id ASC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset()))
	}

	products := []models.Product{}
	if err := s.sel(ctx, s.DB, &products, q); err != nil {
		return nil, 0, wrapErr("sqlite.ListProducts", err)
	}
	return products, total, nil
}

func (s *SqlStore) SimilarProducts(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	q := sq.Select("*").From("products").
		Where(sq.Eq{"is_active": true}).
		Where(sq.NotEq{"id": p.ID}).
		Where(sq.Or{sq.Eq{"category_id": p.CategoryID}, sq.Eq{"gender": p.Gender}}).
		OrderBy("created_at DESC").
		Limit(uint64(limit))

	products := []models.Product{}
	if err := s.sel(ctx, s.DB, &products, q); err != nil {
		return nil, wrapErr("sqlite.SimilarProducts", err)
	}
	return products, nil
}

func (s *SqlStore) AllProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.sel(ctx, s.DB, &products, sq.Select("*").From("products").OrderBy("created_at ASC")); err != nil {
		return nil, wrapErr("sqlite.AllProducts", err)
	}
	return products, nil
}

func (s *SqlStore) ProductRatings(ctx context.Context, ids []string) (map[string]models.RatingSummary, error) {
	out := make(map[string]models.RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	q := sq.Select("product_id", "AVG(rating) AS average", "COUNT(*) AS count").
		From("reviews").
		Where(sq.Eq{"product_id": ids}).
		GroupBy("product_id")

	var rows []models.RatingSummary
	if err := s.sel(ctx, s.DB, &rows, q); err != nil {
		return nil, wrapErr("sqlite.ProductRatings", err)
	}
	for _, r := range rows {
		out[r.ProductID] = r
	}
	return out, nil
}
