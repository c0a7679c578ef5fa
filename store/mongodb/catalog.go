package mongodb

import (
	"context"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"luxvision/models"
)

func (s *Store) CreateCategory(ctx context.Context, c *models.Category) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	if c.ID == "" {
		c.ID = newID()
	}
	t := now()
	c.CreatedAt, c.UpdatedAt = t, t

	_, err := s.col(colCategories).InsertOne(ctx, c)
	return wrapErr("mongodb.CreateCategory", err)
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	cats, err := findAll[models.Category](ctx, s.col(colCategories), bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	return cats, wrapErr("mongodb.ListCategories", err)
}

func (s *Store) findCategory(ctx context.Context, op string, filter bson.M) (*models.Category, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var c models.Category
	if err := s.col(colCategories).FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, wrapErr(op, err)
	}
	return &c, nil
}

func (s *Store) FindCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	return s.findCategory(ctx, "mongodb.FindCategoryByID", bson.M{"_id": id})
}

func (s *Store) FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.findCategory(ctx, "mongodb.FindCategoryBySlug", bson.M{"slug": slug})
}

func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

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

	_, err := s.col(colProducts).InsertOne(ctx, p)
	return wrapErr("mongodb.CreateProduct", err)
}

func (s *Store) UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error) {
	set := bson.M{"updated_at": now()}
	setIf(set, "name", upd.Name)
	setIf(set, "slug", upd.Slug)
	setIf(set, "brand", upd.Brand)
	setIf(set, "price", upd.Price)
	setIf(set, "description", upd.Description)
	setIf(set, "category_id", upd.CategoryID)
	setIf(set, "gender", upd.Gender)
	setIf(set, "frame_shape", upd.FrameShape)
	setIf(set, "material", upd.Material)
	setIf(set, "color", upd.Color)
	setIf(set, "stock", upd.Stock)
	setIf(set, "features", upd.Features)
	setIf(set, "images", upd.Images)
	setIf(set, "is_active", upd.IsActive)
	setIf(set, "is_featured", upd.IsFeatured)

	if err := s.updateByID(ctx, colProducts, id, set); err != nil {
		return nil, wrapErr("mongodb.UpdateProduct", err)
	}
	return s.FindProductByID(ctx, id)
}

func (s *Store) findProduct(ctx context.Context, op string, filter bson.M) (*models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	var p models.Product
	if err := s.col(colProducts).FindOne(ctx, filter).Decode(&p); err != nil {
		return nil, wrapErr(op, err)
	}
	return &p, nil
}

func (s *Store) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.findProduct(ctx, "mongodb.FindProductByID", bson.M{"_id": id})
}

func (s *Store) FindProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return s.findProduct(ctx, "mongodb.FindProductBySlug", bson.M{"slug": slug, "is_active": true})
}

func (s *Store) FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	products, err := findAll[models.Product](ctx, s.col(colProducts), bson.M{"_id": bson.M{"$in": ids}})
	return products, wrapErr("mongodb.FindProductsByIDs", err)
}

// productFilter builds the listing query for f. Only active products match.
func productFilter(f models.ProductFilter) bson.M {
	filter := bson.M{"is_active": true}
	if f.CategoryID != "" {
		filter["category_id"] = f.CategoryID
	}
	if f.Gender != "" {
		filter["gender"] = f.Gender
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		filter["price"] = price
	}
	if f.IsFeatured != nil {
		filter["is_featured"] = *f.IsFeatured
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"brand": re},
			bson.M{"description": re},
		}
	}
	return filter
}

// productSort returns the sort document for f.
func productSort(f models.ProductFilter) bson.D {
	key := "created_at"
	switch f.SortBy {
	case models.SortByPrice:
		key = "price"
	case models.SortByName:
		key = "name"
	}
	dir := 1
	if f.Descending() {
		dir = -1
	}
	return bson.D{{Key: key, Value: dir}, {Key: "_id", Value: 1}}
}

func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	filter := productFilter(f)
	total, err := s.col(colProducts).CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, wrapErr("mongodb.ListProducts", err)
	}

	opts := options.Find().SetSort(productSort(f))
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit)).SetSkip(int64(f.Offset()))
	}
	products, err := findAll[models.Product](ctx, s.col(colProducts), filter, opts)
	if err != nil {
		return nil, 0, wrapErr("mongodb.ListProducts", err)
	}
	return products, int(total), nil
}

func (s *Store) SimilarProducts(ctx context.Context, p *models.Product, limit int) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	filter := bson.M{
		"is_active": true,
		"_id":       bson.M{"$ne": p.ID},
		"$or": bson.A{
			bson.M{"category_id": p.CategoryID},
			bson.M{"gender": p.Gender},
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(int64(limit))
	products, err := findAll[models.Product](ctx, s.col(colProducts), filter, opts)
	return products, wrapErr("mongodb.SimilarProducts", err)
}

func (s *Store) AllProducts(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, longTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	products, err := findAll[models.Product](ctx, s.col(colProducts), bson.M{}, opts)
	return products, wrapErr("mongodb.AllProducts", err)
}

func (s *Store) ProductRatings(ctx context.Context, ids []string) (map[string]models.RatingSummary, error) {
	out := make(map[string]models.RatingSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	ctx, cancel := context.WithTimeout(ctx, shortTimeout)
	defer cancel()

	pipeline := bson.A{
		bson.M{"$match": bson.M{"product_id": bson.M{"$in": ids}}},
		bson.M{"$group": bson.M{
			"_id":     "$product_id",
			"average": bson.M{"$avg": "$rating"},
			"count":   bson.M{"$sum": 1},
		}},
	}
	cur, err := s.col(colReviews).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, wrapErr("mongodb.ProductRatings", err)
	}
	var rows []models.RatingSummary
	if err := cur.All(ctx, &rows); err != nil {
		return nil, wrapErr("mongodb.ProductRatings", err)
	}
	for _, r := range rows {
		out[r.ProductID] = r
	}
	return out, nil
}
