// Package seed loads the demonstration catalog, accounts and reviews.
// Running it twice leaves the store unchanged: existing rows are matched by
// slug or email and skipped.
package seed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"luxvision/models"
	"luxvision/services"
	"luxvision/utils"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

type product struct {
	name, slug, brand    string
	price                int64
	description          string
	category             string
	gender               models.Gender
	shape, material, col string
	stock                int
	features             []string
	featured             bool
}

type review struct {
	product, user  string
	rating         int
	title, comment string
}

var categories = []models.Category{
	{
		Name:        "Optical",
		Slug:        "optical",
		Description: "Lunettes de vue premium pour un style au quotidien",
		Image:       "/images/categories/optical.jpg",
	},
	{
		Name:        "Sunglasses",
		Slug:        "sunglasses",
		Description: "Lunettes de soleil élégantes avec protection UV",
		Image:       "/images/categories/sunglasses.jpg",
	},
}

var products = []product{
	{
		name: "Classic Round", slug: "classic-round", brand: "LuxVision", price: 95000,
		description: "Timeless round frames that blend vintage charm with modern sophistication.",
		category:    "optical", gender: models.GenderUnisex,
		shape: "Round", material: "Acetate", col: "Tortoise", stock: 12, featured: true,
		features: []string{"Lightweight acetate", "Spring hinges", "Anti-reflective coating", "UV protection"},
	},
	{
		name: "Cat Eye Elegance", slug: "cat-eye-elegance", brand: "Femme", price: 105000,
		description: "Sophisticated cat-eye frames that add a touch of glamour to any look.",
		category:    "optical", gender: models.GenderWomen,
		shape: "Cat Eye", material: "Acetate", col: "Black", stock: 15, featured: true,
		features: []string{"Handcrafted acetate", "Flexible temples", "Scratch-resistant", "Blue light filtering"},
	},
	{
		name: "Urban Square", slug: "urban-square", brand: "ModernEdge", price: 85000,
		description: "Contemporary square frames perfect for the modern professional.",
		category:    "optical", gender: models.GenderMen,
		shape: "Square", material: "Titanium", col: "Matte Black", stock: 20,
		features: []string{"Titanium frame", "Adjustable fit", "Anti-glare coating", "Lightweight design"},
	},
	{
		name: "Minimalist Wire", slug: "minimalist-wire", brand: "Essence", price: 75000,
		description: "Ultra-lightweight wire frames for those who prefer understated elegance.",
		category:    "optical", gender: models.GenderUnisex,
		shape: "Oval", material: "Metal", col: "Silver", stock: 25,
		features: []string{"Thin wire frame", "Memory metal", "Barely-there feel", "Adjustable nose pads"},
	},
	{
		name: "Aviator Pro", slug: "aviator-pro", brand: "SkyLine", price: 125000,
		description: "Iconic aviator sunglasses with premium polarized lenses for ultimate eye protection.",
		category:    "sunglasses", gender: models.GenderUnisex,
		shape: "Aviator", material: "Metal", col: "Gold", stock: 8, featured: true,
		features: []string{"Polarized lenses", "Metal frame", "100% UV protection", "Adjustable nose pads"},
	},
	{
		name: "Retro Wayfarer", slug: "retro-wayfarer", brand: "Vintage Soul", price: 90000,
		description: "Classic wayfarer style with a modern twist for the trendsetter.",
		category:    "sunglasses", gender: models.GenderUnisex,
		shape: "Wayfarer", material: "Acetate", col: "Tortoise Brown", stock: 5, featured: true,
		features: []string{"Polarized lenses", "Acetate frame", "UV400 protection", "Iconic design"},
	},
	{
		name: "Sport Shield", slug: "sport-shield", brand: "ActiveVision", price: 115000,
		description: "High-performance sports sunglasses designed for active lifestyles.",
		category:    "sunglasses", gender: models.GenderUnisex,
		shape: "Shield", material: "TR90", col: "Matte Grey", stock: 18,
		features: []string{"Impact-resistant", "Wraparound design", "Anti-fog coating", "Rubberized grip"},
	},
	{
		name: "Oversized Glam", slug: "oversized-glam", brand: "Diva", price: 110000,
		description: "Bold oversized sunglasses that make a statement wherever you go.",
		category:    "sunglasses", gender: models.GenderWomen,
		shape: "Oversized", material: "Acetate", col: "Burgundy", stock: 10,
		features: []string{"Gradient lenses", "Large coverage", "Metal accents", "Designer style"},
	},
}

var users = []models.User{
	{
		Email: "admin@luxvision.cg", FirstName: "Admin", LastName: "LuxVision",
		Phone: "+242 06 123 4567", Role: models.RoleAdmin, EmailVerified: true,
	},
	{
		Email: "client@example.com", FirstName: "Jean", LastName: "Dupont",
		Phone: "+242 06 987 6543", Role: models.RoleCustomer, EmailVerified: true,
	},
}

var reviews = []review{
	{
		product: "classic-round", user: "client@example.com", rating: 5,
		title:   "Excellente qualité !",
		comment: "Les montures sont élégantes et très confortables. Je les porte tous les jours sans aucun problème.",
	},
	{
		product: "aviator-pro", user: "client@example.com", rating: 5,
		title:   "Parfaites pour l'été",
		comment: "Les meilleures lunettes de soleil que j'ai jamais eues ! Les verres polarisés sont incroyables.",
	},
}

var demoAddress = models.Address{
	FirstName: "Jean",
	LastName:  "Dupont",
	Phone:     "+242 06 987 6543",
	Address:   "123 Avenue de l'Indépendance",
	City:      "Pointe-Noire",
	State:     "Kouilou",
	ZipCode:   "00242",
	Country:   "Congo",
	IsDefault: true,
}

// Summary counts the rows created by a run.
type Summary struct {
	Categories int
	Products   int
	Users      int
	Reviews    int
	Addresses  int
}

// Seeder writes the demonstration data set.
type Seeder struct {
	store services.Store
	log   *zap.Logger
}

// New returns a Seeder writing to store.
func New(store services.Store, log *zap.Logger) *Seeder {
	return &Seeder{store: store, log: log}
}

// Run creates whatever part of the data set is missing.
func (s *Seeder) Run(ctx context.Context) (Summary, error) {
	var sum Summary

	catIDs := make(map[string]string, len(categories))
	for _, c := range categories {
		id, created, err := s.category(ctx, c)
		if err != nil {
			return sum, err
		}
		catIDs[c.Slug] = id
		if created {
			sum.Categories++
		}
	}

	prodIDs := make(map[string]string, len(products))
	for _, p := range products {
		id, created, err := s.product(ctx, p, catIDs[p.category])
		if err != nil {
			return sum, err
		}
		prodIDs[p.slug] = id
		if created {
			sum.Products++
		}
	}

	hash, err := utils.HashPassword(DemoPassword)
	if err != nil {
		return sum, err
	}
	userIDs := make(map[string]string, len(users))
	for _, u := range users {
		id, created, err := s.user(ctx, u, hash)
		if err != nil {
			return sum, err
		}
		userIDs[u.Email] = id
		if created {
			sum.Users++
		}
	}

	for _, r := range reviews {
		created, err := s.review(ctx, r, prodIDs[r.product], userIDs[r.user])
		if err != nil {
			return sum, err
		}
		if created {
			sum.Reviews++
		}
	}

	created, err := s.address(ctx, userIDs["client@example.com"])
	if err != nil {
		return sum, err
	}
	if created {
		sum.Addresses++
	}

	s.log.Info("Seed completed",
		zap.Int("categories", sum.Categories),
		zap.Int("products", sum.Products),
		zap.Int("users", sum.Users),
		zap.Int("reviews", sum.Reviews),
		zap.Int("addresses", sum.Addresses))
	return sum, nil
}

func (s *Seeder) category(ctx context.Context, c models.Category) (string, bool, error) {
	existing, err := s.store.FindCategoryBySlug(ctx, c.Slug)
	if err == nil {
		return existing.ID, false, nil
	}
	if models.ErrorCode(err) != models.ENotFound {
		return "", false, err
	}
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		return "", false, fmt.Errorf("seeding category %s: %w", c.Slug, err)
	}
	s.log.Debug("Category created", zap.String("slug", c.Slug))
	return c.ID, true, nil
}

func (s *Seeder) product(ctx context.Context, p product, categoryID string) (string, bool, error) {
	existing, err := s.store.FindProductBySlug(ctx, p.slug)
	if err == nil {
		return existing.ID, false, nil
	}
	if models.ErrorCode(err) != models.ENotFound {
		return "", false, err
	}

	m := &models.Product{
		Name:        p.name,
		Slug:        p.slug,
		Brand:       p.brand,
		Price:       p.price,
		Description: p.description,
		CategoryID:  categoryID,
		Gender:      p.gender,
		FrameShape:  p.shape,
		Material:    p.material,
		Color:       p.col,
		Stock:       p.stock,
		Features:    p.features,
		Images:      placeholderImages(p.name),
		IsActive:    true,
		IsFeatured:  p.featured,
	}
	if err := s.store.CreateProduct(ctx, m); err != nil {
		// an inactive product keeps its slug but is hidden from FindProductBySlug
		if models.ErrorCode(err) == models.EConflict {
			return "", false, nil
		}
		return "", false, fmt.Errorf("seeding product %s: %w", p.slug, err)
	}
	s.log.Debug("Product created", zap.String("slug", p.slug))
	return m.ID, true, nil
}

func (s *Seeder) user(ctx context.Context, u models.User, hash string) (string, bool, error) {
	existing, err := s.store.FindUserByEmail(ctx, u.Email)
	if err == nil {
		return existing.ID, false, nil
	}
	if models.ErrorCode(err) != models.ENotFound {
		return "", false, err
	}
	u.Password = hash
	if err := s.store.CreateUser(ctx, &u); err != nil {
		return "", false, fmt.Errorf("seeding user %s: %w", u.Email, err)
	}
	s.log.Debug("User created", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	return u.ID, true, nil
}

func (s *Seeder) review(ctx context.Context, r review, productID, userID string) (bool, error) {
	if productID == "" || userID == "" {
		return false, nil
	}
	_, err := s.store.FindUserReview(ctx, productID, userID)
	if err == nil {
		return false, nil
	}
	if models.ErrorCode(err) != models.ENotFound {
		return false, err
	}
	m := &models.Review{
		ProductID: productID,
		UserID:    userID,
		Rating:    r.rating,
		Title:     r.title,
		Comment:   r.comment,
		Verified:  true,
	}
	if err := s.store.CreateReview(ctx, m); err != nil {
		return false, fmt.Errorf("seeding review of %s: %w", r.product, err)
	}
	return true, nil
}

func (s *Seeder) address(ctx context.Context, userID string) (bool, error) {
	n, err := s.store.CountAddresses(ctx, userID)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	a := demoAddress
	a.UserID = userID
	if err := s.store.CreateAddress(ctx, &a); err != nil {
		return false, fmt.Errorf("seeding address: %w", err)
	}
	return true, nil
}

func placeholderImages(name string) []string {
	text := strings.ReplaceAll(name, " ", "+")
	images := make([]string, 3)
	for i := range images {
		images[i] = fmt.Sprintf("/placeholder.svg?height=600&width=600&text=%s+%d", text, i+1)
	}
	return images
}
