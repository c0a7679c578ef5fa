package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Gender is the target audience of a frame.
type Gender string

const (
	GenderMen    Gender = "MEN"
	GenderWomen  Gender = "WOMEN"
	GenderUnisex Gender = "UNISEX"
	GenderKids   Gender = "KIDS"
)

// Valid reports whether g is one of the known genders.
func (g Gender) Valid() bool {
	switch g {
	case GenderMen, GenderWomen, GenderUnisex, GenderKids:
		return true
	}
	return false
}

// StringList is a list of strings stored as a JSON array in SQL columns.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into StringList", src)
	}
	var out []string
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Category groups products in the catalog (optical, sunglasses).
type Category struct {
	ID          string    `bson:"_id" db:"id" json:"id"`
	Name        string    `bson:"name" db:"name" json:"name"`
	Slug        string    `bson:"slug" db:"slug" json:"slug"`
	Description string    `bson:"description" db:"description" json:"description,omitempty"`
	Image       string    `bson:"image" db:"image" json:"image,omitempty"`
	CreatedAt   time.Time `bson:"created_at" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updated_at" db:"updated_at" json:"updatedAt"`
}

// Product represents a pair of frames in the catalog.
// Prices are whole FCFA amounts.
type Product struct {
	ID          string     `bson:"_id" db:"id" json:"id"`
	Name        string     `bson:"name" db:"name" json:"name"`
	Slug        string     `bson:"slug" db:"slug" json:"slug"`
	Brand       string     `bson:"brand" db:"brand" json:"brand"`
	Price       int64      `bson:"price" db:"price" json:"price"`
	Description string     `bson:"description" db:"description" json:"description"`
	CategoryID  string     `bson:"category_id" db:"category_id" json:"categoryId"`
	Gender      Gender     `bson:"gender" db:"gender" json:"gender"`
	FrameShape  string     `bson:"frame_shape" db:"frame_shape" json:"frameShape"`
	Material    string     `bson:"material" db:"material" json:"material"`
	Color       string     `bson:"color" db:"color" json:"color"`
	Stock       int        `bson:"stock" db:"stock" json:"stock"`
	Features    StringList `bson:"features" db:"features" json:"features"`
	Images      StringList `bson:"images" db:"images" json:"images"`
	IsActive    bool       `bson:"is_active" db:"is_active" json:"isActive"`
	IsFeatured  bool       `bson:"is_featured" db:"is_featured" json:"isFeatured"`
	CreatedAt   time.Time  `bson:"created_at" db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time  `bson:"updated_at" db:"updated_at" json:"updatedAt"`

	Category     *Category `bson:"-" db:"-" json:"category,omitempty"`
	Rating       float64   `bson:"-" db:"-" json:"rating"`
	ReviewsCount int       `bson:"-" db:"-" json:"reviewsCount"`
	Reviews      []Review  `bson:"-" db:"-" json:"reviews,omitempty"`
}

// FirstImage returns the primary image or an empty string.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductUpdate holds the fields an admin may change. Nil fields are left untouched.
type ProductUpdate struct {
	Name        *string   `json:"name"`
	Slug        *string   `json:"slug"`
	Brand       *string   `json:"brand"`
	Price       *int64    `json:"price"`
	Description *string   `json:"description"`
	CategoryID  *string   `json:"categoryId"`
	Gender      *Gender   `json:"gender"`
	FrameShape  *string   `json:"frameShape"`
	Material    *string   `json:"material"`
	Color       *string   `json:"color"`
	Stock       *int      `json:"stock"`
	Features    *[]string `json:"features"`
	Images      *[]string `json:"images"`
	IsActive    *bool     `json:"isActive"`
	IsFeatured  *bool     `json:"isFeatured"`
}

// Sort keys accepted by the product listing.
const (
	SortByCreatedAt = "createdAt"
	SortByPrice     = "price"
	SortByName      = "name"
)

// ProductFilter selects active products for the catalog listing.
// CategorySlug is resolved to CategoryID by the service before it reaches a store.
type ProductFilter struct {
	CategorySlug string
	CategoryID   string
	Gender       Gender
	MinPrice     *int64
	MaxPrice     *int64
	Search       string
	IsFeatured   *bool

	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Offset returns the number of rows skipped for the current page.
func (f ProductFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}

// Descending reports whether results are sorted in descending order.
func (f ProductFilter) Descending() bool {
	return f.SortOrder != "asc"
}

// RatingSummary aggregates the reviews of one product.
type RatingSummary struct {
	ProductID string  `db:"product_id" bson:"_id"`
	Average   float64 `db:"average" bson:"average"`
	Count     int     `db:"count" bson:"count"`
}

// Pagination describes a page of results.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes the page count for total results.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

// ProductPage is a paginated product listing.
type ProductPage struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}
