package controllers

import (
	"net/http"
	"strconv"
	"time"

	"luxvision/models"
	"luxvision/services"
)

// ProductController handles catalog requests
type ProductController struct {
	products *services.ProductService
	errors   *ErrorHandler
}

// NewProductController creates a new ProductController
func NewProductController(products *services.ProductService, errors *ErrorHandler) *ProductController {
	return &ProductController{products: products, errors: errors}
}

// productFilter reads the listing query parameters. Malformed numbers are ignored.
func productFilter(r *http.Request) models.ProductFilter {
	q := r.URL.Query()
	f := models.ProductFilter{
		CategorySlug: q.Get("category"),
		Gender:       models.Gender(q.Get("gender")),
		Search:       q.Get("search"),
		Page:         queryInt(r, "page", 0),
		Limit:        queryInt(r, "limit", 0),
		SortBy:       q.Get("sortBy"),
		SortOrder:    q.Get("sortOrder"),
	}
	price := func(name string) *int64 {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			return nil
		}
		n := int64(v)
		return &n
	}
	f.MinPrice = price("minPrice")
	f.MaxPrice = price("maxPrice")
	switch q.Get("isFeatured") {
	case "true":
		t := true
		f.IsFeatured = &t
	case "false":
		b := false
		f.IsFeatured = &b
	}
	return f
}

// GetProducts lists active products
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	page, err := pc.products.List(r.Context(), productFilter(r))
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", page)
}

// GetFeatured lists featured products
func (pc *ProductController) GetFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := pc.products.Featured(r.Context(), queryInt(r, "limit", services.DefaultFeaturedSize))
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.Product{"products": products})
}

// GetProductByID returns a product with its reviews
func (pc *ProductController) GetProductByID(w http.ResponseWriter, r *http.Request) {
	p, err := pc.products.ByID(r.Context(), pathVar(r, "id"))
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]*models.Product{"product": p})
}

// GetProductBySlug returns a product by its slug
func (pc *ProductController) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	p, err := pc.products.BySlug(r.Context(), pathVar(r, "slug"))
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]*models.Product{"product": p})
}

// GetSimilar lists products of the same category
func (pc *ProductController) GetSimilar(w http.ResponseWriter, r *http.Request) {
	products, err := pc.products.Similar(r.Context(), pathVar(r, "id"), queryInt(r, "limit", services.DefaultSimilarSize))
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.Product{"products": products})
}

// GetCategories lists the catalog categories
func (pc *ProductController) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := pc.products.Categories(r.Context())
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.Category{"categories": cats})
}

// CreateProduct adds a product (admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p := &models.Product{IsActive: true}
	if err := decode(r, p); err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	created, err := pc.products.Create(r.Context(), p)
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Produit créé avec succès", map[string]*models.Product{"product": created})
}

// UpdateProduct changes a product (admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var upd models.ProductUpdate
	if err := decode(r, &upd); err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	p, err := pc.products.Update(r.Context(), pathVar(r, "id"), upd)
	if err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Produit mis à jour avec succès", map[string]*models.Product{"product": p})
}

// DeleteProduct hides a product from the catalog (admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := pc.products.Delete(r.Context(), pathVar(r, "id")); err != nil {
		pc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Produit supprimé avec succès", nil)
}

// ExportProducts streams the catalog as a spreadsheet (admin only)
func (pc *ProductController) ExportProducts(w http.ResponseWriter, r *http.Request) {
	name := "produits-" + time.Now().Format("2006-01-02") + ".xlsx"
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := pc.products.Export(r.Context(), w); err != nil {
		w.Header().Del("Content-Disposition")
		pc.errors.HandleHTTPError(w, r, err)
	}
}
