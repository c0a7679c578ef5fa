package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"luxvision/models"
)

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
}

// Register creates an account and saves its tokens.
func (c *Client) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", nil, in, &res); err != nil {
		return nil, err
	}
	return &res, c.tokens.SetTokens(res.Tokens)
}

// Login signs in and saves the returned tokens.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res models.AuthResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, c.tokens.SetTokens(res.Tokens)
}

// Logout signs out. Tokens are cleared even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
	if cerr := c.tokens.ClearTokens(); err == nil {
		err = cerr
	}
	return err
}

// Me returns the signed-in user.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var data struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

// UpdateProfile changes the name and phone of the signed-in user.
func (c *Client) UpdateProfile(ctx context.Context, upd models.UserUpdate) (*models.User, error) {
	var data struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPut, "/auth/profile", nil, upd, &data); err != nil {
		return nil, err
	}
	return data.User, nil
}

// ChangePassword replaces the password of the signed-in user.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	body := map[string]string{"oldPassword": oldPassword, "newPassword": newPassword}
	return c.do(ctx, http.MethodPut, "/auth/change-password", nil, body, nil)
}

func productQuery(f models.ProductFilter) url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("category", f.CategorySlug)
	set("gender", string(f.Gender))
	set("search", f.Search)
	set("sortBy", f.SortBy)
	set("sortOrder", f.SortOrder)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.MinPrice != nil {
		q.Set("minPrice", strconv.FormatInt(*f.MinPrice, 10))
	}
	if f.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatInt(*f.MaxPrice, 10))
	}
	if f.IsFeatured != nil {
		q.Set("isFeatured", strconv.FormatBool(*f.IsFeatured))
	}
	return q
}

func limitQuery(limit int) url.Values {
	if limit <= 0 {
		return nil
	}
	return url.Values{"limit": {strconv.Itoa(limit)}}
}

// Products lists the catalog.
func (c *Client) Products(ctx context.Context, f models.ProductFilter) (*models.ProductPage, error) {
	var page models.ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", productQuery(f), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type productData struct {
	Product *models.Product `json:"product"`
}

type productsData struct {
	Products []models.Product `json:"products"`
}

// Product returns a product with its reviews.
func (c *Client) Product(ctx context.Context, id string) (*models.Product, error) {
	var data productData
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Product, nil
}

// ProductBySlug returns the active product with slug.
func (c *Client) ProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var data productData
	if err := c.do(ctx, http.MethodGet, "/products/slug/"+url.PathEscape(slug), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Product, nil
}

// FeaturedProducts returns featured products. A zero limit uses the server default.
func (c *Client) FeaturedProducts(ctx context.Context, limit int) ([]models.Product, error) {
	var data productsData
	if err := c.do(ctx, http.MethodGet, "/products/featured", limitQuery(limit), nil, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

// SimilarProducts returns products of the same category as id.
func (c *Client) SimilarProducts(ctx context.Context, id string, limit int) ([]models.Product, error) {
	var data productsData
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id)+"/similar", limitQuery(limit), nil, &data); err != nil {
		return nil, err
	}
	return data.Products, nil
}

// Categories lists the catalog categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	var data struct {
		Categories []models.Category `json:"categories"`
	}
	if err := c.do(ctx, http.MethodGet, "/categories", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Categories, nil
}

type cartItemData struct {
	Item *models.CartItem `json:"item"`
}

// Cart returns the server-side cart.
func (c *Client) Cart(ctx context.Context) (*models.Cart, error) {
	var cart models.Cart
	if err := c.do(ctx, http.MethodGet, "/cart", nil, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddToCart adds quantity units of a product to the cart.
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*models.CartItem, error) {
	body := models.OrderLine{ProductID: productID, Quantity: quantity}
	var data cartItemData
	if err := c.do(ctx, http.MethodPost, "/cart", nil, body, &data); err != nil {
		return nil, err
	}
	return data.Item, nil
}

// UpdateCartItem sets the quantity of a cart line.
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*models.CartItem, error) {
	body := map[string]int{"quantity": quantity}
	var data cartItemData
	if err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(itemID), nil, body, &data); err != nil {
		return nil, err
	}
	return data.Item, nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, itemID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, nil, nil)
}

// ClearCart empties the cart.
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil, nil)
}

// Wishlist returns the saved products.
func (c *Client) Wishlist(ctx context.Context) ([]models.WishlistItem, error) {
	var data struct {
		Wishlist []models.WishlistItem `json:"wishlist"`
	}
	if err := c.do(ctx, http.MethodGet, "/wishlist", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Wishlist, nil
}

// AddToWishlist saves a product.
func (c *Client) AddToWishlist(ctx context.Context, productID string) (*models.WishlistItem, error) {
	body := map[string]string{"productId": productID}
	var data struct {
		Item *models.WishlistItem `json:"item"`
	}
	if err := c.do(ctx, http.MethodPost, "/wishlist", nil, body, &data); err != nil {
		return nil, err
	}
	return data.Item, nil
}

// RemoveFromWishlist deletes a saved product.
func (c *Client) RemoveFromWishlist(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/wishlist/"+url.PathEscape(productID), nil, nil, nil)
}

// ClearWishlist deletes every saved product.
func (c *Client) ClearWishlist(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/wishlist", nil, nil, nil)
}

type orderData struct {
	Order *models.Order `json:"order"`
}

// CreateOrder checks out the given lines.
func (c *Client) CreateOrder(ctx context.Context, in models.CreateOrderInput) (*models.Order, error) {
	var data orderData
	if err := c.do(ctx, http.MethodPost, "/orders", nil, in, &data); err != nil {
		return nil, err
	}
	return data.Order, nil
}

// Orders lists the orders of the signed-in user.
func (c *Client) Orders(ctx context.Context) ([]models.Order, error) {
	var data struct {
		Orders []models.Order `json:"orders"`
	}
	if err := c.do(ctx, http.MethodGet, "/orders", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Orders, nil
}

// Order returns an order of the signed-in user.
func (c *Client) Order(ctx context.Context, id string) (*models.Order, error) {
	var data orderData
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Order, nil
}

// CancelOrder cancels an order that has not shipped yet.
func (c *Client) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	var data orderData
	if err := c.do(ctx, http.MethodPut, "/orders/"+url.PathEscape(id)+"/cancel", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Order, nil
}

// CreateReview rates a product.
func (c *Client) CreateReview(ctx context.Context, in models.ReviewInput) (*models.Review, error) {
	var data struct {
		Review *models.Review `json:"review"`
	}
	if err := c.do(ctx, http.MethodPost, "/reviews", nil, in, &data); err != nil {
		return nil, err
	}
	return data.Review, nil
}

// ProductReviews lists the reviews of a product.
func (c *Client) ProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	var data struct {
		Reviews []models.Review `json:"reviews"`
	}
	if err := c.do(ctx, http.MethodGet, "/reviews/product/"+url.PathEscape(productID), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Reviews, nil
}

// DeleteReview deletes a review of the signed-in user.
func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/reviews/"+url.PathEscape(id), nil, nil, nil)
}

type addressData struct {
	Address *models.Address `json:"address"`
}

// Addresses lists the address book, default first.
func (c *Client) Addresses(ctx context.Context) ([]models.Address, error) {
	var data struct {
		Addresses []models.Address `json:"addresses"`
	}
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Addresses, nil
}

// Address returns one saved address.
func (c *Client) Address(ctx context.Context, id string) (*models.Address, error) {
	var data addressData
	if err := c.do(ctx, http.MethodGet, "/addresses/"+url.PathEscape(id), nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Address, nil
}

// CreateAddress saves a new address.
func (c *Client) CreateAddress(ctx context.Context, a models.Address) (*models.Address, error) {
	var data addressData
	if err := c.do(ctx, http.MethodPost, "/addresses", nil, a, &data); err != nil {
		return nil, err
	}
	return data.Address, nil
}

// UpdateAddress changes a saved address.
func (c *Client) UpdateAddress(ctx context.Context, id string, upd models.AddressUpdate) (*models.Address, error) {
	var data addressData
	if err := c.do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(id), nil, upd, &data); err != nil {
		return nil, err
	}
	return data.Address, nil
}

// DeleteAddress deletes a saved address.
func (c *Client) DeleteAddress(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/addresses/"+url.PathEscape(id), nil, nil, nil)
}

// SetDefaultAddress makes id the default address.
func (c *Client) SetDefaultAddress(ctx context.Context, id string) (*models.Address, error) {
	var data addressData
	if err := c.do(ctx, http.MethodPut, "/addresses/"+url.PathEscape(id)+"/default", nil, nil, &data); err != nil {
		return nil, err
	}
	return data.Address, nil
}
