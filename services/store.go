package services

import (
	"context"

	"luxvision/models"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// CategoryStore persists catalog categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id string) (*models.Category, error)
	FindCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
}

// ProductStore persists the catalog. Listing queries only return active products;
// FindProductByID returns inactive products too.
type ProductStore interface {
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id string, upd models.ProductUpdate) (*models.Product, error)
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	FindProductBySlug(ctx context.Context, slug string) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []string) ([]models.Product, error)
	ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, int, error)
	SimilarProducts(ctx context.Context, p *models.Product, limit int) ([]models.Product, error)
	AllProducts(ctx context.Context) ([]models.Product, error)
	ProductRatings(ctx context.Context, ids []string) (map[string]models.RatingSummary, error)
}

// CartStore persists server-side carts.
type CartStore interface {
	ListCartItems(ctx context.Context, userID string) ([]models.CartItem, error)
	FindCartItem(ctx context.Context, id string) (*models.CartItem, error)
	FindCartItemByProduct(ctx context.Context, userID, productID string) (*models.CartItem, error)
	// AddCartItem inserts the line or increments the quantity of an existing one.
	AddCartItem(ctx context.Context, userID, productID string, quantity int) (*models.CartItem, error)
	SetCartItemQuantity(ctx context.Context, id string, quantity int) (*models.CartItem, error)
	DeleteCartItem(ctx context.Context, id string) error
	DeleteCartItemsByProducts(ctx context.Context, userID string, productIDs []string) error
	ClearCart(ctx context.Context, userID string) error
}

// WishlistStore persists wishlists.
type WishlistStore interface {
	ListWishlist(ctx context.Context, userID string) ([]models.WishlistItem, error)
	// AddWishlistItem returns the existing entry when the product is already saved.
	AddWishlistItem(ctx context.Context, userID, productID string) (*models.WishlistItem, error)
	DeleteWishlistItem(ctx context.Context, userID, productID string) error
	ClearWishlist(ctx context.Context, userID string) error
}

// ReviewStore persists product reviews. CreateReview returns an EConflict
// error when the user already reviewed the product.
type ReviewStore interface {
	CreateReview(ctx context.Context, r *models.Review) error
	FindReviewByID(ctx context.Context, id string) (*models.Review, error)
	FindUserReview(ctx context.Context, productID, userID string) (*models.Review, error)
	ListReviewsByProduct(ctx context.Context, productID string) ([]models.Review, error)
	DeleteReview(ctx context.Context, id string) error
}

// AddressStore persists address books. Writes that set IsDefault clear the
// previous default of the same user in the same transaction.
type AddressStore interface {
	CreateAddress(ctx context.Context, a *models.Address) error
	UpdateAddress(ctx context.Context, id string, upd models.AddressUpdate) (*models.Address, error)
	FindAddress(ctx context.Context, id string) (*models.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]models.Address, error)
	CountAddresses(ctx context.Context, userID string) (int, error)
	DeleteAddress(ctx context.Context, id string) error
	SetDefaultAddress(ctx context.Context, userID, id string) (*models.Address, error)
}

// OrderStore persists orders.
type OrderStore interface {
	// CreateOrder decrements the stock of every line with a conditional update and
	// inserts the order with its items, all in one transaction. It returns
	// models.ErrInsufficientStock when any line cannot be served and
	// models.ErrDuplicateOrderNumber when the order number is taken.
	CreateOrder(ctx context.Context, o *models.Order) error
	FindOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]models.Order, error)
	ListOrders(ctx context.Context, f models.OrderFilter) ([]models.Order, int, error)
	// CancelOrder marks a cancellable order CANCELLED and restores the stock of its
	// items in one transaction. It returns models.ErrNotCancellable when the order
	// was shipped, delivered or already cancelled.
	CancelOrder(ctx context.Context, id string, adminNote *string) (*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, upd models.StatusUpdate) (*models.Order, error)
	UpdateOrderPayment(ctx context.Context, id string, upd models.PaymentUpdate) (*models.Order, error)
	OrderStats(ctx context.Context, recent int) (*models.OrderStats, error)
	HasDeliveredProduct(ctx context.Context, userID, productID string) (bool, error)
}

// Store aggregates every persistence concern. It is opened once per process.
type Store interface {
	UserStore
	CategoryStore
	ProductStore
	CartStore
	WishlistStore
	ReviewStore
	AddressStore
	OrderStore
	Close() error
}
