package routes

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"luxvision/controllers"
	"luxvision/middleware"
)

// APIPrefix is the base path of every API route.
const APIPrefix = "/api/v1"

// Version is reported by the welcome route.
const Version = "1.0.0"

// Config holds the controllers and middlewares served by the router.
type Config struct {
	Users     *controllers.UserController
	Products  *controllers.ProductController
	Cart      *controllers.CartController
	Wishlist  *controllers.WishlistController
	Orders    *controllers.OrderController
	OrderFeed *controllers.OrderFeed
	Reviews   *controllers.ReviewController
	Addresses *controllers.AddressController

	Auth   *middleware.Auth
	Errors *controllers.ErrorHandler
	Logger *zap.Logger

	// Metrics and Gatherer are optional. /metrics is served when both are set.
	Metrics  *middleware.Metrics
	Gatherer prometheus.Gatherer

	CORSOrigin  string
	Environment string
}

// New returns the API handler with the global middlewares applied.
func New(c Config) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(c.Errors.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(c.Errors.MethodNotAllowed)

	router.HandleFunc("/health", health(c.Environment)).Methods(http.MethodGet)
	if c.Metrics != nil && c.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(c.Gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	api := router.PathPrefix(APIPrefix).Subrouter()
	api.HandleFunc("", welcome).Methods(http.MethodGet)
	RegisterRoutes(api, c)

	mws := []middleware.Middleware{
		middleware.RequestID,
		middleware.Logging(c.Logger),
		middleware.Recover(c.Logger, c.Errors.HandleHTTPError),
	}
	if c.Metrics != nil {
		mws = append(mws, c.Metrics.Handler("api"))
	}
	mws = append(mws,
		middleware.CORS(middleware.DefaultCORS(c.CORSOrigin)),
		middleware.SecureHeaders,
		middleware.BodyLimit(middleware.MaxBodyBytes, c.Errors.HandleHTTPError),
	)
	return middleware.Chain(router, mws...)
}

// RegisterRoutes sets up all the API routes on router
func RegisterRoutes(router *mux.Router, c Config) {
	protected := func(h http.HandlerFunc) http.Handler {
		return c.Auth.Authenticate(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return c.Auth.Authenticate(c.Auth.AdminOnly(h))
	}
	get, post, put, del := http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete

	// Auth routes
	auth := router.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", c.Users.Register).Methods(post)
	auth.HandleFunc("/login", c.Users.Login).Methods(post)
	auth.HandleFunc("/refresh", c.Users.Refresh).Methods(post)
	auth.Handle("/me", protected(c.Users.GetProfile)).Methods(get)
	auth.Handle("/profile", protected(c.Users.UpdateProfile)).Methods(put)
	auth.Handle("/change-password", protected(c.Users.ChangePassword)).Methods(put)
	auth.Handle("/logout", protected(c.Users.Logout)).Methods(post)

	router.HandleFunc("/categories", c.Products.GetCategories).Methods(get)

	// Product routes, static paths before /{id}
	products := router.PathPrefix("/products").Subrouter()
	products.HandleFunc("", c.Products.GetProducts).Methods(get)
	products.HandleFunc("/featured", c.Products.GetFeatured).Methods(get)
	products.HandleFunc("/slug/{slug}", c.Products.GetProductBySlug).Methods(get)
	products.Handle("/admin/export", admin(c.Products.ExportProducts)).Methods(get)
	products.HandleFunc("/{id}", c.Products.GetProductByID).Methods(get)
	products.HandleFunc("/{id}/similar", c.Products.GetSimilar).Methods(get)
	products.Handle("", admin(c.Products.CreateProduct)).Methods(post)
	products.Handle("/{id}", admin(c.Products.UpdateProduct)).Methods(put)
	products.Handle("/{id}", admin(c.Products.DeleteProduct)).Methods(del)

	// Cart routes
	cart := router.PathPrefix("/cart").Subrouter()
	cart.Use(c.Auth.Authenticate)
	cart.HandleFunc("", c.Cart.GetCart).Methods(get)
	cart.HandleFunc("", c.Cart.AddToCart).Methods(post)
	cart.HandleFunc("", c.Cart.ClearCart).Methods(del)
	cart.HandleFunc("/{id}", c.Cart.UpdateCartItem).Methods(put)
	cart.HandleFunc("/{id}", c.Cart.RemoveFromCart).Methods(del)

	// Wishlist routes
	wishlist := router.PathPrefix("/wishlist").Subrouter()
	wishlist.Use(c.Auth.Authenticate)
	wishlist.HandleFunc("", c.Wishlist.GetWishlist).Methods(get)
	wishlist.HandleFunc("", c.Wishlist.AddToWishlist).Methods(post)
	wishlist.HandleFunc("", c.Wishlist.ClearWishlist).Methods(del)
	wishlist.HandleFunc("/{productId}", c.Wishlist.RemoveFromWishlist).Methods(del)

	// Order routes, admin paths before /{id}
	orders := router.PathPrefix("/orders").Subrouter()
	orders.Handle("/admin/all", admin(c.Orders.GetAllOrders)).Methods(get)
	orders.Handle("/admin/stats", admin(c.Orders.GetOrderStats)).Methods(get)
	if c.OrderFeed != nil {
		orders.Handle("/admin/feed", admin(c.OrderFeed.Serve)).Methods(get)
	}
	orders.Handle("/admin/{id}", admin(c.Orders.GetOrderAdmin)).Methods(get)
	orders.Handle("/admin/{id}/status", admin(c.Orders.UpdateOrderStatus)).Methods(put)
	orders.Handle("/admin/{id}/payment", admin(c.Orders.UpdateOrderPaymentStatus)).Methods(put)
	orders.Handle("", protected(c.Orders.CreateOrder)).Methods(post)
	orders.Handle("", protected(c.Orders.GetOrders)).Methods(get)
	orders.Handle("/{id}", protected(c.Orders.GetOrder)).Methods(get)
	orders.Handle("/{id}/cancel", protected(c.Orders.CancelOrder)).Methods(put)

	// Review routes
	reviews := router.PathPrefix("/reviews").Subrouter()
	reviews.Handle("", protected(c.Reviews.CreateReview)).Methods(post)
	reviews.HandleFunc("/product/{productId}", c.Reviews.GetProductReviews).Methods(get)
	reviews.Handle("/{id}", protected(c.Reviews.DeleteReview)).Methods(del)

	// Address routes
	addresses := router.PathPrefix("/addresses").Subrouter()
	addresses.Use(c.Auth.Authenticate)
	addresses.HandleFunc("", c.Addresses.GetAddresses).Methods(get)
	addresses.HandleFunc("", c.Addresses.CreateAddress).Methods(post)
	addresses.HandleFunc("/{id}", c.Addresses.GetAddress).Methods(get)
	addresses.HandleFunc("/{id}", c.Addresses.UpdateAddress).Methods(put)
	addresses.HandleFunc("/{id}", c.Addresses.DeleteAddress).Methods(del)
	addresses.HandleFunc("/{id}/default", c.Addresses.SetDefaultAddress).Methods(put)
}

func health(env string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, map[string]interface{}{
			"success":     true,
			"message":     "LuxVision API is running",
			"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
			"environment": env,
		})
	}
}

func welcome(w http.ResponseWriter, r *http.Request) {
	writeBody(w, map[string]interface{}{
		"success": true,
		"message": "Bienvenue sur l'API LuxVision",
		"version": Version,
		"endpoints": map[string]string{
			"auth":      APIPrefix + "/auth",
			"products":  APIPrefix + "/products",
			"cart":      APIPrefix + "/cart",
			"wishlist":  APIPrefix + "/wishlist",
			"orders":    APIPrefix + "/orders",
			"reviews":   APIPrefix + "/reviews",
			"addresses": APIPrefix + "/addresses",
		},
	})
}

func writeBody(w http.ResponseWriter, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}
