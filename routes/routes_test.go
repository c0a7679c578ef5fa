package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap/zaptest"

	"luxvision/controllers"
	"luxvision/middleware"
	"luxvision/models"
	"luxvision/services"
	"luxvision/store/sqlite"
	"luxvision/utils"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
	store   *sqlite.SqlStore
	orders  *services.OrderService
	feed    *services.Feed
	product *models.Product
	admin   string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	ctx := context.Background()
	log := zaptest.NewLogger(t)
	store := sqlite.NewTestStore(t)

	tokens := utils.NewTokenIssuer(utils.TokenConfig{
		AccessSecret:  "access",
		RefreshSecret: "refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "luxvision-api",
		Audience:      "luxvision-client",
	})
	authSvc := services.NewAuthService(store, tokens, log)
	cache := services.NewCache(time.Minute, 0)
	t.Cleanup(cache.Close)
	products := services.NewProductService(store, cache, log)
	feed := services.NewFeed(8)
	orders := services.NewOrderService(services.OrderServiceConfig{
		Store:        store,
		Products:     products,
		Emails:       utils.NewEmailService(nil, log),
		Feed:         feed,
		ShippingCost: services.DefaultShippingCost,
		Logger:       log,
	})
	t.Cleanup(orders.Wait)

	reg := prometheus.NewRegistry()
	eh := controllers.NewErrorHandler(log, true)
	handler := New(Config{
		Users:       controllers.NewUserController(authSvc, eh),
		Products:    controllers.NewProductController(products, eh),
		Cart:        controllers.NewCartController(services.NewCartService(store), eh),
		Wishlist:    controllers.NewWishlistController(services.NewWishlistService(store), eh),
		Orders:      controllers.NewOrderController(orders, eh),
		OrderFeed:   controllers.NewOrderFeed(feed, "*", log),
		Reviews:     controllers.NewReviewController(services.NewReviewService(store, products, log), eh),
		Addresses:   controllers.NewAddressController(services.NewAddressService(store), eh),
		Auth:        middleware.NewAuth(authSvc, eh.HandleHTTPError),
		Errors:      eh,
		Logger:      log,
		Metrics:     middleware.NewMetrics(reg),
		Gatherer:    reg,
		CORSOrigin:  "http://localhost:5173",
		Environment: "test",
	})

	cat := &models.Category{Name: "Lunettes de vue", Slug: "optical"}
	require.NoError(t, store.CreateCategory(ctx, cat))
	p := &models.Product{
		Name: "Classic Round", Slug: "classic-round", Brand: "LuxVision", Price: 95000,
		CategoryID: cat.ID, Gender: models.GenderUnisex, Stock: 12,
		Images: models.StringList{"/img/classic-round.jpg"}, IsActive: true,
	}
	require.NoError(t, store.CreateProduct(ctx, p))

	hash, err := utils.HashPassword("password123")
	require.NoError(t, err)
	require.NoError(t, store.CreateUser(ctx, &models.User{
		Email: "admin@luxvision.cg", Password: hash, FirstName: "Admin", LastName: "LuxVision", Role: models.RoleAdmin,
	}))

	api := &testAPI{t: t, handler: handler, store: store, orders: orders, feed: feed, product: p}
	api.admin = api.login("admin@luxvision.cg", "password123")
	return api
}

type response struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (a *testAPI) do(method, path, token string, body interface{}) (int, response) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, r)

	var res response
	require.NoError(a.t, json.NewDecoder(rec.Body).Decode(&res), "body of %s %s", method, path)
	return rec.Code, res
}

func (a *testAPI) login(email, password string) string {
	a.t.Helper()
	status, res := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, status, res.Message)
	var data models.AuthResult
	require.NoError(a.t, json.Unmarshal(res.Data, &data))
	return data.Tokens.AccessToken
}

func (a *testAPI) register(email string) models.AuthResult {
	a.t.Helper()
	status, res := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "password123", "firstName": "Jean", "lastName": "Dupont",
	})
	require.Equal(a.t, http.StatusCreated, status, res.Message)
	assert.Equal(a.t, "Compte créé avec succès", res.Message)
	var data models.AuthResult
	require.NoError(a.t, json.Unmarshal(res.Data, &data))
	return data
}

func unmarshal(t *testing.T, raw json.RawMessage, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestHealthAndUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	status, res := api.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "LuxVision API is running", res.Message)

	status, res = api.do(http.MethodGet, "/api/v1", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Bienvenue sur l'API LuxVision", res.Message)

	status, res = api.do(http.MethodGet, "/api/v1/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, res.Success)
	assert.Equal(t, "Route GET /api/v1/nope non trouvée", res.Message)

	status, res = api.do(http.MethodPatch, "/api/v1/cart", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Route PATCH /api/v1/cart non trouvée", res.Message)
}

func TestAuthRoutes(t *testing.T) {
	api := newTestAPI(t)
	reg := api.register("Client@Example.com")
	assert.Equal(t, "client@example.com", reg.User.Email)
	assert.Equal(t, models.RoleCustomer, reg.User.Role)

	status, res := api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "client@example.com", "password": "password123", "firstName": "J", "lastName": "D",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Un compte existe déjà avec cet email", res.Message)

	status, res = api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "client@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Email ou mot de passe incorrect", res.Message)

	status, res = api.do(http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token d'authentification manquant", res.Message)

	status, res = api.do(http.MethodGet, "/api/v1/auth/me", reg.Tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, status)
	var me struct{ User models.User }
	unmarshal(t, res.Data, &me)
	assert.Equal(t, reg.User.ID, me.User.ID)
	assert.NotContains(t, string(res.Data), "password")

	status, res = api.do(http.MethodPost, "/api/v1/auth/refresh", "", map[string]string{"refreshToken": reg.Tokens.RefreshToken})
	require.Equal(t, http.StatusOK, status)
	var refreshed struct{ Tokens models.TokenPair }
	unmarshal(t, res.Data, &refreshed)
	assert.NotEmpty(t, refreshed.Tokens.AccessToken)

	// a refresh token is not an access token
	status, _ = api.do(http.MethodGet, "/api/v1/auth/me", reg.Tokens.RefreshToken, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, res = api.do(http.MethodPut, "/api/v1/auth/change-password", reg.Tokens.AccessToken, map[string]string{
		"oldPassword": "password123", "newPassword": "newpass456",
	})
	require.Equal(t, http.StatusOK, status, res.Message)
	api.login("client@example.com", "newpass456")

	status, res = api.do(http.MethodPost, "/api/v1/auth/logout", reg.Tokens.AccessToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Déconnexion réussie", res.Message)
}

func TestInvalidBody(t *testing.T) {
	api := newTestAPI(t)
	r := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Données invalides")
}

func TestCatalogRoutes(t *testing.T) {
	api := newTestAPI(t)
	customer := api.register("client@example.com").Tokens.AccessToken

	status, res := api.do(http.MethodGet, "/api/v1/products?category=optical&limit=5", "", nil)
	require.Equal(t, http.StatusOK, status)
	var page models.ProductPage
	unmarshal(t, res.Data, &page)
	require.Len(t, page.Products, 1)
	assert.Equal(t, 5, page.Pagination.Limit)

	status, _ = api.do(http.MethodGet, "/api/v1/products/slug/classic-round", "", nil)
	assert.Equal(t, http.StatusOK, status)

	status, res = api.do(http.MethodGet, "/api/v1/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Produit non trouvé", res.Message)

	newProduct := map[string]interface{}{
		"name": "Aviator Pro", "slug": "aviator-pro", "brand": "LuxVision", "price": 125000,
		"categoryId": api.product.CategoryID, "gender": "UNISEX", "stock": 8,
	}
	status, res = api.do(http.MethodPost, "/api/v1/products", customer, newProduct)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Accès refusé - Permissions insuffisantes", res.Message)

	status, res = api.do(http.MethodPost, "/api/v1/products", api.admin, newProduct)
	require.Equal(t, http.StatusCreated, status, res.Message)
	assert.Equal(t, "Produit créé avec succès", res.Message)

	status, res = api.do(http.MethodGet, "/api/v1/categories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(res.Data), "optical")
}

func TestExportRoute(t *testing.T) {
	api := newTestAPI(t)
	r := httptest.NewRequest(http.MethodGet, "/api/v1/products/admin/export", nil)
	r.Header.Set("Authorization", "Bearer "+api.admin)
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	file, err := xlsx.OpenBinary(rec.Body.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	assert.Len(t, file.Sheets[0].Rows, 2)
}

func TestCheckoutRoutes(t *testing.T) {
	api := newTestAPI(t)
	customer := api.register("client@example.com").Tokens.AccessToken
	pid := api.product.ID

	status, res := api.do(http.MethodPost, "/api/v1/cart", customer, map[string]interface{}{"productId": pid, "quantity": 2})
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, "Produit ajouté au panier", res.Message)

	status, res = api.do(http.MethodGet, "/api/v1/cart", customer, nil)
	require.Equal(t, http.StatusOK, status)
	var cart models.Cart
	unmarshal(t, res.Data, &cart)
	assert.Equal(t, int64(190000), cart.Subtotal)

	status, res = api.do(http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
		"items":           []map[string]interface{}{{"productId": pid, "quantity": 20}},
		"shippingAddress": testShipping,
		"paymentMethod":   "MOBILE_MONEY",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Stock insuffisant pour Classic Round. Disponible: 12, demandé: 20", res.Message)

	status, res = api.do(http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
		"items":           []map[string]interface{}{{"productId": pid, "quantity": 2}},
		"shippingAddress": testShipping,
		"paymentMethod":   "MOBILE_MONEY",
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	assert.Equal(t, "Commande créée avec succès", res.Message)
	var created struct{ Order models.Order }
	unmarshal(t, res.Data, &created)
	assert.Equal(t, int64(195000), created.Order.TotalAmount)
	assert.Equal(t, 10, stock(t, api))

	status, res = api.do(http.MethodGet, "/api/v1/cart", customer, nil)
	require.Equal(t, http.StatusOK, status)
	unmarshal(t, res.Data, &cart)
	assert.Empty(t, cart.Items)

	status, _ = api.do(http.MethodGet, "/api/v1/orders/admin/stats", customer, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, res = api.do(http.MethodGet, "/api/v1/orders/admin/all?status=PENDING", api.admin, nil)
	require.Equal(t, http.StatusOK, status)
	var page models.OrderPage
	unmarshal(t, res.Data, &page)
	require.Len(t, page.Orders, 1)
	assert.Equal(t, "client@example.com", page.Orders[0].User.Email)

	status, res = api.do(http.MethodPut, "/api/v1/orders/"+created.Order.ID+"/cancel", customer, nil)
	require.Equal(t, http.StatusOK, status, res.Message)
	assert.Equal(t, "Commande annulée avec succès", res.Message)
	assert.Equal(t, 12, stock(t, api))

	status, res = api.do(http.MethodPut, "/api/v1/orders/"+created.Order.ID+"/cancel", customer, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Cette commande est déjà annulée", res.Message)
}

var testShipping = models.ShippingAddress{
	FirstName: "Jean", LastName: "Dupont", Phone: "+242 06 000 00 00",
	Address: "12 avenue de l'Indépendance", City: "Pointe-Noire", State: "Kouilou", ZipCode: "00242",
}

func stock(t *testing.T, api *testAPI) int {
	t.Helper()
	p, err := api.store.FindProductByID(context.Background(), api.product.ID)
	require.NoError(t, err)
	return p.Stock
}

func TestAddressAndReviewRoutes(t *testing.T) {
	api := newTestAPI(t)
	customer := api.register("client@example.com").Tokens.AccessToken
	other := api.register("other@example.com").Tokens.AccessToken

	status, res := api.do(http.MethodPost, "/api/v1/addresses", customer, testShipping)
	require.Equal(t, http.StatusCreated, status, res.Message)
	var created struct{ Address models.Address }
	unmarshal(t, res.Data, &created)
	assert.True(t, created.Address.IsDefault)
	assert.Equal(t, "Congo", created.Address.Country)

	status, _ = api.do(http.MethodGet, "/api/v1/addresses/"+created.Address.ID, other, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, res = api.do(http.MethodPost, "/api/v1/reviews", customer, map[string]interface{}{
		"productId": api.product.ID, "rating": 5, "comment": "Très confortables",
	})
	require.Equal(t, http.StatusCreated, status, res.Message)
	assert.Equal(t, "Avis ajouté avec succès", res.Message)
	var review struct{ Review models.Review }
	unmarshal(t, res.Data, &review)

	status, _ = api.do(http.MethodPost, "/api/v1/reviews", customer, map[string]interface{}{
		"productId": api.product.ID, "rating": 4, "comment": "Encore",
	})
	assert.Equal(t, http.StatusConflict, status)

	status, _ = api.do(http.MethodDelete, "/api/v1/reviews/"+review.Review.ID, other, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, res = api.do(http.MethodGet, "/api/v1/reviews/product/"+api.product.ID, "", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct{ Reviews []models.Review }
	unmarshal(t, res.Data, &list)
	require.Len(t, list.Reviews, 1)
	assert.Equal(t, "Jean", list.Reviews[0].User.FirstName)
}

func TestOrderFeedRoute(t *testing.T) {
	api := newTestAPI(t)
	customer := api.register("client@example.com").Tokens.AccessToken
	srv := httptest.NewServer(api.handler)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/orders/admin/feed"

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + customer}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Authorization": {"Bearer " + api.admin}})
	require.NoError(t, err)
	defer conn.Close()

	// the subscription is registered once the handler runs
	require.Eventually(t, func() bool { return api.feed.Subscribers() == 1 }, time.Second, 10*time.Millisecond)

	status, res := api.do(http.MethodPost, "/api/v1/orders", customer, map[string]interface{}{
		"items":           []map[string]interface{}{{"productId": api.product.ID, "quantity": 1}},
		"shippingAddress": testShipping,
		"paymentMethod":   "CASH_ON_DELIVERY",
	})
	require.Equal(t, http.StatusCreated, status, res.Message)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var ev services.OrderEvent
	require.NoError(t, conn.ReadJSON(&ev))
	assert.Equal(t, services.EventOrderCreated, ev.Type)
	assert.Equal(t, int64(100000), ev.Order.TotalAmount)
}

func TestMetricsRoute(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodGet, "/api/v1/products", "", nil)

	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `luxvision_http_requests_total{handler="api",method="GET",path="/api/v1/products"`)
}

func TestCORSPreflight(t *testing.T) {
	api := newTestAPI(t)
	r := httptest.NewRequest(http.MethodOptions, "/api/v1/cart", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
}
