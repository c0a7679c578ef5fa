package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"luxvision/models"
)

func writeEnvelope(w http.ResponseWriter, status int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": status < http.StatusBadRequest,
		"message": message,
		"data":    data,
	})
}

type fakeAPI struct {
	meCalls      int32
	refreshCalls int32
	// validAccess is the only access token accepted by /auth/me.
	validAccess string
	// refreshOK makes /auth/refresh hand out issued, or validAccess when empty.
	refreshOK bool
	issued    string
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/auth/me":
		atomic.AddInt32(&f.meCalls, 1)
		if r.Header.Get("Authorization") != "Bearer "+f.validAccess {
			writeEnvelope(w, http.StatusUnauthorized, "Token expiré", nil)
			return
		}
		writeEnvelope(w, http.StatusOK, "", map[string]interface{}{
			"user": models.User{ID: "u1", Email: "client@example.com", Role: models.RoleCustomer},
		})
	case "/api/v1/auth/refresh":
		atomic.AddInt32(&f.refreshCalls, 1)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if !f.refreshOK || body.RefreshToken != "old-refresh" {
			writeEnvelope(w, http.StatusUnauthorized, "Refresh token invalide ou expiré", nil)
			return
		}
		access := f.issued
		if access == "" {
			access = f.validAccess
		}
		writeEnvelope(w, http.StatusOK, "Token rafraîchi avec succès", map[string]interface{}{
			"tokens": models.TokenPair{AccessToken: access, RefreshToken: "new-refresh"},
		})
	case "/api/v1/auth/login":
		writeEnvelope(w, http.StatusUnauthorized, "Email ou mot de passe incorrect", nil)
	case "/api/v1/broken":
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	default:
		writeEnvelope(w, http.StatusNotFound, "Route "+r.Method+" "+r.URL.Path+" non trouvée", nil)
	}
}

func newFakeClient(t *testing.T, api *fakeAPI, pair models.TokenPair) (*Client, *int32) {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	var expired int32
	tokens := &MemoryTokens{}
	require.NoError(t, tokens.SetTokens(pair))
	c, err := New(srv.URL+"/api/v1",
		WithHTTPClient(srv.Client()),
		WithTokenStore(tokens),
		WithSessionExpired(func() { atomic.AddInt32(&expired, 1) }),
	)
	require.NoError(t, err)
	return c, &expired
}

func TestRefreshAndRetry(t *testing.T) {
	api := &fakeAPI{validAccess: "new-access", refreshOK: true}
	c, expired := newFakeClient(t, api, models.TokenPair{AccessToken: "old-access", RefreshToken: "old-refresh"})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	assert.Equal(t, int32(2), atomic.LoadInt32(&api.meCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.refreshCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(expired))
	assert.Equal(t, "new-access", c.Tokens().AccessToken())
	assert.Equal(t, "new-refresh", c.Tokens().RefreshToken())
}

func TestRetryHappensOnce(t *testing.T) {
	// refresh succeeds but hands out a token /auth/me still rejects
	api := &fakeAPI{validAccess: "valid", refreshOK: true, issued: "rejected"}
	c, _ := newFakeClient(t, api, models.TokenPair{AccessToken: "old-access", RefreshToken: "old-refresh"})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, int32(2), atomic.LoadInt32(&api.meCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(&api.refreshCalls))
}

func TestSessionExpiredWithoutRefreshToken(t *testing.T) {
	api := &fakeAPI{validAccess: "valid"}
	c, expired := newFakeClient(t, api, models.TokenPair{AccessToken: "stale"})

	_, err := c.Me(context.Background())
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token expiré", apiErr.Message)

	assert.Equal(t, int32(0), atomic.LoadInt32(&api.refreshCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(expired))
	assert.Empty(t, c.Tokens().AccessToken())
}

func TestSessionExpiredWhenRefreshFails(t *testing.T) {
	api := &fakeAPI{validAccess: "valid"}
	c, expired := newFakeClient(t, api, models.TokenPair{AccessToken: "stale", RefreshToken: "old-refresh"})

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Refresh token invalide ou expiré (status 401)", err.Error())

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.refreshCalls))
	assert.Equal(t, int32(1), atomic.LoadInt32(expired))
	assert.Empty(t, c.Tokens().AccessToken())
	assert.Empty(t, c.Tokens().RefreshToken())
}

func TestBadCredentialsDoNotRefresh(t *testing.T) {
	api := &fakeAPI{validAccess: "valid", refreshOK: true}
	c, expired := newFakeClient(t, api, models.TokenPair{AccessToken: "a", RefreshToken: "old-refresh"})

	_, err := c.Login(context.Background(), "client@example.com", "wrong")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Equal(t, int32(0), atomic.LoadInt32(&api.refreshCalls))
	assert.Equal(t, int32(0), atomic.LoadInt32(expired))
	assert.Equal(t, "a", c.Tokens().AccessToken())
}

func TestErrorDecoding(t *testing.T) {
	c, _ := newFakeClient(t, &fakeAPI{}, models.TokenPair{})
	ctx := context.Background()

	err := c.do(ctx, http.MethodGet, "/unknown", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, &Error{Status: http.StatusNotFound, Message: "Route GET /api/v1/unknown non trouvée"}, err)

	err = c.do(ctx, http.MethodGet, "/broken", nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, &Error{Status: http.StatusBadGateway, Message: "Bad Gateway"}, err)

	assert.Equal(t, 0, StatusCode(assert.AnError))
}

func TestNew(t *testing.T) {
	_, err := New("not a url")
	assert.Error(t, err)

	c, err := New("http://localhost:5000/api/v1/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api/v1/products?limit=4", c.url("/products", limitQuery(4)))
	assert.IsType(t, &MemoryTokens{}, c.Tokens())
}

func TestProductQuery(t *testing.T) {
	min, max := int64(50000), int64(100000)
	featured := true
	q := productQuery(models.ProductFilter{
		CategorySlug: "optical",
		Gender:       models.GenderWomen,
		MinPrice:     &min,
		MaxPrice:     &max,
		IsFeatured:   &featured,
		Page:         2,
		Limit:        6,
		SortBy:       models.SortByPrice,
		SortOrder:    "asc",
	})
	assert.Equal(t,
		"category=optical&gender=WOMEN&isFeatured=true&limit=6&maxPrice=100000&minPrice=50000&page=2&sortBy=price&sortOrder=asc",
		q.Encode())
	assert.Empty(t, productQuery(models.ProductFilter{}).Encode())
}
