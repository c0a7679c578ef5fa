package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"luxvision/logger"
	"luxvision/models"
)

type fakeAuthn map[string]*models.User

func (f fakeAuthn) Authenticate(_ context.Context, token string) (*models.User, error) {
	if u, ok := f[token]; ok {
		return u, nil
	}
	return nil, &models.Error{Code: models.EUnauthorized, Msg: "Token invalide"}
}

// renderErr writes the code and message so tests can assert on both.
func renderErr(w http.ResponseWriter, _ *http.Request, err error) {
	status := map[string]int{
		models.EUnauthorized: http.StatusUnauthorized,
		models.EForbidden:    http.StatusForbidden,
		models.ETooLarge:     http.StatusRequestEntityTooLarge,
	}[models.ErrorCode(err)]
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": models.ErrorMessage(err)})
}

func whoami(w http.ResponseWriter, r *http.Request) {
	if u, ok := UserFromContext(r.Context()); ok {
		io.WriteString(w, u.Email)
		return
	}
	io.WriteString(w, "guest")
}

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func message(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body["message"]
}

func TestAuthenticate(t *testing.T) {
	authn := fakeAuthn{
		"customer": {ID: "u1", Email: "client@example.com", Role: models.RoleCustomer},
		"admin":    {ID: "u2", Email: "admin@luxvision.cg", Role: models.RoleAdmin},
	}
	a := NewAuth(authn, renderErr)
	protected := a.Authenticate(http.HandlerFunc(whoami))
	admin := a.Authenticate(a.AdminOnly(http.HandlerFunc(whoami)))

	tests := []struct {
		name    string
		handler http.Handler
		header  string
		status  int
		body    string
	}{
		{"no header", protected, "", http.StatusUnauthorized, "Token d'authentification manquant"},
		{"not bearer", protected, "Basic abc", http.StatusUnauthorized, "Token d'authentification manquant"},
		{"bad token", protected, "Bearer nope", http.StatusUnauthorized, "Token invalide"},
		{"customer", protected, "Bearer customer", http.StatusOK, "client@example.com"},
		{"customer on admin route", admin, "Bearer customer", http.StatusForbidden, "Accès refusé - Permissions insuffisantes"},
		{"admin", admin, "Bearer admin", http.StatusOK, "admin@luxvision.cg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := serve(tt.handler, r)
			require.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Equal(t, tt.body, message(t, rec))
			}
		})
	}
}

func TestAuthorizeWithoutUser(t *testing.T) {
	a := NewAuth(fakeAuthn{}, renderErr)
	rec := serve(a.Authorize(models.RoleAdmin)(http.HandlerFunc(whoami)), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Non authentifié", message(t, rec))
}

func TestOptionalAuth(t *testing.T) {
	a := NewAuth(fakeAuthn{"ok": {Email: "client@example.com"}}, renderErr)
	h := a.OptionalAuth(http.HandlerFunc(whoami))

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "guest", serve(h, r).Body.String())

	r.Header.Set("Authorization", "Bearer broken")
	assert.Equal(t, "guest", serve(h, r).Body.String())

	r.Header.Set("Authorization", "Bearer ok")
	assert.Equal(t, "client@example.com", serve(h, r).Body.String())
}

func TestCORS(t *testing.T) {
	h := CORS(DefaultCORS("http://localhost:5173"))(http.HandlerFunc(whoami))

	r := httptest.NewRequest(http.MethodOptions, "/api/v1/products", nil)
	r.Header.Set("Origin", "http://localhost:5173")
	r.Header.Set("Access-Control-Request-Method", "POST")
	rec := serve(h, r)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "GET, POST, PUT, DELETE, PATCH, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Origin", "http://evil.example")
	rec = serve(h, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRequestIDAndLogging(t *testing.T) {
	log := zaptest.NewLogger(t)
	var sawLogger bool
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = logger.FromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}), RequestID, Logging(log))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)
	assert.True(t, sawLogger)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", serve(h, r).Header().Get(RequestIDHeader))
}

func TestRecover(t *testing.T) {
	h := Recover(zaptest.NewLogger(t), renderErr)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(8, renderErr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"big":"payload"}`)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"big":"payload"}`))
	r.ContentLength = -1
	serve(h, r)
	assert.True(t, IsBodyTooLarge(readErr))

	serve(h, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`)))
	assert.NoError(t, readErr)
}

func TestSecureHeaders(t *testing.T) {
	rec := serve(SecureHeaders(http.HandlerFunc(whoami)), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := m.Handler("api")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
		}
	}))

	serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/products/3f1c2a9e-4b7d-4c1e-9a55-0d6f3b2e8c71", nil))
	serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/products/8a0be4f2-1d3c-4e6a-b7f9-2c5d8e1a4b63", nil))
	serve(h, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, 1, testutil.CollectAndCount(m.requests))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.With(prometheus.Labels{
		"handler":       "api",
		"method":        http.MethodGet,
		"path":          "/api/v1/products/:id",
		"status":        "2XX",
		"response_code": "200",
		"user_agent":    "unknown",
	})))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "/api/v1/products/slug/:slug", normalizePath("/api/v1/products/slug/classic-round"))
	assert.Equal(t, "/api/v1/orders/:id/cancel", normalizePath("/api/v1/orders/3f1c2a9e-4b7d-4c1e-9a55-0d6f3b2e8c71/cancel"))
	assert.Equal(t, "/health", normalizePath("/health"))
}
