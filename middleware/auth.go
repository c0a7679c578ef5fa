package middleware

import (
	"context"
	"net/http"
	"strings"

	"luxvision/models"
)

type contextKey string

const userContextKey = contextKey("user")

var (
	errMissingToken     = &models.Error{Code: models.EUnauthorized, Msg: "Token d'authentification manquant"}
	errNotAuthenticated = &models.Error{Code: models.EUnauthorized, Msg: "Non authentifié"}
	errAccessDenied     = &models.Error{Code: models.EForbidden, Msg: "Accès refusé - Permissions insuffisantes"}
)

// Authenticator resolves the account behind an access token.
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*models.User, error)
}

// NewContextWithUser returns a context carrying the authenticated user.
func NewContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the authenticated user of a request, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok && u != nil
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(h[len("Bearer "):])
	return token, token != ""
}

// Auth guards routes with bearer access tokens.
type Auth struct {
	authn Authenticator
	onErr ErrorFunc
}

// NewAuth returns the authentication middlewares backed by authn. Rejections
// are rendered with onErr.
func NewAuth(authn Authenticator, onErr ErrorFunc) *Auth {
	return &Auth{authn: authn, onErr: onErr}
}

// Authenticate rejects requests without a valid access token.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			a.onErr(w, r, errMissingToken)
			return
		}
		u, err := a.authn.Authenticate(r.Context(), token)
		if err != nil {
			a.onErr(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContextWithUser(r.Context(), u)))
	})
}

// OptionalAuth attaches the user when a valid token is sent and ignores
// invalid ones.
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := bearerToken(r); ok {
			if u, err := a.authn.Authenticate(r.Context(), token); err == nil {
				r = r.WithContext(NewContextWithUser(r.Context(), u))
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Authorize only lets users with one of roles through. It must run after
// Authenticate.
func (a *Auth) Authorize(roles ...models.Role) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				a.onErr(w, r, errNotAuthenticated)
				return
			}
			for _, role := range roles {
				if u.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			a.onErr(w, r, errAccessDenied)
		})
	}
}

// AdminOnly is Authorize for the back-office roles.
func (a *Auth) AdminOnly(next http.Handler) http.Handler {
	return a.Authorize(models.RoleAdmin, models.RoleSuperAdmin)(next)
}
