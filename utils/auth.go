package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"

	"luxvision/models"
)

// PasswordCost is the bcrypt cost used for account passwords.
const PasswordCost = 12

// Token verification errors.
var (
	ErrTokenExpired = &models.Error{Code: models.EUnauthorized, Msg: "Token expiré"}
	ErrTokenInvalid = &models.Error{Code: models.EUnauthorized, Msg: "Token invalide"}
)

// Claims represents the JWT claims
type Claims struct {
	UserID string      `json:"userId"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
	jwt.StandardClaims
}

// TokenConfig holds the signing parameters of a TokenIssuer.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
	Audience      string
}

// TokenIssuer signs and verifies access and refresh tokens with distinct secrets.
type TokenIssuer struct {
	cfg TokenConfig
	now func() time.Time
}

// NewTokenIssuer returns an issuer for cfg.
func NewTokenIssuer(cfg TokenConfig) *TokenIssuer {
	return &TokenIssuer{cfg: cfg, now: time.Now}
}

// GeneratePair signs a fresh access/refresh pair for u.
func (ti *TokenIssuer) GeneratePair(u *models.User) (models.TokenPair, error) {
	access, err := ti.sign(u, ti.cfg.AccessSecret, ti.cfg.AccessTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	refresh, err := ti.sign(u, ti.cfg.RefreshSecret, ti.cfg.RefreshTTL)
	if err != nil {
		return models.TokenPair{}, err
	}
	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (ti *TokenIssuer) sign(u *models.User, secret string, ttl time.Duration) (string, error) {
	now := ti.now()
	claims := &Claims{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		StandardClaims: jwt.StandardClaims{
			Audience:  ti.cfg.Audience,
			Issuer:    ti.cfg.Issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return s, nil
}

// VerifyAccess parses an access token.
func (ti *TokenIssuer) VerifyAccess(token string) (*Claims, error) {
	return ti.verify(token, ti.cfg.AccessSecret)
}

// VerifyRefresh parses a refresh token.
func (ti *TokenIssuer) VerifyRefresh(token string) (*Claims, error) {
	return ti.verify(token, ti.cfg.RefreshSecret)
}

func (ti *TokenIssuer) verify(tokenStr, secret string) (*Claims, error) {
	claims := &Claims{}
	parser := &jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	token, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		var verr *jwt.ValidationError
		if errors.As(err, &verr) && verr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return nil, ErrTokenInvalid
	}
	if !claims.VerifyIssuer(ti.cfg.Issuer, true) || !claims.VerifyAudience(ti.cfg.Audience, true) {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// HashPassword hashes a plain password with PasswordCost.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
