package services

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"luxvision/models"
	"luxvision/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minPasswordLen = 6

var (
	errBadCredentials = &models.Error{Code: models.EUnauthorized, Msg: "Email ou mot de passe incorrect"}
	errBadRefresh     = &models.Error{Code: models.EUnauthorized, Msg: "Refresh token invalide ou expiré"}
	errUserNotFound   = &models.Error{Code: models.ENotFound, Msg: "Utilisateur non trouvé"}
)

// RegisterInput is the sign-up request.
type RegisterInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone"`
}

// AuthService manages accounts and their tokens.
type AuthService struct {
	users  UserStore
	tokens *utils.TokenIssuer
	log    *zap.Logger
}

// NewAuthService returns an AuthService.
func NewAuthService(users UserStore, tokens *utils.TokenIssuer, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log}
}

// Register creates a CUSTOMER account and signs it in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.AuthResult, error) {
	const op = "services.Register"

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		return nil, models.Invalid(op, "Tous les champs obligatoires doivent être remplis")
	}
	if !emailPattern.MatchString(email) {
		return nil, models.Invalid(op, "Format d'email invalide")
	}
	if len(in.Password) < minPasswordLen {
		return nil, models.Invalid(op, "Le mot de passe doit contenir au moins 6 caractères")
	}

	if _, err := s.users.FindUserByEmail(ctx, email); err == nil {
		return nil, &models.Error{Code: models.EConflict, Op: op, Msg: "Un compte existe déjà avec cet email"}
	} else if models.ErrorCode(err) != models.ENotFound {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, models.Internal(op, err)
	}

	u := &models.User{
		Email:     email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Phone:     in.Phone,
		Role:      models.RoleCustomer,
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		// lost the race against a concurrent sign-up
		if models.ErrorCode(err) == models.EConflict {
			return nil, &models.Error{Code: models.EConflict, Op: op, Msg: "Un compte existe déjà avec cet email"}
		}
		return nil, err
	}
	s.log.Info("Account created", zap.String("user_id", u.ID))

	return s.signIn(u)
}

// Login checks credentials and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AuthResult, error) {
	if email == "" || password == "" {
		return nil, models.Invalid("services.Login", "Email et mot de passe requis")
	}

	u, err := s.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errBadCredentials
		}
		return nil, err
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, errBadCredentials
	}
	return s.signIn(u)
}

func (s *AuthService) signIn(u *models.User) (*models.AuthResult, error) {
	pair, err := s.tokens.GeneratePair(u)
	if err != nil {
		return nil, models.Internal("services.signIn", err)
	}
	return &models.AuthResult{User: u, Tokens: pair}, nil
}

// Refresh exchanges a refresh token for a new pair. Old tokens stay valid
// until they expire.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.TokenPair, error) {
	if refreshToken == "" {
		return models.TokenPair{}, models.Invalid("services.Refresh", "Refresh token requis")
	}

	claims, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return models.TokenPair{}, errBadRefresh
	}
	u, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return models.TokenPair{}, errBadRefresh
		}
		return models.TokenPair{}, err
	}

	pair, err := s.tokens.GeneratePair(u)
	if err != nil {
		return models.TokenPair{}, models.Internal("services.Refresh", err)
	}
	return pair, nil
}

// Authenticate resolves the account behind an access token.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.tokens.VerifyAccess(accessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.FindUserByID(ctx, claims.UserID)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, &models.Error{Code: models.EUnauthorized, Msg: "Utilisateur non trouvé"}
		}
		return nil, err
	}
	return u, nil
}

// Me returns the account of userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// UpdateProfile changes the name and phone of an account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd models.UserUpdate) (*models.User, error) {
	if (upd.FirstName != nil && strings.TrimSpace(*upd.FirstName) == "") ||
		(upd.LastName != nil && strings.TrimSpace(*upd.LastName) == "") {
		return nil, models.Invalid("services.UpdateProfile", "Le prénom et le nom ne peuvent pas être vides")
	}
	u, err := s.users.UpdateUser(ctx, userID, upd)
	if err != nil {
		if models.ErrorCode(err) == models.ENotFound {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	const op = "services.ChangePassword"

	if oldPassword == "" || newPassword == "" {
		return models.Invalid(op, "Ancien et nouveau mot de passe requis")
	}
	if len(newPassword) < minPasswordLen {
		return models.Invalid(op, "Le nouveau mot de passe doit contenir au moins 6 caractères")
	}

	u, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.CheckPassword(u.Password, oldPassword) {
		return &models.Error{Code: models.EUnauthorized, Op: op, Msg: "Ancien mot de passe incorrect"}
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return models.Internal(op, err)
	}
	return s.users.UpdatePassword(ctx, userID, hash)
}
