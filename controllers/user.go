package controllers

import (
	"net/http"

	"luxvision/models"
	"luxvision/services"
)

// UserController handles sign-up, sign-in and profile requests
type UserController struct {
	auth   *services.AuthService
	errors *ErrorHandler
}

// NewUserController creates a new UserController
func NewUserController(auth *services.AuthService, errors *ErrorHandler) *UserController {
	return &UserController{auth: auth, errors: errors}
}

// Register handles account creation
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decode(r, &in); err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	res, err := uc.auth.Register(r.Context(), in)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Compte créé avec succès", res)
}

// Login handles user authentication
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var creds struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decode(r, &creds); err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	res, err := uc.auth.Login(r.Context(), creds.Email, creds.Password)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Connexion réussie", res)
}

// Refresh exchanges a refresh token for a new token pair
func (uc *UserController) Refresh(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := decode(r, &body); err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	tokens, err := uc.auth.Refresh(r.Context(), body.RefreshToken)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Token rafraîchi avec succès", map[string]models.TokenPair{"tokens": tokens})
}

// GetProfile retrieves the authenticated user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	user, err := uc.auth.Me(r.Context(), u.ID)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]*models.User{"user": user})
}

// UpdateProfile changes the name and phone of the authenticated user
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	var upd models.UserUpdate
	if err := decode(r, &upd); err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	user, err := uc.auth.UpdateProfile(r.Context(), u.ID, upd)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Profil mis à jour avec succès", map[string]*models.User{"user": user})
}

// ChangePassword replaces the password of the authenticated user
func (uc *UserController) ChangePassword(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	var body struct {
		OldPassword string `json:"oldPassword"`
		NewPassword string `json:"newPassword"`
	}
	if err := decode(r, &body); err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := uc.auth.ChangePassword(r.Context(), u.ID, body.OldPassword, body.NewPassword); err != nil {
		uc.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Mot de passe changé avec succès", nil)
}

// Logout acknowledges a sign-out. Tokens are stateless and simply dropped by the client.
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "Déconnexion réussie", nil)
}
