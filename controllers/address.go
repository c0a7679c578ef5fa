package controllers

import (
	"net/http"

	"luxvision/models"
	"luxvision/services"
)

// AddressController handles saved delivery addresses
type AddressController struct {
	addresses *services.AddressService
	errors    *ErrorHandler
}

// NewAddressController creates a new AddressController
func NewAddressController(addresses *services.AddressService, errors *ErrorHandler) *AddressController {
	return &AddressController{addresses: addresses, errors: errors}
}

func (ac *AddressController) GetAddresses(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	list, err := ac.addresses.List(r.Context(), u.ID)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string][]models.Address{"addresses": list})
}

func (ac *AddressController) GetAddress(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	a, err := ac.addresses.Get(r.Context(), u.ID, pathVar(r, "id"))
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "", map[string]*models.Address{"address": a})
}

func (ac *AddressController) CreateAddress(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	var a models.Address
	if err := decode(r, &a); err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	created, err := ac.addresses.Create(r.Context(), u.ID, &a)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, "Adresse créée avec succès", map[string]*models.Address{"address": created})
}

func (ac *AddressController) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	var upd models.AddressUpdate
	if err := decode(r, &upd); err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	a, err := ac.addresses.Update(r.Context(), u.ID, pathVar(r, "id"), upd)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Adresse mise à jour", map[string]*models.Address{"address": a})
}

func (ac *AddressController) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	if err := ac.addresses.Delete(r.Context(), u.ID, pathVar(r, "id")); err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Adresse supprimée", nil)
}

func (ac *AddressController) SetDefaultAddress(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	a, err := ac.addresses.SetDefault(r.Context(), u.ID, pathVar(r, "id"))
	if err != nil {
		ac.errors.HandleHTTPError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, "Adresse par défaut définie", map[string]*models.Address{"address": a})
}
