package services

import (
	"context"
	"strings"

	"luxvision/models"
)

var errAddressNotFound = &models.Error{Code: models.ENotFound, Msg: "Adresse introuvable"}

// AddressService manages address books.
type AddressService struct {
	store AddressStore
}

// NewAddressService returns an AddressService.
func NewAddressService(store AddressStore) *AddressService {
	return &AddressService{store: store}
}

// List returns the addresses of userID, default first.
func (s *AddressService) List(ctx context.Context, userID string) ([]models.Address, error) {
	return s.store.ListAddresses(ctx, userID)
}

// Get returns an address owned by userID.
func (s *AddressService) Get(ctx context.Context, userID, id string) (*models.Address, error) {
	a, err := s.store.FindAddress(ctx, id)
	if models.ErrorCode(err) == models.ENotFound || (err == nil && a.UserID != userID) {
		return nil, errAddressNotFound
	}
	return a, err
}

// Create saves an address. The first address of a user becomes the default.
func (s *AddressService) Create(ctx context.Context, userID string, a *models.Address) (*models.Address, error) {
	if field := a.Shipping().Missing(); field != "" {
		return nil, models.Invalid("services.CreateAddress", "Champ requis manquant: "+field)
	}
	if strings.TrimSpace(a.Country) == "" {
		a.Country = "Congo"
	}

	n, err := s.store.CountAddresses(ctx, userID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		a.IsDefault = true
	}

	a.ID = ""
	a.UserID = userID
	if err := s.store.CreateAddress(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Update changes an address owned by userID.
func (s *AddressService) Update(ctx context.Context, userID, id string, upd models.AddressUpdate) (*models.Address, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	for _, f := range []*string{upd.FirstName, upd.LastName, upd.Phone, upd.Address, upd.City} {
		if f != nil && strings.TrimSpace(*f) == "" {
			return nil, models.Invalid("services.UpdateAddress", "Les champs requis ne peuvent pas être vides")
		}
	}
	return s.store.UpdateAddress(ctx, id, upd)
}

// Delete removes an address owned by userID.
func (s *AddressService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return err
	}
	return s.store.DeleteAddress(ctx, id)
}

// SetDefault makes an address the only default of userID.
func (s *AddressService) SetDefault(ctx context.Context, userID, id string) (*models.Address, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.store.SetDefaultAddress(ctx, userID, id)
}
