package models

import "time"

// Address is a saved delivery address. A user has at most one default address.
type Address struct {
	ID        string    `bson:"_id" db:"id" json:"id"`
	UserID    string    `bson:"user_id" db:"user_id" json:"userId"`
	FirstName string    `bson:"first_name" db:"first_name" json:"firstName"`
	LastName  string    `bson:"last_name" db:"last_name" json:"lastName"`
	Phone     string    `bson:"phone" db:"phone" json:"phone"`
	Address   string    `bson:"address" db:"address" json:"address"`
	City      string    `bson:"city" db:"city" json:"city"`
	State     string    `bson:"state" db:"state" json:"state,omitempty"`
	ZipCode   string    `bson:"zip_code" db:"zip_code" json:"zipCode,omitempty"`
	Country   string    `bson:"country" db:"country" json:"country"`
	IsDefault bool      `bson:"is_default" db:"is_default" json:"isDefault"`
	CreatedAt time.Time `bson:"created_at" db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" db:"updated_at" json:"updatedAt"`
}

// Shipping converts a saved address to the snapshot stored on orders.
func (a *Address) Shipping() ShippingAddress {
	return ShippingAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Phone:     a.Phone,
		Address:   a.Address,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
	}
}

// AddressUpdate holds the address fields to change. Nil fields are left untouched.
type AddressUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	ZipCode   *string `json:"zipCode"`
	Country   *string `json:"country"`
	IsDefault *bool   `json:"isDefault"`
}
