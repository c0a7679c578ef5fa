package models

import "time"

// Role is the authorization level of an account.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPER_ADMIN"
)

// IsAdmin reports whether the role may use the back-office routes.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents a customer or staff account
type User struct {
	ID            string    `bson:"_id" db:"id" json:"id"`
	Email         string    `bson:"email" db:"email" json:"email"`
	Password      string    `bson:"password" db:"password" json:"-"`
	FirstName     string    `bson:"first_name" db:"first_name" json:"firstName"`
	LastName      string    `bson:"last_name" db:"last_name" json:"lastName"`
	Phone         string    `bson:"phone" db:"phone" json:"phone,omitempty"`
	Role          Role      `bson:"role" db:"role" json:"role"`
	EmailVerified bool      `bson:"email_verified" db:"email_verified" json:"emailVerified"`
	CreatedAt     time.Time `bson:"created_at" db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `bson:"updated_at" db:"updated_at" json:"updatedAt"`
}

// UserUpdate holds the profile fields a user may change. Nil fields are left untouched.
type UserUpdate struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Phone     *string `json:"phone"`
}

// UserSummary is the public part of a user shown next to reviews and orders.
type UserSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// TokenPair is the access/refresh token couple returned on login.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User   *User     `json:"user"`
	Tokens TokenPair `json:"tokens"`
}
