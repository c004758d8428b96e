package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RequesterRole is the identity class resolved by the auth layer
type RequesterRole string

const (
	RequesterExternal RequesterRole = "external"
	RequesterVendor   RequesterRole = "vendor"
	RequesterAdmin    RequesterRole = "admin"
)

// User represents a platform account. Vendors are users with the vendor
// role; a vendor's ID is the VendorID of its chatbots.
type User struct {
	ID        uuid.UUID     `json:"id"`
	Email     string        `json:"email"`
	Role      RequesterRole `json:"role"`
	IsActive  bool          `json:"is_active"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Requester returns the identity a token for u resolves to.
func (u *User) Requester() *Requester {
	r := &Requester{UserID: u.ID, Email: u.Email, Role: u.Role}
	if u.Role == RequesterVendor {
		id := u.ID
		r.VendorID = &id
	}
	return r
}

// UserRepository defines the interface for account storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Ensure stores user unless a user with the same ID or email exists.
	Ensure(ctx context.Context, user *User) error
}

// Requester is the resolved identity of a caller. A nil *Requester is anonymous.
type Requester struct {
	UserID   uuid.UUID     `json:"user_id"`
	Email    string        `json:"email,omitempty"`
	Role     RequesterRole `json:"role"`
	VendorID *uuid.UUID    `json:"vendor_id,omitempty"`
	// APIKey is the raw credential presented with the request, if any.
	APIKey string `json:"-"`
}

// User returns the account row recorded for an identity issued elsewhere.
// Tokens without an email get a placeholder unique to the user.
func (r *Requester) User() *User {
	email := r.Email
	if email == "" {
		email = r.UserID.String() + "@users.invalid"
	}
	now := time.Now().UTC()
	return &User{
		ID:        r.UserID,
		Email:     email,
		Role:      r.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SenderRole maps the requester to the role its messages are stored with.
func (r *Requester) SenderRole() SenderRole {
	switch r.Role {
	case RequesterVendor:
		return SenderVendor
	case RequesterAdmin:
		return SenderAdmin
	default:
		return SenderExternalUser
	}
}
