package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CredentialStatus is the state of an access credential
type CredentialStatus string

const (
	CredentialActive  CredentialStatus = "active"
	CredentialRevoked CredentialStatus = "revoked"
)

// AccessCredential binds a user to a vendor's private chatbot
type AccessCredential struct {
	ID        uuid.UUID        `json:"id"`
	VendorID  uuid.UUID        `json:"vendor_id"`
	UserID    uuid.UUID        `json:"user_id"`
	ChatbotID uuid.UUID        `json:"chatbot_id"`
	KeyPrefix string           `json:"key_prefix"`
	KeyHash   string           `json:"-"`
	Status    CredentialStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// CredentialCreate represents credential issuance data
type CredentialCreate struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// IssuedCredential carries the raw key, returned once at issuance
type IssuedCredential struct {
	Credential AccessCredential `json:"credential"`
	Key        string           `json:"key"`
}

// CredentialRepository defines the interface for access credential storage
type CredentialRepository interface {
	Create(ctx context.Context, cred *AccessCredential) error
	GetByID(ctx context.Context, id uuid.UUID) (*AccessCredential, error)
	// FindActive returns the active credential for the triple, or nil.
	FindActive(ctx context.Context, userID, chatbotID, vendorID uuid.UUID) (*AccessCredential, error)
	Revoke(ctx context.Context, id uuid.UUID) error
}
