package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "chatbot-inventory-platform"

// Claims represents JWT claims
type Claims struct {
	UserID   uuid.UUID            `json:"sub"`
	Email    string               `json:"email"`
	Role     domain.RequesterRole `json:"role"`
	VendorID *uuid.UUID           `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

// Requester returns the identity the token was issued for
func (c *Claims) Requester() *domain.Requester {
	return &domain.Requester{
		UserID:   c.UserID,
		Email:    c.Email,
		Role:     c.Role,
		VendorID: c.VendorID,
	}
}

// JWTManager validates the access tokens the identity provider issues with
// the shared secret. GenerateAccessToken mints the same tokens for local
// runs and tests.
type JWTManager struct {
	secret         []byte
	accessTokenTTL time.Duration
}

// NewJWTManager creates a new JWT manager
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:         []byte(secret),
		accessTokenTTL: accessTTL,
	}
}

// GenerateAccessToken issues an access token for r
func (m *JWTManager) GenerateAccessToken(r *domain.Requester) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   r.UserID,
		Email:    r.Email,
		Role:     r.Role,
		VendorID: r.VendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return m.secret, nil
}

// ValidateAccessToken validates an access token and returns the claims
func (m *JWTManager) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, m.keyFunc, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Role == "" {
		return nil, errors.New("invalid token: missing role")
	}

	return claims, nil
}
